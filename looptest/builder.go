package looptest

import (
	"github.com/rs/xid"

	"github.com/dispatchlab/mockloop/datarecording"
	"github.com/dispatchlab/mockloop/loop"
	"github.com/dispatchlab/mockloop/monitoring"
)

// Builder can be used to build a Controller.
type Builder struct {
	timeTeller    loop.TimeTeller
	monitorOn     bool
	monitorPort   int
	recordingOn   bool
	traceFileName string
}

// MakeBuilder creates a new builder with the default configuration: host
// monotonic clock, no monitoring, no dispatch recording.
func MakeBuilder() Builder {
	return Builder{}
}

// WithTimeTeller sets the clock the looper reads. Tests that want full
// control over "now" inject their own TimeTeller here.
func (b Builder) WithTimeTeller(t loop.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// WithMonitoring starts an HTTP server that exposes the state of the loop
// while the test runs.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithDispatchRecording records every dispatched message into an SQLite
// trace database.
func (b Builder) WithDispatchRecording() Builder {
	b.recordingOn = true
	return b
}

// WithTraceFileName sets the custom output file name for the dispatch trace.
func (b Builder) WithTraceFileName(name string) Builder {
	b.traceFileName = name
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordingOn && b.traceFileName != "" {
		panic("trace file name cannot be set when recording is disabled")
	}
}

// Build creates an unbound looper, installs it as the active loop for the
// process, and returns the controller driving it. Installation happens
// exactly once per Build; tearing the binding down is the harness's
// responsibility.
func (b Builder) Build() *Controller {
	b.parametersMustBeValid()

	looper := loop.NewLooper(b.timeTeller)
	loop.Bind(looper)

	c := &Controller{
		HookableBase: loop.NewHookableBase(),
		looper:       looper,
	}

	if b.recordingOn {
		name := b.traceFileName
		if name == "" {
			name = "mockloop_trace_" + xid.New().String()
		}

		recorder := datarecording.New(name)
		c.AcceptHook(NewDispatchTracer(recorder))
	}

	if b.monitorOn {
		monitor := monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		monitor.RegisterController(c)
		monitor.StartServer()
	}

	return c
}

// NewController builds a controller with the default configuration.
func NewController() *Controller {
	return MakeBuilder().Build()
}
