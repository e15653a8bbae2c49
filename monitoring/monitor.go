// Package monitoring exposes a live loop controller over HTTP so that a
// hanging or misbehaving test can be inspected from outside the process.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/dispatchlab/mockloop/loop"
)

// A Controller is the subset of the loop controller behavior that the
// monitor drives.
type Controller interface {
	loop.TimeTeller

	IsIdle() bool
	MoveTimeForward(delta loop.VTimeInMs)
	DispatchAll() int
	Loop() *loop.Looper
}

// Monitor turns a controller into a server and allows external inspection
// and driving of the loop.
type Monitor struct {
	controller  Controller
	portNumber  int
	openBrowser bool
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor URL in the default browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterController registers the controller that drives the loop.
func (m *Monitor) RegisterController(c Controller) {
	m.controller = c
}

// StartServer starts the monitor as a web server, on the configured port or
// a random one.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/idle", m.idle)
	r.HandleFunc("/api/pending", m.listPending)
	r.HandleFunc("/api/queue", m.serializeQueue)
	r.HandleFunc("/api/move_time/{ms}", m.moveTime)
	r.HandleFunc("/api/dispatch_all", m.dispatchAll)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring loop with %s\n", url)

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	if m.openBrowser {
		err := browser.OpenURL(url)
		dieOnErr(err)
	}
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%d}", m.controller.CurrentTime())
}

func (m *Monitor) idle(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"idle\":%t}", m.controller.IsIdle())
}

type pendingMessage struct {
	ID      string `json:"id"`
	When    int64  `json:"when"`
	Async   bool   `json:"async"`
	Barrier bool   `json:"barrier"`
	Handler string `json:"handler,omitempty"`
}

func (m *Monitor) listPending(w http.ResponseWriter, _ *http.Request) {
	pending := make([]pendingMessage, 0)

	for msg := m.controller.Loop().Queue().Head(); msg != nil; msg = msg.Next() {
		entry := pendingMessage{
			ID:      msg.ID(),
			When:    int64(msg.When()),
			Async:   msg.IsAsync(),
			Barrier: msg.IsBarrier(),
		}

		if !msg.IsBarrier() {
			entry.Handler = reflect.TypeOf(msg.Target()).String()
		}

		pending = append(pending, entry)
	}

	rsp, err := json.Marshal(pending)
	dieOnErr(err)

	_, err = w.Write(rsp)
	dieOnErr(err)
}

func (m *Monitor) serializeQueue(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.controller.Loop().Queue())
	serializer.SetMaxDepth(3)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) moveTime(w http.ResponseWriter, r *http.Request) {
	msStr := mux.Vars(r)["ms"]

	ms, err := strconv.ParseInt(msStr, 10, 64)
	if err != nil || ms < 0 {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: delta must be a non-negative integer")
		return
	}

	m.controller.MoveTimeForward(loop.VTimeInMs(ms))
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) dispatchAll(w http.ResponseWriter, _ *http.Request) {
	count := m.controller.DispatchAll()
	fmt.Fprintf(w, "{\"count\":%d}", count)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	}

	data, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(data)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	data, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
