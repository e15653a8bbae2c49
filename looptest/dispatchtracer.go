package looptest

import (
	"reflect"

	"github.com/dispatchlab/mockloop/datarecording"
	"github.com/dispatchlab/mockloop/loop"
)

// DispatchTraceTable is the name of the table dispatch records are written
// to.
const DispatchTraceTable = "dispatch_trace"

// A DispatchRecord is one row in the dispatch trace table.
type DispatchRecord struct {
	Seq     int
	MsgID   string
	When    int64
	Now     int64
	Async   bool
	Handler string
}

// A DispatchTracer is a hook that records every dispatched message into a
// DataRecorder, one row per dispatch.
type DispatchTracer struct {
	recorder datarecording.DataRecorder
	seq      int
}

// NewDispatchTracer creates a DispatchTracer that writes into the recorder.
func NewDispatchTracer(recorder datarecording.DataRecorder) *DispatchTracer {
	t := &DispatchTracer{recorder: recorder}
	t.recorder.CreateTable(DispatchTraceTable, DispatchRecord{})

	return t
}

// Func records the message after its target finished handling it.
func (t *DispatchTracer) Func(ctx loop.HookCtx) {
	if ctx.Pos != loop.HookPosAfterDispatch {
		return
	}

	msg, ok := ctx.Item.(*loop.Message)
	if !ok {
		return
	}

	now, _ := ctx.Detail.(loop.VTimeInMs)

	t.seq++
	t.recorder.InsertData(DispatchTraceTable, DispatchRecord{
		Seq:     t.seq,
		MsgID:   msg.ID(),
		When:    int64(msg.When()),
		Now:     int64(now),
		Async:   msg.IsAsync(),
		Handler: reflect.TypeOf(msg.Target()).String(),
	})
}
