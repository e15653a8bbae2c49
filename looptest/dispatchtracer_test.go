package looptest

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/dispatchlab/mockloop/loop"
)

// fakeRecorder is an in-memory DataRecorder.
type fakeRecorder struct {
	tables  []string
	inserts map[string][]any
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{inserts: make(map[string][]any)}
}

func (r *fakeRecorder) CreateTable(tableName string, _ any) {
	r.tables = append(r.tables, tableName)
}

func (r *fakeRecorder) InsertData(tableName string, entry any) {
	r.inserts[tableName] = append(r.inserts[tableName], entry)
}

func (r *fakeRecorder) ListTables() []string {
	return r.tables
}

func (r *fakeRecorder) Flush() {}

var _ = Describe("DispatchTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		clock      *testClock
		controller *Controller
		recorder   *fakeRecorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = &testClock{now: 1000}
		controller = MakeBuilder().WithTimeTeller(clock).Build()

		recorder = newFakeRecorder()
		controller.AcceptHook(NewDispatchTracer(recorder))
	})

	AfterEach(func() {
		loop.ResetBinding()
		mockCtrl.Finish()
	})

	It("should create the trace table", func() {
		Expect(recorder.ListTables()).To(
			ContainElement(DispatchTraceTable))
	})

	It("should record one row per dispatch, in sequence", func() {
		handler := NewMockHandler(mockCtrl)

		msg1 := loop.NewMessage(handler)
		msg2 := loop.NewMessage(handler)
		msg2.SetAsync(true)

		controller.Loop().Send(msg1, 100)
		controller.Loop().Send(msg2, 200)

		handler.EXPECT().Handle(gomock.Any()).Times(2)

		Expect(controller.DispatchAll()).To(Equal(2))

		rows := recorder.inserts[DispatchTraceTable]
		Expect(rows).To(HaveLen(2))

		first := rows[0].(DispatchRecord)
		Expect(first.Seq).To(Equal(1))
		Expect(first.MsgID).To(Equal(msg1.ID()))
		Expect(first.When).To(Equal(int64(100)))
		Expect(first.Now).To(Equal(int64(1000)))
		Expect(first.Async).To(BeFalse())
		Expect(first.Handler).NotTo(BeEmpty())

		second := rows[1].(DispatchRecord)
		Expect(second.Seq).To(Equal(2))
		Expect(second.MsgID).To(Equal(msg2.ID()))
		Expect(second.Async).To(BeTrue())
	})

	It("should ignore non-dispatch hook positions", func() {
		tracer := NewDispatchTracer(newFakeRecorder())

		tracer.Func(loop.HookCtx{Pos: loop.HookPosBeforeDispatch})

		Expect(recorder.inserts[DispatchTraceTable]).To(BeEmpty())
	})
})
