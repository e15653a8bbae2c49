package looptest

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/dispatchlab/mockloop/loop"
)

// recordingHook keeps every hook invocation it sees.
type recordingHook struct {
	ctxs []loop.HookCtx
}

func (h *recordingHook) Func(ctx loop.HookCtx) {
	h.ctxs = append(h.ctxs, ctx)
}

func chainTimes(l *loop.Looper) []loop.VTimeInMs {
	times := []loop.VTimeInMs{}
	for msg := l.Queue().Head(); msg != nil; msg = msg.Next() {
		times = append(times, msg.When())
	}

	return times
}

var _ = Describe("Controller", func() {
	var (
		mockCtrl   *gomock.Controller
		clock      *testClock
		controller *Controller
		looper     *loop.Looper
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = &testClock{now: 1000}
		controller = MakeBuilder().WithTimeTeller(clock).Build()
		looper = controller.Loop()
	})

	AfterEach(func() {
		loop.ResetBinding()
		mockCtrl.Finish()
	})

	It("should install the looper as the active loop", func() {
		Expect(loop.Bound()).To(BeIdenticalTo(looper))
	})

	It("should read the looper clock", func() {
		Expect(controller.CurrentTime()).To(Equal(loop.VTimeInMs(1000)))
	})

	Context("when moving time forward", func() {
		It("should shift every message, clamping at zero", func() {
			msgA := loop.NewMessage(NewMockHandler(mockCtrl))
			msgB := loop.NewMessage(NewMockHandler(mockCtrl))
			msgC := loop.NewMessage(NewMockHandler(mockCtrl))

			looper.Send(msgA, 100)
			looper.Send(msgB, 50)
			looper.Send(msgC, 200)

			controller.MoveTimeForward(60)

			Expect(msgA.When()).To(Equal(loop.VTimeInMs(40)))
			Expect(msgB.When()).To(Equal(loop.VTimeInMs(0)))
			Expect(msgC.When()).To(Equal(loop.VTimeInMs(140)))
			Expect(chainTimes(looper)).To(Equal(
				[]loop.VTimeInMs{0, 40, 140}))
		})

		It("should not add or remove messages", func() {
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 10)
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 20)

			controller.MoveTimeForward(1000000)

			Expect(looper.Queue().Len()).To(Equal(2))
			Expect(chainTimes(looper)).To(Equal(
				[]loop.VTimeInMs{0, 0}))
		})

		It("should refuse a negative delta", func() {
			Expect(func() { controller.MoveTimeForward(-1) }).To(Panic())
		})
	})

	Context("when checking idleness", func() {
		It("should report not idle for an empty chain", func() {
			Expect(controller.IsIdle()).To(BeFalse())
		})

		It("should report idle when the head is due", func() {
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 1000)

			Expect(controller.IsIdle()).To(BeTrue())
		})

		It("should report not idle when the head is in the future", func() {
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 1001)

			Expect(controller.IsIdle()).To(BeFalse())
		})

		It("should inspect the literal head only, even for a barrier",
			func() {
				looper.PostBarrier(0)

				Expect(controller.IsIdle()).To(BeTrue())
			})

		It("should not change the chain", func() {
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 100)
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 200)
			before := chainTimes(looper)

			for i := 0; i < 3; i++ {
				Expect(controller.IsIdle()).To(BeTrue())
			}

			Expect(chainTimes(looper)).To(Equal(before))
		})
	})

	Context("when taking the next message", func() {
		It("should yield nothing when not idle", func() {
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 5000)

			Expect(controller.NextMessage()).To(BeNil())
		})

		It("should detach the due head", func() {
			msg := loop.NewMessage(NewMockHandler(mockCtrl))
			next := loop.NewMessage(NewMockHandler(mockCtrl))
			looper.Send(msg, 0)
			looper.Send(next, 5000)

			detached := controller.NextMessage()

			Expect(detached).To(BeIdenticalTo(msg))
			Expect(detached.Next()).To(BeNil())
			Expect(detached.InUse()).To(BeTrue())
			Expect(looper.Queue().Head()).To(BeIdenticalTo(next))
		})

		It("should skip a barrier up to the first async message", func() {
			barrier := looper.PostBarrier(0)

			syncMsg := loop.NewMessage(NewMockHandler(mockCtrl))
			looper.Send(syncMsg, 0)

			asyncMsg := loop.NewMessage(NewMockHandler(mockCtrl))
			asyncMsg.SetAsync(true)
			looper.Send(asyncMsg, 0)

			detached := controller.NextMessage()

			Expect(detached).To(BeIdenticalTo(asyncMsg))
			Expect(detached.Next()).To(BeNil())
			Expect(looper.Queue().Head()).To(BeIdenticalTo(barrier))
			Expect(barrier.Next()).To(BeIdenticalTo(syncMsg))
			Expect(syncMsg.Next()).To(BeNil())
		})

		It("should yield nothing for a stalled barrier with no async "+
			"successor", func() {
			looper.PostBarrier(0)
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 0)

			Expect(controller.NextMessage()).To(BeNil())
			Expect(looper.Queue().Len()).To(Equal(2))
		})

		It("should re-check the time at the message found past a barrier",
			func() {
				looper.PostBarrier(0)

				asyncMsg := loop.NewMessage(NewMockHandler(mockCtrl))
				asyncMsg.SetAsync(true)
				looper.Send(asyncMsg, 5000)

				Expect(controller.NextMessage()).To(BeNil())
				Expect(looper.Queue().Len()).To(Equal(2))
			})
	})

	Context("when dispatching a single message", func() {
		It("should invoke the target synchronously", func() {
			handler := NewMockHandler(mockCtrl)
			msg := loop.NewMessage(handler)
			looper.Send(msg, 0)

			handler.EXPECT().Handle(msg)

			controller.DispatchNext()

			Expect(looper.Queue().Len()).To(Equal(0))
		})

		It("should panic on an empty chain", func() {
			Expect(func() { controller.DispatchNext() }).To(Panic())
		})

		It("should panic when the head is not yet due", func() {
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 5000)

			Expect(func() { controller.DispatchNext() }).To(Panic())
		})

		It("should be a no-op for a stalled barrier with no async "+
			"successor", func() {
			looper.PostBarrier(0)
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 0)

			controller.DispatchNext()

			Expect(looper.Queue().Len()).To(Equal(2))
		})
	})

	Context("when draining the chain", func() {
		It("should return zero for an empty chain", func() {
			Expect(controller.DispatchAll()).To(Equal(0))
		})

		It("should return zero when nothing is due", func() {
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 5000)

			Expect(controller.DispatchAll()).To(Equal(0))
		})

		It("should dispatch due messages in time order", func() {
			clock.now = 50

			handlerA := NewMockHandler(mockCtrl)
			handlerB := NewMockHandler(mockCtrl)
			handlerC := NewMockHandler(mockCtrl)

			msgA := loop.NewMessage(handlerA)
			msgB := loop.NewMessage(handlerB)
			msgC := loop.NewMessage(handlerC)

			looper.Send(msgA, 100)
			looper.Send(msgB, 50)
			looper.Send(msgC, 200)

			controller.MoveTimeForward(60)

			first := handlerB.EXPECT().Handle(msgB)
			handlerA.EXPECT().Handle(msgA).After(first)

			count := controller.DispatchAll()

			Expect(count).To(Equal(2))
			Expect(controller.IsIdle()).To(BeFalse())
			Expect(chainTimes(looper)).To(Equal(
				[]loop.VTimeInMs{140}))
		})

		It("should count messages scheduled during dispatch", func() {
			handler := NewMockHandler(mockCtrl)

			followUp := loop.NewMessage(handler)
			msg := loop.NewMessage(handler)
			looper.Send(msg, 0)

			handler.EXPECT().Handle(msg).Do(func(_ *loop.Message) {
				looper.Send(followUp, 0)
			})
			handler.EXPECT().Handle(followUp)

			Expect(controller.DispatchAll()).To(Equal(2))
		})

		It("should terminate on a stalled barrier", func() {
			looper.PostBarrier(0)
			looper.Send(loop.NewMessage(NewMockHandler(mockCtrl)), 0)

			Expect(controller.DispatchAll()).To(Equal(0))
		})
	})

	Context("when hooks are registered", func() {
		It("should invoke hooks around each dispatch", func() {
			hook := &recordingHook{}
			controller.AcceptHook(hook)

			handler := NewMockHandler(mockCtrl)
			msg := loop.NewMessage(handler)
			looper.Send(msg, 0)

			handler.EXPECT().Handle(msg)

			controller.DispatchNext()

			Expect(hook.ctxs).To(HaveLen(2))
			Expect(hook.ctxs[0].Pos).To(Equal(loop.HookPosBeforeDispatch))
			Expect(hook.ctxs[0].Item).To(BeIdenticalTo(msg))
			Expect(hook.ctxs[0].Detail).To(Equal(loop.VTimeInMs(1000)))
			Expect(hook.ctxs[1].Pos).To(Equal(loop.HookPosAfterDispatch))
			Expect(hook.ctxs[1].Item).To(BeIdenticalTo(msg))
		})
	})
})
