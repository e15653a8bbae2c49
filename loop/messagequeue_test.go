package loop

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MessageQueue", func() {
	var queue *MessageQueue

	BeforeEach(func() {
		queue = NewMessageQueue()
	})

	It("should start empty", func() {
		Expect(queue.Head()).To(BeNil())
		Expect(queue.Peek()).To(BeNil())
		Expect(queue.Len()).To(Equal(0))
	})

	It("should keep messages in ascending time order", func() {
		numMessages := 100
		for i := 0; i < numMessages; i++ {
			msg := NewMessage(nopHandler{})
			msg.SetWhen(VTimeInMs(rand.Int63n(1000)))
			queue.Push(msg)
		}

		Expect(queue.Len()).To(Equal(numMessages))

		prev := VTimeInMs(-1)
		for msg := queue.Head(); msg != nil; msg = msg.Next() {
			Expect(msg.When() >= prev).To(BeTrue())
			prev = msg.When()
		}
	})

	It("should keep insertion order among equal times", func() {
		msg1 := NewMessage(nopHandler{})
		msg2 := NewMessage(nopHandler{})
		msg3 := NewMessage(nopHandler{})

		msg1.SetWhen(10)
		msg2.SetWhen(10)
		msg3.SetWhen(10)

		queue.Push(msg1)
		queue.Push(msg2)
		queue.Push(msg3)

		Expect(queue.Head()).To(BeIdenticalTo(msg1))
		Expect(queue.Head().Next()).To(BeIdenticalTo(msg2))
		Expect(queue.Head().Next().Next()).To(BeIdenticalTo(msg3))
	})

	It("should insert an earlier message at the head", func() {
		late := NewMessage(nopHandler{})
		late.SetWhen(100)
		queue.Push(late)

		early := NewMessage(nopHandler{})
		early.SetWhen(10)
		queue.Push(early)

		Expect(queue.Head()).To(BeIdenticalTo(early))
		Expect(queue.Head().Next()).To(BeIdenticalTo(late))
	})

	It("should refuse a message that is already linked", func() {
		msg1 := NewMessage(nopHandler{})
		msg2 := NewMessage(nopHandler{})
		msg1.SetNext(msg2)

		Expect(func() { queue.Push(msg1) }).To(Panic())
	})

	It("should refuse a message that is in use", func() {
		msg := NewMessage(nopHandler{})
		msg.MarkInUse()

		Expect(func() { queue.Push(msg) }).To(Panic())
	})
})
