// Package looptest provides a deterministic test driver for a loop.Looper.
// Instead of sleeping, tests move the scheduled times of pending messages
// toward the unchanged clock reading and dispatch due messages one at a time
// or in a drain loop.
package looptest

import (
	"log"

	"github.com/dispatchlab/mockloop/loop"
)

// A Controller manipulates the message chain of a Looper so that code built
// on the loop can be exercised synchronously. Construct one with Builder,
// which also installs the looper as the active loop for the process.
//
// All operations run on the calling goroutine. Dispatching invokes the
// message target directly and returns after the target finished.
type Controller struct {
	*loop.HookableBase

	looper *loop.Looper
}

// Loop returns the looper handle, for passing to the code under test.
func (c *Controller) Loop() *loop.Looper {
	return c.looper
}

// CurrentTime returns the looper clock reading.
func (c *Controller) CurrentTime() loop.VTimeInMs {
	return c.looper.CurrentTime()
}

// MoveTimeForward reduces the scheduled time of every pending message by
// delta, clamping at zero. The clock itself is untouched; pulling deadlines
// closer to the current reading is what makes future messages due. Relative
// order among pending messages is preserved.
func (c *Controller) MoveTimeForward(delta loop.VTimeInMs) {
	if delta < 0 {
		log.Panic("cannot move time forward by a negative delta")
	}

	for msg := c.looper.Queue().Head(); msg != nil; msg = msg.Next() {
		when := msg.When() - delta
		if when < 0 {
			when = 0
		}

		msg.SetWhen(when)
	}
}

// IsIdle returns true if the head of the chain is due at the current clock
// reading. The check inspects the literal head only; when the head is a due
// barrier, IsIdle reports true even though the barrier itself is never
// dispatched and the actually dispatchable message is located by barrier
// skipping.
func (c *Controller) IsIdle() bool {
	head := c.looper.Queue().Head()

	return head != nil && head.When() <= c.looper.CurrentTime()
}

// NextMessage detaches and returns the next message that should run, or nil
// if no message is due. When the head is a barrier, the chain is scanned
// forward for the first asynchronous message; messages scanned past stay
// linked in their original order. The returned message is unlinked, marked
// in use, and owned by the caller.
func (c *Controller) NextMessage() *loop.Message {
	if !c.IsIdle() {
		return nil
	}

	return c.detachNextDue()
}

func (c *Controller) detachNextDue() *loop.Message {
	queue := c.looper.Queue()
	now := c.looper.CurrentTime()

	var prev *loop.Message
	msg := queue.Head()

	if msg != nil && msg.IsBarrier() {
		// Stalled by a barrier. Find the next asynchronous message in the
		// chain.
		for {
			prev = msg
			msg = msg.Next()

			if msg == nil || msg.IsAsync() {
				break
			}
		}
	}

	if msg == nil || msg.When() > now {
		return nil
	}

	if prev != nil {
		prev.SetNext(msg.Next())
	} else {
		queue.SetHead(msg.Next())
	}

	msg.SetNext(nil)
	msg.MarkInUse()

	return msg
}

// DispatchNext dispatches the next due message to its target. The chain must
// be idle; calling DispatchNext with nothing due is a test-authoring error
// and panics. When the head is a stalled barrier with no asynchronous
// successor, the call is a no-op.
func (c *Controller) DispatchNext() {
	if !c.IsIdle() {
		log.Panic("DispatchNext called with no due message")
	}

	c.dispatchOne()
}

// DispatchAll dispatches due messages until none remains, and returns the
// number of messages dispatched. Starting from an empty or not-yet-due chain
// simply returns zero.
func (c *Controller) DispatchAll() int {
	count := 0

	for c.IsIdle() {
		if !c.dispatchOne() {
			// The head is a stalled barrier with no asynchronous successor.
			// Nothing can run until more messages arrive.
			break
		}

		count++
	}

	return count
}

func (c *Controller) dispatchOne() bool {
	msg := c.detachNextDue()
	if msg == nil {
		return false
	}

	hookCtx := loop.HookCtx{
		Domain: c,
		Pos:    loop.HookPosBeforeDispatch,
		Item:   msg,
		Detail: c.looper.CurrentTime(),
	}
	c.InvokeHook(hookCtx)

	_ = msg.Target().Handle(msg)

	hookCtx.Pos = loop.HookPosAfterDispatch
	c.InvokeHook(hookCtx)

	return true
}
