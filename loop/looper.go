// Package loop models the host side of a single-threaded, timestamp-ordered
// message loop: the message abstraction, the time-ascending chain of pending
// messages, and the looper that owns them. Test drivers that manipulate the
// chain live in the looptest package.
package loop

import (
	"log"

	"github.com/rs/xid"
)

// A Looper owns a time-ordered queue of pending messages. A Looper is
// created unbound; a test controller installs it as the active looper for
// the process with Bind.
type Looper struct {
	id    string
	queue *MessageQueue
	clock TimeTeller
}

// NewLooper creates a Looper with an empty queue. A nil clock selects the
// host monotonic clock.
func NewLooper(clock TimeTeller) *Looper {
	if clock == nil {
		clock = NewUptimeClock()
	}

	return &Looper{
		id:    xid.New().String(),
		queue: NewMessageQueue(),
		clock: clock,
	}
}

// ID returns the ID of the looper.
func (l *Looper) ID() string {
	return l.id
}

// Queue returns the chain of pending messages.
func (l *Looper) Queue() *MessageQueue {
	return l.queue
}

// CurrentTime returns the looper clock reading.
func (l *Looper) CurrentTime() VTimeInMs {
	return l.clock.CurrentTime()
}

// Send enqueues a message to be dispatched at the given virtual time.
func (l *Looper) Send(msg *Message, when VTimeInMs) {
	if when < 0 {
		log.Panic("cannot send a message at a negative time")
	}

	msg.SetWhen(when)
	l.queue.Push(msg)
}

// SendDelayed enqueues a message to be dispatched after the given delay,
// relative to the looper clock.
func (l *Looper) SendDelayed(msg *Message, delay VTimeInMs) {
	if delay < 0 {
		log.Panic("cannot send a message with a negative delay")
	}

	l.Send(msg, l.clock.CurrentTime()+delay)
}

// PostBarrier enqueues a barrier at the given virtual time and returns it.
// The barrier stalls synchronous dispatch until an asynchronous message is
// found behind it.
func (l *Looper) PostBarrier(when VTimeInMs) *Message {
	barrier := NewBarrier()
	l.Send(barrier, when)

	return barrier
}
