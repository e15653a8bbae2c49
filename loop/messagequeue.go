package loop

import "log"

// A MessageQueue is a singly linked chain of messages kept in ascending
// scheduled-time order. Messages with equal times keep their insertion order.
//
// The queue is owned by exactly one Looper and is only safe for
// single-threaded use. Head and SetHead expose the chain to the dispatch
// logic, which unlinks messages by direct link manipulation.
type MessageQueue struct {
	head *Message
}

// NewMessageQueue creates an empty MessageQueue.
func NewMessageQueue() *MessageQueue {
	return &MessageQueue{}
}

// Head returns the first message in the chain, or nil if the queue is empty.
func (q *MessageQueue) Head() *Message {
	return q.head
}

// SetHead replaces the head of the chain. Used when the head message is
// detached for dispatch.
func (q *MessageQueue) SetHead(msg *Message) {
	q.head = msg
}

// Peek returns the first message without removing it.
func (q *MessageQueue) Peek() *Message {
	return q.head
}

// Len returns the number of messages currently linked in the chain.
func (q *MessageQueue) Len() int {
	n := 0
	for msg := q.head; msg != nil; msg = msg.Next() {
		n++
	}

	return n
}

// Push inserts a message before the first message with a strictly later
// scheduled time, preserving ascending order and FIFO order among equal
// times.
func (q *MessageQueue) Push(msg *Message) {
	if msg.InUse() {
		log.Panic("cannot enqueue a message that is in use")
	}

	if msg.Next() != nil {
		log.Panic("cannot enqueue a message that is already linked")
	}

	if q.head == nil || msg.When() < q.head.When() {
		msg.SetNext(q.head)
		q.head = msg
		return
	}

	prev := q.head
	for prev.Next() != nil && prev.Next().When() <= msg.When() {
		prev = prev.Next()
	}

	msg.SetNext(prev.Next())
	prev.SetNext(msg)
}
