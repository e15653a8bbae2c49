package loop

import "log"

// A Handler is the target of messages. Dispatch invokes Handle synchronously
// on the dispatching goroutine with the detached message as argument.
type Handler interface {
	Handle(msg *Message) error
}

// A Message is one unit of pending work scheduled on a Looper.
//
// A message with no target is a barrier. Barriers stall ordinary synchronous
// dispatch; only messages flagged asynchronous may be dispatched past one.
//
// The next link is exclusively owned. A message is either linked in one
// queue or held by the caller that detached it, never both.
type Message struct {
	id     string
	when   VTimeInMs
	target Handler
	async  bool
	next   *Message
	inUse  bool
}

// NewMessage creates a message targeting the given handler.
func NewMessage(target Handler) *Message {
	return &Message{
		id:     GetIDGenerator().Generate(),
		target: target,
	}
}

// NewBarrier creates a message with no target.
func NewBarrier() *Message {
	return &Message{id: GetIDGenerator().Generate()}
}

// ID returns the ID of the message.
func (m *Message) ID() string {
	return m.id
}

// When returns the virtual time at which the message is scheduled.
func (m *Message) When() VTimeInMs {
	return m.when
}

// SetWhen changes the scheduled time of the message. Scheduled times are
// never negative.
func (m *Message) SetWhen(t VTimeInMs) {
	if t < 0 {
		log.Panic("message time cannot be negative")
	}

	m.when = t
}

// Target returns the handler the message is dispatched to, or nil if the
// message is a barrier.
func (m *Message) Target() Handler {
	return m.target
}

// IsBarrier returns true if the message has no target.
func (m *Message) IsBarrier() bool {
	return m.target == nil
}

// IsAsync returns true if the message may be dispatched past a barrier.
func (m *Message) IsAsync() bool {
	return m.async
}

// SetAsync flags the message as asynchronous. Must be called before the
// message is enqueued.
func (m *Message) SetAsync(async bool) {
	if m.inUse {
		log.Panic("cannot modify a message that is in use")
	}

	m.async = async
}

// Next returns the following message in the chain.
func (m *Message) Next() *Message {
	return m.next
}

// SetNext re-points the ownership link of the message. Only queue insertion
// and dispatch-time unlinking may call this.
func (m *Message) SetNext(next *Message) {
	m.next = next
}

// MarkInUse records that the message has been detached for dispatch. It is
// invoked exactly once per message, at the moment of detachment.
func (m *Message) MarkInUse() {
	if m.inUse {
		log.Panic("message is already in use")
	}

	m.inUse = true
}

// InUse returns true once the message has been detached for dispatch.
func (m *Message) InUse() bool {
	return m.inUse
}
