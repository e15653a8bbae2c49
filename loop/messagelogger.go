package loop

import (
	"log"
	"reflect"
)

// MessageLogger is a hook that prints each dispatched message.
type MessageLogger struct {
	LogHookBase
}

// NewMessageLogger returns a MessageLogger that writes into the logger.
func NewMessageLogger(logger *log.Logger) *MessageLogger {
	h := new(MessageLogger)
	h.Logger = logger

	return h
}

// Func writes the message information into the logger.
func (h *MessageLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeDispatch {
		return
	}

	msg, ok := ctx.Item.(*Message)
	if !ok {
		return
	}

	if msg.IsAsync() {
		h.Logger.Printf("%d, msg %s -> %s, async",
			msg.When(), msg.ID(), reflect.TypeOf(msg.Target()))
		return
	}

	h.Logger.Printf("%d, msg %s -> %s",
		msg.When(), msg.ID(), reflect.TypeOf(msg.Target()))
}
