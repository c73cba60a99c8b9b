package dispatch

import (
	"sync/atomic"

	"github.com/keybuk/nih-dbus/wire"
)

// CallContext carries one in-flight method call from Route through to
// its single reply. A synchronous handler replies before returning; an
// async handler (introspect.Method.Async) takes ownership of the
// CallContext and may reply from another goroutine at its own pace, but
// either way Reply/ReplyError may only succeed once — a second attempt
// returns ErrAlreadyReplied rather than sending a second reply onto the
// wire.
type CallContext struct {
	conn    *Connection
	call    *wire.Message
	replied atomic.Bool
}

func newCallContext(conn *Connection, call *wire.Message) *CallContext {
	return &CallContext{conn: conn, call: call}
}

// Call returns the inbound method_call message this context answers.
func (c *CallContext) Call() *wire.Message { return c.call }

// Reply sends a method_return with the given out-signature and
// arguments. It returns ErrAlreadyReplied without sending anything if
// the call has already been answered. If the caller set NoReplyExpected
// it sends nothing and returns nil, and the call counts as answered.
func (c *CallContext) Reply(outSig string, args ...any) error {
	if !c.replied.CompareAndSwap(false, true) {
		return ErrAlreadyReplied
	}
	if !c.call.Flags.WantReply() {
		return nil
	}
	reply := &wire.Message{
		Type:        wire.TypeMethodReturn,
		ReplySerial: c.call.Serial,
		Destination: c.call.Sender,
	}
	if err := wire.SetArgs(reply, outSig, args...); err != nil {
		return err
	}
	return c.conn.send(reply)
}

// ReplyError sends an error reply naming name with the given message.
// Like Reply, it may only be called once per CallContext.
func (c *CallContext) ReplyError(name, message string) error {
	if !c.replied.CompareAndSwap(false, true) {
		return ErrAlreadyReplied
	}
	if !c.call.Flags.WantReply() {
		return nil
	}
	reply := &wire.Message{
		Type:        wire.TypeError,
		ReplySerial: c.call.Serial,
		Destination: c.call.Sender,
		ErrorName:   name,
	}
	if message != "" {
		if err := wire.SetArgs(reply, "s", message); err != nil {
			return err
		}
	}
	return c.conn.send(reply)
}
