// Package dispatchtest provides an in-memory dispatch.Transport pair for
// exercising a Connection without a real socket, grounded on the same
// need bmatsuo/go-dbus's _MessageReceiver/_RunLoop split serves in
// production: a transport that only ever hands Connection whole
// messages, never raw bytes.
package dispatchtest

import (
	"fmt"

	"github.com/keybuk/nih-dbus/wire"
)

// Pipe is an in-memory Transport whose channels buffer up to 16
// messages in each direction. NewPipe returns the two
// ends of one logical connection: messages sent on one are received on
// the other.
type Pipe struct {
	out    chan *wire.Message
	in     <-chan *wire.Message
	closed chan struct{}
}

// NewPipe returns two Transports wired to each other.
func NewPipe() (a, b *Pipe) {
	ab := make(chan *wire.Message, 16)
	ba := make(chan *wire.Message, 16)
	closedA := make(chan struct{})
	closedB := make(chan struct{})
	a = &Pipe{out: ab, in: ba, closed: closedA}
	b = &Pipe{out: ba, in: ab, closed: closedB}
	return a, b
}

func (p *Pipe) Send(msg *wire.Message) error {
	select {
	case p.out <- msg:
		return nil
	case <-p.closed:
		return fmt.Errorf("dispatchtest: pipe closed")
	}
}

func (p *Pipe) Recv() (*wire.Message, error) {
	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.closed:
		return nil, fmt.Errorf("dispatchtest: pipe closed")
	}
}

func (p *Pipe) Close() error {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}
