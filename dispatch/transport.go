// Package dispatch is the Dispatch Framework: it routes an incoming
// method call to a ServerObject's handler, correlates outgoing method
// calls with their replies, and fans signals out to subscribers.
//
// Grounded on bmatsuo/go-dbus's Connection: its _RunLoop/_MessageDispatch
// pair (read loop handing off to a dispatch switch on message type) and
// its _SendSync (serial-keyed channel correlation for a synchronous
// call) are the shape this package generalizes. Structural validation
// before a handler ever runs is grounded on godbus/dbus's export.go
// handleCall, adapted here to dispatch through a generator-emitted
// static table instead of reflect.Value.MethodByName.
package dispatch

import "github.com/keybuk/nih-dbus/wire"

// Transport is the minimum a message channel must support for Connection
// to drive it. Framing the Message onto an actual socket — byte order,
// fixed header layout, credential passing for UnixFD — is the concrete
// Transport implementation's job; this core only needs Send/Recv.
type Transport interface {
	Send(msg *wire.Message) error
	Recv() (*wire.Message, error)
	Close() error
}
