// Package proxy is the client-side counterpart of package dispatch: a
// ProxyObject stands in for a single remote object the way
// bmatsuo/go-dbus's Object/Interface pair does, but calls and signal
// subscriptions go through dispatch.Connection's serial-correlated
// request/reply machinery instead of a bespoke send loop.
package proxy

import (
	"context"
	"strings"

	"github.com/keybuk/nih-dbus/dbustype"
	"github.com/keybuk/nih-dbus/dispatch"
	"github.com/keybuk/nih-dbus/introspect"
	"github.com/keybuk/nih-dbus/wire"
)

// Object is a handle to a single object path on a single destination,
// reachable over conn.
type Object struct {
	conn        *dispatch.Connection
	destination string
	path        dbustype.ObjectPath
}

// New returns a ProxyObject for destination/path over conn. It does not
// itself perform any I/O — Introspect, Call and ConnectSignal are the
// operations that touch the wire.
func New(conn *dispatch.Connection, destination string, path dbustype.ObjectPath) *Object {
	return &Object{conn: conn, destination: destination, path: path}
}

// Destination returns the bus name this proxy addresses.
func (o *Object) Destination() string { return o.destination }

// Path returns the object path this proxy addresses.
func (o *Object) Path() dbustype.ObjectPath { return o.path }

// Introspect fetches and parses the remote object's introspection XML
// via the standard org.freedesktop.DBus.Introspectable interface.
func (o *Object) Introspect(ctx context.Context) (*introspect.Node, error) {
	reply, err := o.call(ctx, "org.freedesktop.DBus.Introspectable", "Introspect", "")
	if err != nil {
		return nil, err
	}
	args, err := reply.Args()
	if err != nil {
		return nil, err
	}
	xmlText, _ := args[0].(string)
	return introspect.Load(strings.NewReader(xmlText))
}

// Call invokes interfaceName/member synchronously, blocking for a reply.
// args are encoded against inSig; the returned slice is decoded against
// outSig.
func (o *Object) Call(ctx context.Context, interfaceName, member, inSig string, outSig string, args ...any) ([]any, error) {
	reply, err := o.call(ctx, interfaceName, member, inSig, args...)
	if err != nil {
		return nil, err
	}
	if outSig == "" {
		return nil, nil
	}
	return wire.DecodeArgs(wire.NewDecoder(reply.Body), outSig)
}

// CallAsyncFunc is invoked with a method's decoded out-arguments, or an
// error, once CallAsync's call completes.
type CallAsyncFunc func(args []any, err error)

// CallAsync invokes interfaceName/member without blocking the caller:
// the call runs on its own goroutine and fn is invoked with the result
// when it completes. The generated client proxies do not call it: they
// emit no method at all for a method marked org.nih.Method.Async.
func (o *Object) CallAsync(ctx context.Context, interfaceName, member, inSig, outSig string, fn CallAsyncFunc, args ...any) {
	go func() {
		result, err := o.Call(ctx, interfaceName, member, inSig, outSig, args...)
		fn(result, err)
	}()
}

func (o *Object) call(ctx context.Context, interfaceName, member, inSig string, args ...any) (*wire.Message, error) {
	msg := &wire.Message{
		Path:        o.path,
		Interface:   interfaceName,
		Member:      member,
		Destination: o.destination,
	}
	if err := wire.SetArgs(msg, inSig, args...); err != nil {
		return nil, err
	}
	return o.conn.Call(ctx, msg)
}

// SignalFunc receives a signal's decoded arguments.
type SignalFunc func(args []any)

// ConnectSignal subscribes fn to deliveries of interfaceName/member at
// this proxy's path, mirroring the generated *_connect client stub. The
// signal's sender is not compared with the proxy's destination, and a
// signal whose body does not decode against sig is dropped.
func (o *Object) ConnectSignal(interfaceName, member, sig string, fn SignalFunc) {
	o.conn.Subscribe(interfaceName, member, o.path, func(msg *wire.Message) {
		args, err := wire.DecodeArgs(wire.NewDecoder(msg.Body), sig)
		if err != nil {
			return
		}
		fn(args)
	})
}
