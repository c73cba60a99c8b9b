// Package gen is the Code Generator: it turns a parsed introspect.Node
// into Go source implementing the interfaces it describes, emitting a
// typed dispatch-table registration function per interface for the
// server side and a typed proxy wrapper per interface for the client
// side.
//
// Grounded on chromeos-dbus-bindings-go's adaptor/proxy generators: the
// per-member name-mangling table (one name per role: the plain call, the
// async variant, the property getter/setter, the signal emitter/
// connector) is the same idea as that generator's makeMethodArgs/
// makeMethodRetType role switch, adapted from C++ naming (snake_case
// with a role suffix) onto Go naming (CamelCase with a role prefix or
// suffix, since Go exported identifiers are conventionally CamelCase).
package gen

import (
	"strings"
	"unicode"
)

// Mangle converts a D-Bus member name (interface, method, signal or
// property name — already restricted to the member grammar's
// [A-Za-z_][A-Za-z0-9_]*) into an exported Go identifier. Names
// described by the introspection grammar are already valid Go
// identifiers modulo casing, so Mangle only has to fix up the first
// rune.
func Mangle(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// InterfaceGoName derives the Go type-name prefix for an interface from
// its last dotted component, e.g. "com.netsplit.Nih.Test" -> "Test".
func InterfaceGoName(interfaceName string) string {
	parts := strings.Split(interfaceName, ".")
	return Mangle(parts[len(parts)-1])
}

// SyncMethodName is the name of the exported method a Server interface
// carries for a synchronous D-Bus method.
func SyncMethodName(method string) string { return Mangle(method) }

// AsyncMethodName is the name of the exported method a Server interface
// carries for a method marked with the async annotation: it takes a
// *dispatch.CallContext instead of returning values directly.
func AsyncMethodName(method string) string { return Mangle(method) + "Async" }

// PropertyGetterName is the name of the exported Go method a Server
// interface carries to read a property.
func PropertyGetterName(property string) string { return "Get" + Mangle(property) }

// PropertySetterName is the name of the exported Go method a Server
// interface carries to write a property.
func PropertySetterName(property string) string { return "Set" + Mangle(property) }

// SignalEmitName is the name for a helper that encodes and emits a
// signal. buildModel records it, but neither generator template emits
// such a helper; signals are sent with dispatch.Connection.Emit.
func SignalEmitName(signal string) string { return "Emit" + Mangle(signal) }

// SignalConnectName is the name of the exported proxy-side helper that
// subscribes a callback to a signal.
func SignalConnectName(signal string) string { return "Connect" + Mangle(signal) }
