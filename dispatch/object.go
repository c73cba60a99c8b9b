package dispatch

import (
	"github.com/keybuk/nih-dbus/dbustype"
	"github.com/keybuk/nih-dbus/introspect"
)

// SyncMethodHandler answers a method call before returning: its return
// values become the method_return body in declared out-argument order.
type SyncMethodHandler func(ctx *CallContext, args []any) ([]any, error)

// AsyncMethodHandler takes ownership of ctx and answers it later, from
// any goroutine, via ctx.Reply or ctx.ReplyError. Route never replies on
// its behalf.
type AsyncMethodHandler func(ctx *CallContext, args []any)

type methodEntry struct {
	method *introspect.Method
	sync   SyncMethodHandler
	async  AsyncMethodHandler
}

// PropertyHandler backs one read/write D-Bus property.
type PropertyHandler struct {
	Get func() (any, error)
	Set func(v any) error
}

// ServerObject is a single object path's worth of interfaces, each
// backed by a generator-emitted static dispatch table: a
// map[string]methodEntry built once at registration time and never
// mutated again, which is how this core answers a method call without
// any reflection over the handler's Go type.
type ServerObject struct {
	Path dbustype.ObjectPath
	Node *introspect.Node

	methods    map[string]map[string]methodEntry
	properties map[string]map[string]PropertyHandler
}

// NewServerObject builds an (initially handler-less) ServerObject for
// path, using node for the method/signal/property signatures that Route
// validates calls against. Call RegisterMethod/RegisterProperty (the
// generator emits these calls) to wire in behavior.
func NewServerObject(path dbustype.ObjectPath, node *introspect.Node) *ServerObject {
	return &ServerObject{
		Path:       path,
		Node:       node,
		methods:    make(map[string]map[string]methodEntry),
		properties: make(map[string]map[string]PropertyHandler),
	}
}

// RegisterMethod wires a handler for interfaceName/methodName. Exactly
// one of sync/async must be non-nil, matching the method's Async
// annotation; passing the wrong kind is a programmer error caught by
// Route returning Failed the first time the method is called, not by a
// panic at registration time, since the generator is expected to get
// this right and a misregistration should fail loudly but not bring
// down the process hosting many objects.
func (o *ServerObject) RegisterMethod(interfaceName, methodName string, sync SyncMethodHandler, async AsyncMethodHandler) {
	iface, ok := o.Node.LookupInterface(interfaceName)
	if !ok {
		return
	}
	m, ok := iface.LookupMethod(methodName)
	if !ok {
		return
	}
	table, ok := o.methods[interfaceName]
	if !ok {
		table = make(map[string]methodEntry)
		o.methods[interfaceName] = table
	}
	table[methodName] = methodEntry{method: m, sync: sync, async: async}
}

// RegisterProperty wires a PropertyHandler for interfaceName/propName.
// Get must be set if the property is Readable, Set if it is Writable;
// Route enforces that against the introspected Access mode regardless
// of what the handler itself implements.
func (o *ServerObject) RegisterProperty(interfaceName, propName string, handler PropertyHandler) {
	table, ok := o.properties[interfaceName]
	if !ok {
		table = make(map[string]PropertyHandler)
		o.properties[interfaceName] = table
	}
	table[propName] = handler
}

func (o *ServerObject) lookupMethod(interfaceName, methodName string) (methodEntry, bool) {
	table, ok := o.methods[interfaceName]
	if !ok {
		return methodEntry{}, false
	}
	e, ok := table[methodName]
	return e, ok
}

func (o *ServerObject) lookupProperty(interfaceName, propName string) (PropertyHandler, bool) {
	table, ok := o.properties[interfaceName]
	if !ok {
		return PropertyHandler{}, false
	}
	h, ok := table[propName]
	return h, ok
}

// findMethod resolves a method call that may arrive without an
// Interface field set (D-Bus permits this when the member name is
// unambiguous) by scanning every interface at the object for a matching
// method name.
func (o *ServerObject) findMethod(interfaceName, methodName string) (string, methodEntry, bool) {
	if interfaceName != "" {
		e, ok := o.lookupMethod(interfaceName, methodName)
		return interfaceName, e, ok
	}
	for name, table := range o.methods {
		if e, ok := table[methodName]; ok {
			return name, e, true
		}
	}
	return "", methodEntry{}, false
}
