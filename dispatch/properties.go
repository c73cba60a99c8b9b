package dispatch

import (
	"github.com/keybuk/nih-dbus/dbustype"
	"github.com/keybuk/nih-dbus/introspect"
	"github.com/keybuk/nih-dbus/wire"
)

// PropertiesInterfaceName is the standard interface a ServerObject
// implementing properties must also answer Get/Set/GetAll on.
const PropertiesInterfaceName = "org.freedesktop.DBus.Properties"

// InstallPropertiesInterface wires Get/Set/GetAll handlers for every
// interface obj has registered properties for, onto
// org.freedesktop.DBus.Properties. obj.Node must describe that
// interface (its three methods have signature (ss)->v, (ssv)->(),
// (s)->a{sv}) — callers typically load it once from a shared
// introspection fragment and merge it into every object's node.
func InstallPropertiesInterface(obj *ServerObject) {
	obj.RegisterMethod(PropertiesInterfaceName, "Get", obj.propertiesGet, nil)
	obj.RegisterMethod(PropertiesInterfaceName, "Set", obj.propertiesSet, nil)
	obj.RegisterMethod(PropertiesInterfaceName, "GetAll", obj.propertiesGetAll, nil)
}

func (o *ServerObject) propertiesGet(ctx *CallContext, args []any) ([]any, error) {
	interfaceName, _ := args[0].(string)
	propName, _ := args[1].(string)

	prop, propType, err := o.lookupPropertyType(interfaceName, propName)
	if err != nil {
		return nil, err
	}
	if !prop.Readable() {
		return nil, NewDomainError(ErrorNameInvalidArgs, "property is not readable: "+propName)
	}
	handler, ok := o.lookupProperty(interfaceName, propName)
	if !ok || handler.Get == nil {
		return nil, NewDomainError(ErrorNameUnknownProperty, "property has no reader: "+propName)
	}
	v, err := handler.Get()
	if err != nil {
		return nil, err
	}
	return []any{dbustype.NewVariant(propType, v)}, nil
}

func (o *ServerObject) propertiesSet(ctx *CallContext, args []any) ([]any, error) {
	interfaceName, _ := args[0].(string)
	propName, _ := args[1].(string)
	vv, ok := args[2].(dbustype.VariantValue)
	if !ok {
		return nil, NewDomainError(ErrorNameInvalidArgs, "Set value is not a variant")
	}

	prop, propType, err := o.lookupPropertyType(interfaceName, propName)
	if err != nil {
		return nil, err
	}
	if !prop.Writable() {
		return nil, NewDomainError(ErrorNameInvalidArgs, "property is not writable: "+propName)
	}
	if vv.Sig.Signature() != propType.Signature() {
		return nil, NewDomainError(ErrorNameInvalidArgs, "Set value signature "+vv.Sig.Signature()+" does not match declared "+propType.Signature())
	}
	handler, ok := o.lookupProperty(interfaceName, propName)
	if !ok || handler.Set == nil {
		return nil, NewDomainError(ErrorNameUnknownProperty, "property has no writer: "+propName)
	}
	return nil, handler.Set(vv.Value)
}

func (o *ServerObject) propertiesGetAll(ctx *CallContext, args []any) ([]any, error) {
	interfaceName, _ := args[0].(string)
	iface, ok := o.Node.LookupInterface(interfaceName)
	if !ok {
		return nil, NewDomainError(ErrorNameUnknownInterface, "unknown interface "+interfaceName)
	}

	var entries []wire.DictEntry
	for i := range iface.Properties {
		p := &iface.Properties[i]
		if !p.Readable() {
			continue
		}
		handler, ok := o.lookupProperty(interfaceName, p.Name)
		if !ok || handler.Get == nil {
			continue
		}
		v, err := handler.Get()
		if err != nil {
			return nil, err
		}
		propType, err := dbustype.ParseSingle(p.Type)
		if err != nil {
			return nil, err
		}
		entries = append(entries, wire.DictEntry{Key: p.Name, Value: dbustype.NewVariant(propType, v)})
	}
	return []any{entries}, nil
}

func (o *ServerObject) lookupPropertyType(interfaceName, propName string) (*introspect.Property, dbustype.Type, error) {
	iface, ok := o.Node.LookupInterface(interfaceName)
	if !ok {
		return nil, dbustype.Type{}, NewDomainError(ErrorNameUnknownInterface, "unknown interface "+interfaceName)
	}
	p, ok := iface.LookupProperty(propName)
	if !ok {
		return nil, dbustype.Type{}, NewDomainError(ErrorNameUnknownProperty, "unknown property "+propName)
	}
	t, err := dbustype.ParseSingle(p.Type)
	if err != nil {
		return nil, dbustype.Type{}, NewDomainError(ErrorNameInvalidArgs, "property has invalid declared type: "+err.Error())
	}
	return p, t, nil
}
