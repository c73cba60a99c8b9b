package gen

import "github.com/keybuk/nih-dbus/dbustype"

// goType returns the Go source type an argument of t is represented as
// in generated method signatures. Basic types map onto a concrete Go
// type; containers map onto the same dynamically-typed host
// representation the wire package itself decodes them into, since a
// fully static Go type for an arbitrary nested signature is outside
// this generator's scope (see DESIGN.md).
func goType(t dbustype.Type) string {
	switch t.Kind {
	case dbustype.KindByte:
		return "byte"
	case dbustype.KindBoolean:
		return "bool"
	case dbustype.KindInt16:
		return "int16"
	case dbustype.KindUint16:
		return "uint16"
	case dbustype.KindInt32:
		return "int32"
	case dbustype.KindUint32:
		return "uint32"
	case dbustype.KindInt64:
		return "int64"
	case dbustype.KindUint64:
		return "uint64"
	case dbustype.KindDouble:
		return "float64"
	case dbustype.KindString:
		return "string"
	case dbustype.KindObjectPath:
		return "dbustype.ObjectPath"
	case dbustype.KindSignature:
		return "dbustype.Signature"
	case dbustype.KindUnixFD:
		return "*dbustype.UnixFD"
	case dbustype.KindVariant:
		return "dbustype.VariantValue"
	case dbustype.KindArray:
		if t.Elem != nil && t.Elem.Kind == dbustype.KindDictEntry {
			return "[]wire.DictEntry"
		}
		return "[]any"
	case dbustype.KindStruct:
		return "[]any"
	default:
		return "any"
	}
}
