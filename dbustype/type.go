// Package dbustype is the source of truth for the D-Bus type system: the
// closed set of basic and container types, their wire signature strings,
// and the alignment rules the marshalling runtime needs to pad containers
// correctly.
package dbustype

import (
	"fmt"
	"strings"
)

// Kind tags a D-Bus type.
type Kind byte

const (
	// KindInvalid marks the zero Type; never appears in a valid signature.
	KindInvalid Kind = iota
	KindByte
	KindBoolean
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindDouble
	KindString
	KindObjectPath
	KindSignature
	KindUnixFD
	KindArray
	KindStruct
	KindDictEntry
	KindVariant
)

// letter is the wire signature character for each basic Kind, and the
// opening character for each container Kind.
var letter = map[Kind]byte{
	KindByte:       'y',
	KindBoolean:    'b',
	KindInt16:      'n',
	KindUint16:     'q',
	KindInt32:      'i',
	KindUint32:     'u',
	KindInt64:      'x',
	KindUint64:     't',
	KindDouble:     'd',
	KindString:     's',
	KindObjectPath: 'o',
	KindSignature:  'g',
	KindUnixFD:     'h',
	KindArray:      'a',
	KindStruct:     '(',
	KindDictEntry:  '{',
	KindVariant:    'v',
}

var kindFromLetter = func() map[byte]Kind {
	m := make(map[byte]Kind, len(letter))
	for k, b := range letter {
		if k == KindStruct || k == KindDictEntry {
			continue // structural brackets, handled separately by the parser
		}
		m[b] = k
	}
	return m
}()

// alignment is the byte boundary each Kind must start on in the wire
// encoding. Struct and DictEntry always align to 8, matching the largest
// member alignment the D-Bus spec allows for a container boundary.
var alignment = map[Kind]int{
	KindByte:       1,
	KindBoolean:    4,
	KindInt16:      2,
	KindUint16:     2,
	KindInt32:      4,
	KindUint32:     4,
	KindInt64:      8,
	KindUint64:     8,
	KindDouble:     8,
	KindString:     4,
	KindObjectPath: 4,
	KindSignature:  1,
	KindUnixFD:     4,
	KindArray:      4,
	KindStruct:     8,
	KindDictEntry:  8,
	KindVariant:    1,
}

// Type is a single D-Bus type: a basic type, or a container type with its
// nested Types. The zero Type is invalid; use the Basic/ArrayOf/StructOf/
// DictEntryOf constructors or the Variant value.
type Type struct {
	Kind Kind

	// Elem is the element type of an Array.
	Elem *Type

	// Fields are the member types of a Struct, n >= 1.
	Fields []Type

	// Key and Value are the key/value types of a DictEntry. Key must be
	// a basic type.
	Key   *Type
	Value *Type
}

// Basic returns the Type for a basic (non-container) Kind. It panics if
// kind is a container kind or KindInvalid.
func Basic(kind Kind) Type {
	switch kind {
	case KindArray, KindStruct, KindDictEntry, KindVariant, KindInvalid:
		panic(fmt.Sprintf("dbustype: %v is not a basic kind", kind))
	}
	return Type{Kind: kind}
}

// ArrayOf builds an Array(elem) Type.
func ArrayOf(elem Type) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e}
}

// StructOf builds a Struct(fields...) Type. Panics if fields is empty.
func StructOf(fields ...Type) Type {
	if len(fields) == 0 {
		panic("dbustype: struct type must have at least one field")
	}
	return Type{Kind: KindStruct, Fields: append([]Type(nil), fields...)}
}

// DictEntryOf builds a DictEntry(key, value) Type. Panics if key is not a
// basic type, per the D-Bus grammar.
func DictEntryOf(key, value Type) Type {
	if !key.IsBasic() {
		panic("dbustype: dict-entry key must be a basic type")
	}
	k, v := key, value
	return Type{Kind: KindDictEntry, Key: &k, Value: &v}
}

// Variant is the Type for a boxed, type-tagged D-Bus value.
var Variant = Type{Kind: KindVariant}

// IsBasic reports whether t is a basic (leaf) type.
func (t Type) IsBasic() bool {
	switch t.Kind {
	case KindArray, KindStruct, KindDictEntry:
		return false
	default:
		return t.Kind != KindInvalid
	}
}

// Alignment returns the wire alignment boundary for t.
func (t Type) Alignment() int {
	if t.Kind == KindDictEntry {
		// A lone DictEntry (as opposed to one inside an Array) still
		// aligns like a struct.
		return alignment[KindStruct]
	}
	return alignment[t.Kind]
}

// Signature returns the canonical wire signature string for t.
func (t Type) Signature() string {
	var b strings.Builder
	t.writeSignature(&b)
	return b.String()
}

func (t Type) writeSignature(b *strings.Builder) {
	switch t.Kind {
	case KindArray:
		b.WriteByte('a')
		t.Elem.writeSignature(b)
	case KindStruct:
		b.WriteByte('(')
		for _, f := range t.Fields {
			f.writeSignature(b)
		}
		b.WriteByte(')')
	case KindDictEntry:
		b.WriteByte('{')
		t.Key.writeSignature(b)
		t.Value.writeSignature(b)
		b.WriteByte('}')
	default:
		b.WriteByte(letter[t.Kind])
	}
}

// SignatureOf concatenates the signatures of a sequence of Types, as used
// for a method's input/output signature or a signal's signature.
func SignatureOf(types []Type) string {
	var b strings.Builder
	for _, t := range types {
		t.writeSignature(&b)
	}
	return b.String()
}

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindDictEntry:
		return "dict-entry"
	case KindVariant:
		return "variant"
	default:
		if b, ok := letter[k]; ok {
			return string(b)
		}
		return "unknown"
	}
}
