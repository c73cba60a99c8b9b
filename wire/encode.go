package wire

import (
	"math"

	"github.com/keybuk/nih-dbus/dbustype"
)

// DictEntry is the host representation of one Array(DictEntry(K,V))
// element. Entries are kept as an ordered slice rather than a Go map,
// since duplicate keys must be preserved rather than merged, which a
// map cannot express.
type DictEntry struct {
	Key   any
	Value any
}

// Encode appends one value of type t to enc. Each call appends exactly
// one value at the current position; on error the encoder is truncated
// back to its state before the call, so a partially-built container
// never escapes onto the outbound message.
func Encode(enc *Encoder, t dbustype.Type, v any) error {
	mark := enc.mark()
	if err := encode(enc, t, v); err != nil {
		enc.truncate(mark)
		return err
	}
	return nil
}

func encode(enc *Encoder, t dbustype.Type, v any) error {
	enc.pad(t.Alignment())

	switch t.Kind {
	case dbustype.KindByte:
		b, ok := v.(byte)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.buf = append(enc.buf, b)

	case dbustype.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return typeMismatch(t, v)
		}
		u := uint32(0)
		if b {
			u = 1
		}
		enc.putUint32(u)

	case dbustype.KindInt16:
		n, ok := v.(int16)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putUint16(uint16(n))

	case dbustype.KindUint16:
		n, ok := v.(uint16)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putUint16(n)

	case dbustype.KindInt32:
		n, ok := v.(int32)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putUint32(uint32(n))

	case dbustype.KindUint32:
		n, ok := v.(uint32)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putUint32(n)

	case dbustype.KindInt64:
		n, ok := v.(int64)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putUint64(uint64(n))

	case dbustype.KindUint64:
		n, ok := v.(uint64)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putUint64(n)

	case dbustype.KindDouble:
		f, ok := v.(float64)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putUint64(math.Float64bits(f))

	case dbustype.KindString:
		s, ok := v.(string)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putString(s)

	case dbustype.KindObjectPath:
		p, ok := v.(dbustype.ObjectPath)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putString(string(p))

	case dbustype.KindSignature:
		s, ok := v.(dbustype.Signature)
		if !ok {
			return typeMismatch(t, v)
		}
		if len(s) > 255 {
			return invalidArgs("signature exceeds 255 bytes")
		}
		enc.buf = append(enc.buf, byte(len(s)))
		enc.buf = append(enc.buf, []byte(s)...)
		enc.buf = append(enc.buf, 0)

	case dbustype.KindUnixFD:
		fd, ok := v.(*dbustype.UnixFD)
		if !ok {
			return typeMismatch(t, v)
		}
		enc.putUint32(uint32(fd.Fd()))

	case dbustype.KindArray:
		return encodeArray(enc, t, v)

	case dbustype.KindStruct:
		return encodeStruct(enc, t, v)

	case dbustype.KindDictEntry:
		return encodeDictEntry(enc, t, v)

	case dbustype.KindVariant:
		vv, ok := v.(dbustype.VariantValue)
		if !ok {
			return typeMismatch(t, v)
		}
		return EncodeVariant(enc, vv)

	default:
		return invalidArgs("unsupported type kind %v", t.Kind)
	}
	return nil
}

func encodeArray(enc *Encoder, t dbustype.Type, v any) error {
	// The array length prefix is itself 4-byte aligned; element data
	// that needs 8-byte alignment still pads relative to the start of
	// the whole message, so the length must be backpatched once the
	// element count is known.
	lenPos := len(enc.buf)
	enc.putUint32(0)
	enc.pad(t.Elem.Alignment())
	dataStart := len(enc.buf)

	if t.Elem.Kind == dbustype.KindDictEntry {
		entries, ok := v.([]DictEntry)
		if !ok {
			return typeMismatch(t, v)
		}
		for _, de := range entries {
			if err := encodeDictEntryPair(enc, *t.Elem, de); err != nil {
				return err
			}
		}
	} else {
		elems, ok := v.([]any)
		if !ok {
			return typeMismatch(t, v)
		}
		for _, elem := range elems {
			if err := encode(enc, *t.Elem, elem); err != nil {
				return err
			}
		}
	}

	length := len(enc.buf) - dataStart
	byteOrder.PutUint32(enc.buf[lenPos:lenPos+4], uint32(length))
	return nil
}

func encodeStruct(enc *Encoder, t dbustype.Type, v any) error {
	fields, ok := v.([]any)
	if !ok {
		return typeMismatch(t, v)
	}
	if len(fields) != len(t.Fields) {
		return invalidArgs("struct expects %d fields, got %d", len(t.Fields), len(fields))
	}
	for i, ft := range t.Fields {
		if err := encode(enc, ft, fields[i]); err != nil {
			return err
		}
	}
	return nil
}

func encodeDictEntry(enc *Encoder, t dbustype.Type, v any) error {
	de, ok := v.(DictEntry)
	if !ok {
		return typeMismatch(t, v)
	}
	return encodeDictEntryPair(enc, t, de)
}

func encodeDictEntryPair(enc *Encoder, t dbustype.Type, de DictEntry) error {
	enc.pad(8)
	if err := encode(enc, *t.Key, de.Key); err != nil {
		return err
	}
	return encode(enc, *t.Value, de.Value)
}

// EncodeVariant wraps a value in a Variant carrying its runtime
// signature.
func EncodeVariant(enc *Encoder, vv dbustype.VariantValue) error {
	sig := dbustype.Signature(vv.Sig.Signature())
	if err := encode(enc, dbustype.Basic(dbustype.KindSignature), sig); err != nil {
		return err
	}
	return encode(enc, vv.Sig, vv.Value)
}

func (e *Encoder) putUint16(n uint16) {
	var b [2]byte
	byteOrder.PutUint16(b[:], n)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) putUint32(n uint32) {
	var b [4]byte
	byteOrder.PutUint32(b[:], n)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) putUint64(n uint64) {
	var b [8]byte
	byteOrder.PutUint64(b[:], n)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) putString(s string) {
	e.putUint32(uint32(len(s)))
	e.buf = append(e.buf, []byte(s)...)
	e.buf = append(e.buf, 0)
}

func typeMismatch(t dbustype.Type, v any) error {
	return invalidArgs("expected host value for %s, got %T", t.Signature(), v)
}
