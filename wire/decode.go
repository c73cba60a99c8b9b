package wire

import (
	"math"

	"github.com/keybuk/nih-dbus/dbustype"
)

// Decode reads one value of type t from dec. Decoding is structural
// validation, and the only failure mode is InvalidArgs. On error dec is
// rewound to its position before the call.
func Decode(dec *Decoder, t dbustype.Type) (any, error) {
	mark := dec.mark()
	v, err := decode(dec, t)
	if err != nil {
		dec.rewind(mark)
		return nil, err
	}
	return v, nil
}

func decode(dec *Decoder, t dbustype.Type) (any, error) {
	if err := dec.pad(t.Alignment()); err != nil {
		return nil, err
	}

	switch t.Kind {
	case dbustype.KindByte:
		if err := dec.need(1); err != nil {
			return nil, err
		}
		b := dec.buf[dec.pos]
		dec.pos++
		return b, nil

	case dbustype.KindBoolean:
		u, err := dec.getUint32()
		if err != nil {
			return nil, err
		}
		if u > 1 {
			return nil, invalidArgs("boolean value out of range: %d", u)
		}
		return u == 1, nil

	case dbustype.KindInt16:
		u, err := dec.getUint16()
		if err != nil {
			return nil, err
		}
		return int16(u), nil

	case dbustype.KindUint16:
		return dec.getUint16()

	case dbustype.KindInt32:
		u, err := dec.getUint32()
		if err != nil {
			return nil, err
		}
		return int32(u), nil

	case dbustype.KindUint32:
		return dec.getUint32()

	case dbustype.KindInt64:
		u, err := dec.getUint64()
		if err != nil {
			return nil, err
		}
		return int64(u), nil

	case dbustype.KindUint64:
		return dec.getUint64()

	case dbustype.KindDouble:
		u, err := dec.getUint64()
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(u), nil

	case dbustype.KindString:
		return dec.getString()

	case dbustype.KindObjectPath:
		s, err := dec.getString()
		if err != nil {
			return nil, err
		}
		p := dbustype.ObjectPath(s)
		if !p.Valid() {
			return nil, invalidArgs("invalid object path %q", s)
		}
		return p, nil

	case dbustype.KindSignature:
		return dec.getSignature()

	case dbustype.KindUnixFD:
		u, err := dec.getUint32()
		if err != nil {
			return nil, err
		}
		// The descriptor itself travels out-of-band on the transport;
		// this core only carries the index/value and hands back a fresh
		// handle for the caller to take ownership of or close.
		return dbustype.NewUnixFD(int(u)), nil

	case dbustype.KindArray:
		return decodeArray(dec, t)

	case dbustype.KindStruct:
		return decodeStruct(dec, t)

	case dbustype.KindDictEntry:
		return decodeDictEntryPair(dec, t)

	case dbustype.KindVariant:
		return DecodeVariant(dec)

	default:
		return nil, invalidArgs("unsupported type kind %v", t.Kind)
	}
}

func decodeArray(dec *Decoder, t dbustype.Type) (any, error) {
	length, err := dec.getUint32()
	if err != nil {
		return nil, err
	}
	if length > 64*1024*1024 {
		return nil, invalidArgs("array length %d exceeds maximum", length)
	}
	if err := dec.pad(t.Elem.Alignment()); err != nil {
		return nil, err
	}
	end := dec.pos + int(length)
	if end < dec.pos || end > len(dec.buf) {
		return nil, invalidArgs("array declares %d bytes, buffer does not have them", length)
	}

	if t.Elem.Kind == dbustype.KindDictEntry {
		var entries []DictEntry
		for dec.pos < end {
			v, err := decodeDictEntryPair(dec, *t.Elem)
			if err != nil {
				return nil, err
			}
			entries = append(entries, v.(DictEntry))
		}
		if dec.pos != end {
			return nil, invalidArgs("dict entry decoding overran declared array length")
		}
		return entries, nil
	}

	elems := []any{}
	for dec.pos < end {
		v, err := decode(dec, *t.Elem)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	if dec.pos != end {
		return nil, invalidArgs("element decoding overran declared array length")
	}
	return elems, nil
}

func decodeStruct(dec *Decoder, t dbustype.Type) (any, error) {
	fields := make([]any, len(t.Fields))
	for i, ft := range t.Fields {
		v, err := decode(dec, ft)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	return fields, nil
}

func decodeDictEntryPair(dec *Decoder, t dbustype.Type) (any, error) {
	if err := dec.pad(8); err != nil {
		return nil, err
	}
	key, err := decode(dec, *t.Key)
	if err != nil {
		return nil, err
	}
	value, err := decode(dec, *t.Value)
	if err != nil {
		return nil, err
	}
	return DictEntry{Key: key, Value: value}, nil
}

// DecodeVariant reads a Variant: an inline signature followed by one
// value of that signature.
func DecodeVariant(dec *Decoder) (dbustype.VariantValue, error) {
	sig, err := dec.getSignature()
	if err != nil {
		return dbustype.VariantValue{}, err
	}
	types, err := dbustype.ParseSignature(string(sig))
	if err != nil {
		return dbustype.VariantValue{}, invalidArgs("variant signature %q: %v", sig, err)
	}
	if len(types) != 1 {
		return dbustype.VariantValue{}, invalidArgs("variant must carry exactly one complete type, got %d", len(types))
	}
	v, err := decode(dec, types[0])
	if err != nil {
		return dbustype.VariantValue{}, err
	}
	return dbustype.NewVariant(types[0], v), nil
}

// DecodeArgs decodes the arguments described by sig in order, requiring
// the decoder to be exhausted exactly when the last one is read.
func DecodeArgs(dec *Decoder, sig string) ([]any, error) {
	types, err := dbustype.ParseSignature(sig)
	if err != nil {
		return nil, invalidArgs("argument signature %q: %v", sig, err)
	}
	args := make([]any, len(types))
	for i, t := range types {
		v, err := Decode(dec, t)
		if err != nil {
			return nil, invalidArgs("argument %d: %v", i, err)
		}
		args[i] = v
	}
	if !dec.AtEnd() {
		return nil, invalidArgs("message body has %d trailing bytes beyond declared arguments", dec.Len())
	}
	return args, nil
}

func (d *Decoder) getUint16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	u := byteOrder.Uint16(d.buf[d.pos : d.pos+2])
	d.pos += 2
	return u, nil
}

func (d *Decoder) getUint32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	u := byteOrder.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return u, nil
}

func (d *Decoder) getUint64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	u := byteOrder.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return u, nil
}

func (d *Decoder) getString() (string, error) {
	length, err := d.getUint32()
	if err != nil {
		return "", err
	}
	if err := d.need(int(length) + 1); err != nil {
		return "", err
	}
	s := string(d.buf[d.pos : d.pos+int(length)])
	d.pos += int(length)
	if d.buf[d.pos] != 0 {
		return "", invalidArgs("string not NUL-terminated")
	}
	d.pos++
	return s, nil
}

func (d *Decoder) getSignature() (dbustype.Signature, error) {
	if err := d.need(1); err != nil {
		return "", err
	}
	length := int(d.buf[d.pos])
	d.pos++
	if err := d.need(length + 1); err != nil {
		return "", err
	}
	s := string(d.buf[d.pos : d.pos+length])
	d.pos += length
	if d.buf[d.pos] != 0 {
		return "", invalidArgs("signature not NUL-terminated")
	}
	d.pos++
	return dbustype.Signature(s), nil
}
