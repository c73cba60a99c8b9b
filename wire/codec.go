// Package wire is the Marshalling Runtime: for every dbustype.Type it
// implements the {encode host-value -> wire iterator, decode wire
// iterator -> host-value} pair, plus the symmetric Variant-wrapping
// operation used by property Get/Set.
//
// Grounded on the encode/decode loop shape of godbus/dbus's export.go
// (structural validation before a handler ever runs) and on
// danderson/dbus's fragments.Encoder/Decoder (container open/close
// discipline and wire alignment), generalized here onto this repo's own
// dbustype.Type instead of reflect.Type.
package wire

import (
	"encoding/binary"
	"fmt"
)

// ErrInvalidArgs is returned whenever a decode fails structural
// validation against the declared type.
var ErrInvalidArgs = fmt.Errorf("wire: invalid arguments")

// InvalidArgsError wraps ErrInvalidArgs with a human-readable reason,
// so dispatch can report which argument was at fault.
type InvalidArgsError struct {
	Reason string
}

func (e *InvalidArgsError) Error() string { return "wire: invalid arguments: " + e.Reason }
func (e *InvalidArgsError) Unwrap() error { return ErrInvalidArgs }

func invalidArgs(format string, args ...any) error {
	return &InvalidArgsError{Reason: fmt.Sprintf(format, args...)}
}

// byteOrder is the single wire byte order this core encodes with. Real
// D-Bus messages carry a byte-order-mark and may arrive in either
// order; converting between them is the underlying transport's job, so
// the runtime here always speaks one order internally.
var byteOrder binary.ByteOrder = binary.LittleEndian

// Encoder appends D-Bus wire-format values to an in-memory buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with an empty buffer.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded buffer so far.
func (e *Encoder) Bytes() []byte { return e.buf }

// mark returns a checkpoint that truncate can roll back to, so a
// partially opened container can be abandoned cleanly on failure.
func (e *Encoder) mark() int { return len(e.buf) }

func (e *Encoder) truncate(mark int) { e.buf = e.buf[:mark] }

func (e *Encoder) pad(align int) {
	for len(e.buf)%align != 0 {
		e.buf = append(e.buf, 0)
	}
}

// Decoder reads D-Bus wire-format values from a fixed buffer.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Len reports the number of unread bytes remaining.
func (d *Decoder) Len() int { return len(d.buf) - d.pos }

// AtEnd reports whether the decoder has consumed the entire buffer.
func (d *Decoder) AtEnd() bool { return d.pos >= len(d.buf) }

func (d *Decoder) mark() int { return d.pos }

func (d *Decoder) rewind(mark int) { d.pos = mark }

func (d *Decoder) pad(align int) error {
	for d.pos%align != 0 {
		if d.pos >= len(d.buf) {
			return invalidArgs("truncated padding")
		}
		if d.buf[d.pos] != 0 {
			return invalidArgs("non-zero padding byte")
		}
		d.pos++
	}
	return nil
}

func (d *Decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return invalidArgs("truncated value: need %d bytes, have %d", n, len(d.buf)-d.pos)
	}
	return nil
}
