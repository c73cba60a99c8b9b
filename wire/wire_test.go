package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keybuk/nih-dbus/dbustype"
)

func roundTrip(t *testing.T, typ dbustype.Type, v any) any {
	t.Helper()
	enc := NewEncoder()
	require.NoError(t, Encode(enc, typ, v))
	dec := NewDecoder(enc.Bytes())
	got, err := Decode(dec, typ)
	require.NoError(t, err)
	assert.True(t, dec.AtEnd())
	return got
}

func TestRoundTripBasics(t *testing.T) {
	assert.Equal(t, byte(7), roundTrip(t, dbustype.Basic(dbustype.KindByte), byte(7)))
	assert.Equal(t, true, roundTrip(t, dbustype.Basic(dbustype.KindBoolean), true))
	assert.Equal(t, int16(-5), roundTrip(t, dbustype.Basic(dbustype.KindInt16), int16(-5)))
	assert.Equal(t, uint32(42), roundTrip(t, dbustype.Basic(dbustype.KindUint32), uint32(42)))
	assert.Equal(t, int64(-1), roundTrip(t, dbustype.Basic(dbustype.KindInt64), int64(-1)))
	assert.Equal(t, 3.5, roundTrip(t, dbustype.Basic(dbustype.KindDouble), 3.5))
	assert.Equal(t, "hello", roundTrip(t, dbustype.Basic(dbustype.KindString), "hello"))
	assert.Equal(t, dbustype.ObjectPath("/a/b"), roundTrip(t, dbustype.Basic(dbustype.KindObjectPath), dbustype.ObjectPath("/a/b")))
	assert.Equal(t, dbustype.Signature("ai"), roundTrip(t, dbustype.Basic(dbustype.KindSignature), dbustype.Signature("ai")))
}

func TestRoundTripArray(t *testing.T) {
	typ := dbustype.ArrayOf(dbustype.Basic(dbustype.KindInt32))
	got := roundTrip(t, typ, []any{int32(1), int32(2), int32(3)})
	assert.Equal(t, []any{int32(1), int32(2), int32(3)}, got)
}

func TestRoundTripEmptyArray(t *testing.T) {
	typ := dbustype.ArrayOf(dbustype.Basic(dbustype.KindString))
	enc := NewEncoder()
	require.NoError(t, Encode(enc, typ, []any{}))
	dec := NewDecoder(enc.Bytes())
	got, err := Decode(dec, typ)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRoundTripStruct(t *testing.T) {
	typ := dbustype.StructOf(dbustype.Basic(dbustype.KindString), dbustype.Basic(dbustype.KindUint32))
	got := roundTrip(t, typ, []any{"abc", uint32(9)})
	assert.Equal(t, []any{"abc", uint32(9)}, got)
}

func TestRoundTripStructWrongArity(t *testing.T) {
	typ := dbustype.StructOf(dbustype.Basic(dbustype.KindString), dbustype.Basic(dbustype.KindUint32))
	enc := NewEncoder()
	err := Encode(enc, typ, []any{"abc"})
	require.Error(t, err)
	assert.Empty(t, enc.Bytes(), "a failed encode must leave no partial container behind")
}

func TestRoundTripArrayOfStruct(t *testing.T) {
	typ := dbustype.ArrayOf(dbustype.StructOf(dbustype.Basic(dbustype.KindString), dbustype.Basic(dbustype.KindUint32)))
	want := []any{
		[]any{"a", uint32(1)},
		[]any{"b", uint32(2)},
	}
	got := roundTrip(t, typ, want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("array-of-struct round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripDict(t *testing.T) {
	typ := dbustype.ArrayOf(dbustype.DictEntryOf(dbustype.Basic(dbustype.KindString), dbustype.Basic(dbustype.KindUint32)))
	entries := []DictEntry{
		{Key: "a", Value: uint32(1)},
		{Key: "b", Value: uint32(2)},
		{Key: "a", Value: uint32(3)}, // duplicate key, must survive intact
	}
	got := roundTrip(t, typ, entries)
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("dict round trip mismatch, duplicate keys must survive intact (-want +got):\n%s", diff)
	}
}

func TestRoundTripVariant(t *testing.T) {
	vv := dbustype.NewVariant(dbustype.Basic(dbustype.KindString), "payload")
	got := roundTrip(t, dbustype.Variant, vv)
	assert.Equal(t, vv, got)
}

func TestRoundTripVariantOfContainer(t *testing.T) {
	inner := dbustype.ArrayOf(dbustype.Basic(dbustype.KindInt32))
	vv := dbustype.NewVariant(inner, []any{int32(1), int32(2)})
	got := roundTrip(t, dbustype.Variant, vv)
	assert.Equal(t, vv, got)
}

func TestDecodeArgsStrictness(t *testing.T) {
	enc := NewEncoder()
	require.NoError(t, Encode(enc, dbustype.Basic(dbustype.KindString), "one"))
	require.NoError(t, Encode(enc, dbustype.Basic(dbustype.KindUint32), uint32(2)))

	args, err := DecodeArgs(NewDecoder(enc.Bytes()), "su")
	require.NoError(t, err)
	assert.Equal(t, []any{"one", uint32(2)}, args)

	_, err = DecodeArgs(NewDecoder(enc.Bytes()), "s")
	assert.Error(t, err, "trailing bytes beyond the declared signature must be rejected")

	_, err = DecodeArgs(NewDecoder(enc.Bytes()), "sus")
	assert.Error(t, err, "a signature longer than the buffer must be rejected")
}

func TestDecodeRejectsTruncatedMessage(t *testing.T) {
	enc := NewEncoder()
	require.NoError(t, Encode(enc, dbustype.Basic(dbustype.KindString), "hello"))
	buf := enc.Bytes()[:len(enc.Bytes())-2]
	_, err := Decode(NewDecoder(buf), dbustype.Basic(dbustype.KindString))
	require.Error(t, err)
}

func TestMessageSetArgsAndArgs(t *testing.T) {
	m := &Message{}
	require.NoError(t, SetArgs(m, "su", "name", uint32(7)))
	args, err := m.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"name", uint32(7)}, args)
}

func TestMessageSetArgsArityMismatch(t *testing.T) {
	m := &Message{}
	err := SetArgs(m, "su", "name")
	require.Error(t, err)
}

func TestUnixFDRoundTrip(t *testing.T) {
	got := roundTrip(t, dbustype.Basic(dbustype.KindUnixFD), dbustype.NewUnixFD(3))
	fd, ok := got.(*dbustype.UnixFD)
	require.True(t, ok)
	assert.Equal(t, 3, fd.Fd())
}
