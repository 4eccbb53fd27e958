package relish

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustEncode(t *testing.T, v Value) []byte {
	t.Helper()
	b, err := Encode(v)
	require.NoError(t, err)
	return b
}

func TestRoundTripAllTypes(t *testing.T) {
	big := U128{}
	for i := range big {
		big[i] = 0xFF
	}
	cases := []Value{
		Null{},
		Bool(true),
		Bool(false),
		U8(255),
		U16(0xBEEF),
		U32(0xDEADBEEF),
		U64(math.MaxUint64),
		big,
		I8(-128),
		I16(-12345),
		I32(math.MinInt32),
		I64(math.MinInt64),
		I128FromInt64(-2),
		F32(3.5),
		F64(-0.0),
		F64(math.Inf(1)),
		String(""),
		String("héllo"),
		Timestamp(-1),
		Array{},
		Array{U8(1), U8(2)},
		Map{},
		Map{{Key: String("a"), Value: Array{Null{}}}},
		Struct{},
		Struct{{ID: 0, Value: Bool(true)}, {ID: 127, Value: String("x")}},
		Enum{Variant: 3, Value: Struct{{ID: 1, Value: I64(7)}}},
	}
	for _, v := range cases {
		b := mustEncode(t, v)
		got, err := Decode(b)
		require.NoError(t, err, "%#v", v)
		require.True(t, Equal(v, got), "got %#v want %#v", got, v)
		require.Equal(t, b, mustEncode(t, got), "re-encode %#v", v)
	}
}

func TestRoundTripNaN(t *testing.T) {
	v := F64(math.Float64frombits(0x7FF8000000000001))
	got, err := Decode(mustEncode(t, v))
	require.NoError(t, err)
	require.True(t, Equal(v, got))
}

func TestFixedWidthEncodings(t *testing.T) {
	cases := []struct {
		v    Value
		want []byte
	}{
		{Null{}, []byte{0x00}},
		{Bool(true), []byte{0x01, 0xFF}},
		{Bool(false), []byte{0x01, 0x00}},
		{U16(0x0102), []byte{0x03, 0x02, 0x01}},
		{I32(-1), []byte{0x09, 0xFF, 0xFF, 0xFF, 0xFF}},
		{U64(1), []byte{0x05, 1, 0, 0, 0, 0, 0, 0, 0}},
		{F32(1), []byte{0x0C, 0x00, 0x00, 0x80, 0x3F}},
		{String("hi"), []byte{0x0E, 0x04, 'h', 'i'}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, mustEncode(t, tc.v), "%#v", tc.v)
	}
}

func TestBoolAcceptsAnyNonZero(t *testing.T) {
	v, err := Decode([]byte{0x01, 0x01})
	require.NoError(t, err)
	require.Equal(t, Bool(true), v)
}

func TestLengthBoundary(t *testing.T) {
	short := String(strings.Repeat("a", 127))
	b := mustEncode(t, short)
	require.Equal(t, []byte{0x0E, 0xFE}, b[:2])
	require.Len(t, b, 129)

	long := String(strings.Repeat("a", 128))
	b = mustEncode(t, long)
	require.Equal(t, []byte{0x0E, 0x01, 0x80, 0x00, 0x00, 0x00}, b[:6])
	require.Len(t, b, 134)

	got, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, long, got)
}

func TestNonMinimalLengthRejected(t *testing.T) {
	_, err := Decode([]byte{0x0E, 0x01, 0x01, 0x00, 0x00, 0x00, 'a'})
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestStructFieldOrder(t *testing.T) {
	_, err := Encode(Struct{{ID: 2, Value: U8(1)}, {ID: 1, Value: U8(2)}})
	require.ErrorIs(t, err, ErrFieldOrder)

	_, err = Encode(Struct{{ID: 1, Value: U8(1)}, {ID: 1, Value: U8(2)}})
	require.ErrorIs(t, err, ErrFieldOrder)

	b, err := Encode(Struct{{ID: 1, Value: U8(1)}, {ID: 2, Value: U8(2)}})
	require.NoError(t, err)
	require.Equal(t, []byte{0x11, 0x0C, 0x01, 0x02, 0x01, 0x02, 0x02, 0x02}, b)

	// swap the two fields on the wire
	bad := []byte{0x11, 0x0C, 0x02, 0x02, 0x02, 0x01, 0x02, 0x01}
	_, err = Decode(bad)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, ErrFieldOrder, de.Kind)
	require.Equal(t, int64(5), de.Offset)
}

func TestInvalidFieldAndVariantIDs(t *testing.T) {
	_, err := Encode(Struct{{ID: 128, Value: Null{}}})
	require.ErrorIs(t, err, ErrInvalidFieldID)

	_, err = Encode(Enum{Variant: 200, Value: Null{}})
	require.ErrorIs(t, err, ErrInvalidVariantID)

	_, err = Decode([]byte{0x11, 0x04, 0x80, 0x00})
	require.ErrorIs(t, err, ErrInvalidFieldID)

	_, err = Decode([]byte{0x12, 0x04, 0x80, 0x00})
	require.ErrorIs(t, err, ErrInvalidVariantID)
}

func TestInvalidTypeID(t *testing.T) {
	for _, b := range [][]byte{{0xFF}, {0x14}, {0x80, 0x00}, {0x0F, 0x02, 0x93}} {
		_, err := Decode(b)
		require.ErrorIs(t, err, ErrInvalidTypeID, "% x", b)
	}
}

func TestDuplicateMapKey(t *testing.T) {
	_, err := Encode(Map{
		{Key: String("k"), Value: U8(1)},
		{Key: String("k"), Value: U8(2)},
	})
	var ee *EncodeError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrDuplicateMapKey, ee.Kind)
	require.Equal(t, "{1}", ee.Path)

	// equal values of different types are distinct keys
	_, err = Encode(Map{{Key: U8(1), Value: Null{}}, {Key: U16(1), Value: Null{}}})
	require.NoError(t, err)

	dup := []byte{0x10, 0x10, 0x0E, 0x02, 'k', 0x00, 0x0E, 0x02, 'k', 0x00}
	_, err = Decode(dup)
	require.ErrorIs(t, err, ErrDuplicateMapKey)

	// 0x01 and 0xFF both decode to true
	boolDup := []byte{0x10, 0x0C, 0x01, 0x01, 0x00, 0x01, 0xFF, 0x00}
	_, err = Decode(boolDup)
	require.ErrorIs(t, err, ErrDuplicateMapKey)
}

func TestMixedArray(t *testing.T) {
	_, err := Encode(Array{U8(1), U16(2)})
	var ee *EncodeError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrMixedArray, ee.Kind)
	require.Equal(t, "[1]", ee.Path)

	_, err = Decode([]byte{0x0F, 0x0A, 0x02, 0x01, 0x03, 0x02, 0x00})
	require.ErrorIs(t, err, ErrMixedArray)
}

func TestEncodeErrorPath(t *testing.T) {
	v := Struct{{ID: 4, Value: Array{Enum{Variant: 1, Value: String("\xff")}}}}
	_, err := Encode(v)
	var ee *EncodeError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrInvalidUTF8, ee.Kind)
	require.Equal(t, ".4[0]<1>", ee.Path)
}

func TestEnumLengthMismatch(t *testing.T) {
	// declares 7 content bytes, variant payload uses 5
	_, err := Decode([]byte{0x12, 0x0E, 0x00, 0x04, 0x2A, 0x00, 0x00, 0x00, 0xFF})
	require.ErrorIs(t, err, ErrEnumLengthMismatch)

	// declares 3 content bytes, variant payload needs 5
	_, err = Decode([]byte{0x12, 0x06, 0x00, 0x04, 0x2A, 0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrEnumLengthMismatch)

	_, err = Decode([]byte{0x12, 0x00})
	require.ErrorIs(t, err, ErrEnumLengthMismatch)
}

func TestIncompleteVersusMismatch(t *testing.T) {
	full := mustEncode(t, Struct{{ID: 0, Value: U32(42)}})
	for i := 0; i < len(full); i++ {
		_, _, err := DecodeValue(full[:i])
		require.True(t, IsIncomplete(err), "prefix %d: %v", i, err)
	}

	// struct declares 4 bytes but its child needs 5
	_, err := Decode([]byte{0x11, 0x08, 0x00, 0x04, 0x2A, 0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrLengthMismatch)
	require.False(t, IsIncomplete(err))

	// array child cut off inside its declared window
	_, err = Decode([]byte{0x0F, 0x04, 0x0E, 0x04})
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestTrailingBytes(t *testing.T) {
	b := append(mustEncode(t, U8(1)), 0x00)
	_, err := Decode(b)
	require.ErrorIs(t, err, ErrTrailingBytes)

	v, n, err := DecodeValue(b)
	require.NoError(t, err)
	require.Equal(t, U8(1), v)
	require.Equal(t, 2, n)
}

func TestInvalidUTF8(t *testing.T) {
	_, err := Encode(String("\xc3\x28"))
	require.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = Decode([]byte{0x0E, 0x04, 0xC3, 0x28})
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestLengthOverflow(t *testing.T) {
	_, err := Decode([]byte{0x0E, 0x01, 0x00, 0x00, 0x00, 0x80})
	require.ErrorIs(t, err, ErrLengthOverflow)
}

func nest(depth int) Value {
	var v Value = Null{}
	for i := 0; i < depth; i++ {
		v = Array{v}
	}
	return v
}

func TestDepthLimit(t *testing.T) {
	ok := nest(DefaultMaxDepth)
	b := mustEncode(t, ok)
	_, err := Decode(b)
	require.NoError(t, err)

	_, err = Encode(nest(DefaultMaxDepth + 1))
	require.ErrorIs(t, err, ErrDepthExceeded)

	_, err = NewDecoder(WithMaxDepth(10)).Decode(b)
	require.ErrorIs(t, err, ErrDepthExceeded)

	_, err = Encode(nest(5), WithEncodeMaxDepth(4))
	require.ErrorIs(t, err, ErrDepthExceeded)
}

func TestRejectNonFinite(t *testing.T) {
	_, err := Encode(F64(math.NaN()))
	require.NoError(t, err)

	_, err = Encode(Array{F32(float32(math.Inf(-1)))}, WithRejectNonFinite())
	require.ErrorIs(t, err, ErrNonFiniteFloat)
}

func TestNilValue(t *testing.T) {
	_, err := Encode(Array{nil})
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestEncoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(U8(1)))
	require.Error(t, enc.Encode(Array{U8(1), Bool(true)}))
	require.NoError(t, enc.Encode(String("x")))
	require.Equal(t, []byte{0x02, 0x01, 0x0E, 0x02, 'x'}, buf.Bytes())
}

func TestAppendEncode(t *testing.T) {
	dst := []byte{0xAA}
	out, err := AppendEncode(dst, U8(7))
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0x02, 0x07}, out)

	out, err = AppendEncode(dst, Struct{{ID: 3}, {ID: 1}})
	require.Error(t, err)
	require.Equal(t, dst, out)
}

func TestDecodeErrorMessage(t *testing.T) {
	_, err := Decode([]byte{0x0F, 0x02, 0xFF})
	require.EqualError(t, err, "relish: invalid type id at 2: 0xff has top bit set")
}

func TestStructGetAndTimestamp(t *testing.T) {
	st := Struct{{ID: 1, Value: U8(1)}, {ID: 4, Value: String("four")}}
	v, ok := st.Get(4)
	require.True(t, ok)
	require.Equal(t, String("four"), v)
	_, ok = st.Get(2)
	require.False(t, ok)

	tm := time.Date(2023, 1, 1, 0, 0, 0, 999, time.FixedZone("x", 3600))
	ts := TimestampOf(tm)
	require.Equal(t, Timestamp(1672527600), ts)
	require.True(t, ts.Time().Equal(tm.Truncate(time.Second)))
	require.Equal(t, time.UTC, ts.Time().Location())
}

func TestDeepMapKeyWithRaisedDepth(t *testing.T) {
	const depth = 1100
	m := Map{{Key: nest(depth), Value: Null{}}}
	b, err := Encode(m, WithEncodeMaxDepth(depth+2))
	require.NoError(t, err)

	got, err := NewDecoder(WithMaxDepth(depth + 2)).Decode(b)
	require.NoError(t, err)
	require.True(t, Equal(m, got))

	_, err = NewDecoder(WithMaxDepth(depth)).Decode(b)
	require.ErrorIs(t, err, ErrDepthExceeded)
}
