package textrep

import (
	"bytes"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relishfmt/relish"
)

func TestEncode_SimpleStruct(t *testing.T) {
	src := []byte(`
		let id = 1: u64;
		let name = 2: string;
		struct { name: "Ada"; id: 42; }
	`)
	out, err := EncodeBytes(src)
	require.NoError(t, err)
	want := []byte{
		0x11, 0x20,
		0x01, 0x05, 0x2A, 0, 0, 0, 0, 0, 0, 0,
		0x02, 0x0E, 0x06, 'A', 'd', 'a',
	}
	require.Equal(t, want, out)
}

func TestEncode_ArrayStrings(t *testing.T) {
	out, err := EncodeBytes([]byte(`struct { 10: array<string>["a","b","c"]; }`))
	require.NoError(t, err)
	v, err := relish.Decode(out)
	require.NoError(t, err)
	arr, ok := v.(relish.Struct)[0].Value.(relish.Array)
	require.True(t, ok)
	require.Equal(t, relish.Array{relish.String("a"), relish.String("b"), relish.String("c")}, arr)
}

func TestParseLiterals(t *testing.T) {
	cases := []struct {
		src  string
		want relish.Value
	}{
		{`null`, relish.Null{}},
		{`true`, relish.Bool(true)},
		{`42u32`, relish.U32(42)},
		{`-1i8`, relish.I8(-1)},
		{`0xffu8`, relish.U8(255)},
		{`-0x10i16`, relish.I16(-16)},
		{`1_000u16`, relish.U16(1000)},
		{`(u16) 7`, relish.U16(7)},
		{`1.5`, relish.F64(1.5)},
		{`1.5f32`, relish.F32(1.5)},
		{`1e3f64`, relish.F64(1000)},
		{`(f32) 2`, relish.F32(2)},
		{`(i32) 4.0`, relish.I32(4)},
		{`"tab\there"`, relish.String("tab\there")},
		{`ts(1672531200)`, relish.Timestamp(1672531200)},
		{`ts("2023-01-01T00:00:00Z")`, relish.Timestamp(1672531200)},
		{`array<u8>[1, 2]`, relish.Array{relish.U8(1), relish.U8(2)}},
		{`array[]`, relish.Array{}},
		{`map<string,bool>{"x": true}`, relish.Map{{Key: relish.String("x"), Value: relish.Bool(true)}}},
		{`enum<3>(null)`, relish.Enum{Variant: 3, Value: relish.Null{}}},
		{`struct { 5: 1u8, 2: none, 1: 2u8 }`, relish.Struct{{ID: 1, Value: relish.U8(2)}, {ID: 5, Value: relish.U8(1)}}},
		{`340282366920938463463374607431768211455u128`, mustU128(t, "340282366920938463463374607431768211455")},
		{`-170141183460469231731687303715884105728i128`, mustI128(t, "-170141183460469231731687303715884105728")},
	}
	for _, tc := range cases {
		vals, err := Parse([]byte(tc.src))
		require.NoError(t, err, tc.src)
		require.Len(t, vals, 1, tc.src)
		require.True(t, relish.Equal(tc.want, vals[0]), "%s: got %#v", tc.src, vals[0])
	}
}

func mustU128(t *testing.T, s string) relish.U128 {
	x, _ := new(big.Int).SetString(s, 10)
	u, err := relish.NewU128(x)
	require.NoError(t, err)
	return u
}

func mustI128(t *testing.T, s string) relish.I128 {
	x, _ := new(big.Int).SetString(s, 10)
	i, err := relish.NewI128(x)
	require.NoError(t, err)
	return i
}

func TestParseMultipleValues(t *testing.T) {
	vals, err := Parse([]byte("1u8; \"two\"\n// comment\n/* block */ # hash\nnull"))
	require.NoError(t, err)
	require.Len(t, vals, 3)

	out, err := EncodeBytes([]byte(`1u8 2u8`))
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x01, 0x02, 0x02}, out)
}

func TestParseRangeErrors(t *testing.T) {
	for _, src := range []string{`256u8`, `-1u32`, `128i8`, `(u8) 300`, `340282366920938463463374607431768211456u128`} {
		_, err := Parse([]byte(src))
		var ee *relish.EncodeError
		require.ErrorAs(t, err, &ee, src)
		require.Equal(t, relish.ErrValueOutOfRange, ee.Kind, src)
	}
}

func TestParseNotInteger(t *testing.T) {
	for _, src := range []string{`(u8) 1.5`, `array<i32>[1, 2.25]`, `(i64) inf`} {
		_, err := Parse([]byte(src))
		require.ErrorIs(t, err, relish.ErrNotInteger, src)
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	for _, src := range []string{
		``,
		`42`,
		`struct { 1: 1u8`,
		`struct { 200: 1u8 }`,
		`struct { who: 1u8 }`,
		`array<u8>["x"]`,
		`"unterminated`,
		`let a = 1; let a = 2; null`,
		`@`,
		`(u8) "x"`,
	} {
		_, err := Parse([]byte(src))
		var se *SyntaxError
		require.ErrorAs(t, err, &se, "%q", src)
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := Parse([]byte("struct {\n  1: 1u8;\n  2: ?\n}"))
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 3, se.Line)
	require.Equal(t, 6, se.Col)
}

func TestParseStructErrors(t *testing.T) {
	_, err := Parse([]byte(`struct { 1: 1u8; 1: 2u8 }`))
	require.ErrorIs(t, err, relish.ErrFieldOrder)

	_, err = Parse([]byte(`array[1u8, 2u16]`))
	require.ErrorIs(t, err, relish.ErrMixedArray)

	_, err = EncodeBytes([]byte(`map{1u8: null, 1u8: null}`))
	require.ErrorIs(t, err, relish.ErrDuplicateMapKey)
}

func TestFormatRoundTrip(t *testing.T) {
	vals := []relish.Value{
		relish.Null{},
		relish.Bool(false),
		relish.U64(math.MaxUint64),
		relish.I64(math.MinInt64),
		relish.I128FromInt64(-7),
		relish.U128FromUint64(7),
		relish.F32(0.1),
		relish.F64(1e300),
		relish.F64(math.Copysign(0, -1)),
		relish.F64(math.Inf(-1)),
		relish.F32(float32(math.Inf(1))),
		relish.F64(3),
		relish.String("quote \" and é and \x01"),
		relish.Timestamp(-5),
		relish.Array{},
		relish.Array{relish.Array{relish.I8(1)}, relish.Array{}},
		relish.Map{{Key: relish.Struct{}, Value: relish.Enum{Variant: 127, Value: relish.Null{}}}},
		relish.Struct{{ID: 0, Value: relish.Bool(true)}, {ID: 9, Value: relish.Array{relish.I16(-1), relish.I16(2)}}},
	}
	for _, v := range vals {
		text := Format(v)
		got, err := Parse([]byte(text))
		require.NoError(t, err, text)
		require.Len(t, got, 1, text)
		require.True(t, relish.Equal(v, got[0]), "%s: got %#v want %#v", text, got[0], v)
	}
}

func TestFormatNaN(t *testing.T) {
	got, err := Parse([]byte(Format(relish.F64(math.NaN()))))
	require.NoError(t, err)
	require.True(t, math.IsNaN(float64(got[0].(relish.F64))))
}

func TestFormatText(t *testing.T) {
	v := relish.Struct{
		{ID: 1, Value: relish.U32(42)},
		{ID: 2, Value: relish.Map{{Key: relish.String("k"), Value: relish.F64(1.5)}}},
		{ID: 3, Value: relish.Enum{Variant: 0, Value: relish.Timestamp(9)}},
	}
	require.Equal(t, `struct{1: 42u32; 2: map{"k": 1.5f64}; 3: enum<0>(ts(9))}`, Format(v))
	require.Equal(t, `(f32) nan`, Format(relish.F32(float32(math.NaN()))))
}

func TestEncodeReader(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Encode(bytes.NewReader([]byte(`struct{}`)), &out))
	require.Equal(t, []byte{0x11, 0x00}, out.Bytes())
}
