package internal

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedTLVs(t *testing.T) {
	var u128 [16]byte
	for i := range u128 {
		u128[i] = byte(i)
	}
	var i128 [16]byte
	for i := range i128 {
		i128[i] = 0xAA
	}

	tests := []struct {
		name  string
		write func(w io.Writer) error
		want  []byte
	}{
		{"null", WriteNullTLV, []byte{0x00}},
		{"bool true", func(w io.Writer) error { return WriteBoolTLV(w, true) }, []byte{0x01, 0xFF}},
		{"bool false", func(w io.Writer) error { return WriteBoolTLV(w, false) }, []byte{0x01, 0x00}},
		{"u8", func(w io.Writer) error { return WriteU8TLV(w, 0x7F) }, []byte{0x02, 0x7F}},
		{"u16", func(w io.Writer) error { return WriteU16TLV(w, 0x1234) }, []byte{0x03, 0x34, 0x12}},
		{"u32", func(w io.Writer) error { return WriteU32TLV(w, 0x89ABCDEF) }, []byte{0x04, 0xEF, 0xCD, 0xAB, 0x89}},
		{"u64", func(w io.Writer) error { return WriteU64TLV(w, 0x0102030405060708) },
			[]byte{0x05, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}},
		{"u128", func(w io.Writer) error { return WriteU128TLV(w, u128) },
			append([]byte{0x06}, u128[:]...)},
		{"i8", func(w io.Writer) error { return WriteI8TLV(w, -1) }, []byte{0x07, 0xFF}},
		{"i16", func(w io.Writer) error { return WriteI16TLV(w, -2) }, []byte{0x08, 0xFE, 0xFF}},
		{"i32", func(w io.Writer) error { return WriteI32TLV(w, -3) }, []byte{0x09, 0xFD, 0xFF, 0xFF, 0xFF}},
		{"i64", func(w io.Writer) error { return WriteI64TLV(w, -4) },
			[]byte{0x0A, 0xFC, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"i128", func(w io.Writer) error { return WriteI128TLV(w, i128) },
			append([]byte{0x0B}, i128[:]...)},
		// 1.5 => bits 0x3FC00000
		{"f32", func(w io.Writer) error { return WriteF32TLV(w, 1.5) }, []byte{0x0C, 0x00, 0x00, 0xC0, 0x3F}},
		{"f64", func(w io.Writer) error { return WriteF64TLV(w, 2.5) },
			[]byte{0x0D, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x40}},
		// 2023-01-01 00:00:00 UTC
		{"timestamp", func(w io.Writer) error { return WriteTimestampTLV(w, 1672531200) },
			[]byte{0x13, 0x00, 0xD2, 0xB0, 0x63, 0x00, 0x00, 0x00, 0x00}},
		{"negative timestamp", func(w io.Writer) error { return WriteTimestampTLV(w, -1) },
			[]byte{0x13, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.write(&buf))
			require.Equal(t, tt.want, buf.Bytes())

			n, ok := FixedSize(tt.want[0])
			require.True(t, ok)
			require.Equal(t, len(tt.want)-1, n)
		})
	}
}

func TestFixedReaders(t *testing.T) {
	require.Equal(t, uint16(0x1234), ReadU16([]byte{0x34, 0x12}))
	require.Equal(t, uint32(0x89ABCDEF), ReadU32([]byte{0xEF, 0xCD, 0xAB, 0x89}))
	require.Equal(t, uint64(0x0102030405060708), ReadU64([]byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}))
	require.Equal(t, float32(1.5), ReadF32([]byte{0x00, 0x00, 0xC0, 0x3F}))
	require.Equal(t, 2.5, ReadF64([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x40}))
}

func TestWriteVarHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVarHeader(&buf, TString, 5))
	require.Equal(t, []byte{0x0E, 0x0A}, buf.Bytes())

	buf.Reset()
	require.NoError(t, WriteVarHeader(&buf, TArray, 300))
	require.Equal(t, []byte{0x0F, 0x01, 0x2C, 0x01, 0x00, 0x00}, buf.Bytes())

	buf.Reset()
	require.ErrorIs(t, WriteVarHeader(&buf, TMap, MaxLen+1), ErrLenOverflow)
	require.Zero(t, buf.Len())
}

func TestTypeTable(t *testing.T) {
	n, ok := FixedSize(TU32)
	require.True(t, ok)
	require.Equal(t, 4, n)

	n, ok = FixedSize(TString)
	require.False(t, ok)
	require.Zero(t, n)

	for _, vt := range []byte{TString, TArray, TMap, TStruct, TEnum} {
		require.True(t, IsVarSize(vt), "type %#02x", vt)
		require.True(t, ValidType(vt))
	}
	require.False(t, IsVarSize(TTimestamp))
	require.True(t, ValidType(TTimestamp))
	require.False(t, ValidType(0x14))
	require.False(t, ValidType(0x80))
	require.False(t, ValidType(0xFF))
}
