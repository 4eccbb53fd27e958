package internal

import (
	"encoding/binary"
	"io"
	"math"
)

var le = binary.LittleEndian

// writeFixed writes [t][payload] in a single Write call. Fixed-size types
// carry no length prefix; the type code implies the payload size.
func writeFixed(w io.Writer, t byte, payload []byte) error {
	var b [17]byte
	b[0] = t
	n := copy(b[1:], payload)
	_, err := w.Write(b[:1+n])
	return err
}

// Null TLV: [0x00]
func WriteNullTLV(w io.Writer) error {
	return writeFixed(w, TNull, nil)
}

// Bool TLV: [0x01][0x00|0xFF]
func WriteBoolTLV(w io.Writer, v bool) error {
	b := byte(0x00)
	if v {
		b = 0xFF
	}
	return writeFixed(w, TBool, []byte{b})
}

// Unsigned integers
func WriteU8TLV(w io.Writer, v uint8) error {
	return writeFixed(w, TU8, []byte{v})
}

func WriteU16TLV(w io.Writer, v uint16) error {
	var b [2]byte
	le.PutUint16(b[:], v)
	return writeFixed(w, TU16, b[:])
}

func WriteU32TLV(w io.Writer, v uint32) error {
	var b [4]byte
	le.PutUint32(b[:], v)
	return writeFixed(w, TU32, b[:])
}

func WriteU64TLV(w io.Writer, v uint64) error {
	var b [8]byte
	le.PutUint64(b[:], v)
	return writeFixed(w, TU64, b[:])
}

func WriteU128TLV(w io.Writer, v [16]byte) error {
	return writeFixed(w, TU128, v[:])
}

// Signed integers. Two's complement bytes via the unsigned writers.
func WriteI8TLV(w io.Writer, v int8) error {
	return writeFixed(w, TI8, []byte{byte(v)})
}

func WriteI16TLV(w io.Writer, v int16) error {
	var b [2]byte
	le.PutUint16(b[:], uint16(v))
	return writeFixed(w, TI16, b[:])
}

func WriteI32TLV(w io.Writer, v int32) error {
	var b [4]byte
	le.PutUint32(b[:], uint32(v))
	return writeFixed(w, TI32, b[:])
}

func WriteI64TLV(w io.Writer, v int64) error {
	var b [8]byte
	le.PutUint64(b[:], uint64(v))
	return writeFixed(w, TI64, b[:])
}

func WriteI128TLV(w io.Writer, v [16]byte) error {
	return writeFixed(w, TI128, v[:])
}

// Floats
func WriteF32TLV(w io.Writer, v float32) error {
	var b [4]byte
	le.PutUint32(b[:], math.Float32bits(v))
	return writeFixed(w, TF32, b[:])
}

func WriteF64TLV(w io.Writer, v float64) error {
	var b [8]byte
	le.PutUint64(b[:], math.Float64bits(v))
	return writeFixed(w, TF64, b[:])
}

// Timestamp (i64 seconds since the Unix epoch)
func WriteTimestampTLV(w io.Writer, v int64) error {
	var b [8]byte
	le.PutUint64(b[:], uint64(v))
	return writeFixed(w, TTimestamp, b[:])
}

// WriteVarHeader writes the [type][length] header of a varsize TLV.
func WriteVarHeader(w io.Writer, t byte, n int) error {
	if SizeOfLen(n) < 0 {
		return ErrLenOverflow
	}
	var b [1 + longLenSize]byte
	b[0] = t
	hdr := AppendLen(b[:1], n)
	_, err := w.Write(hdr)
	return err
}

// Little-endian payload readers. Callers guarantee len(p) matches the
// width; bounds are checked once by the decoder before dispatch.
func ReadU16(p []byte) uint16 { return le.Uint16(p) }
func ReadU32(p []byte) uint32 { return le.Uint32(p) }
func ReadU64(p []byte) uint64 { return le.Uint64(p) }

func ReadF32(p []byte) float32 { return math.Float32frombits(le.Uint32(p)) }
func ReadF64(p []byte) float64 { return math.Float64frombits(le.Uint64(p)) }
