package internal

import (
	"encoding/binary"
	"errors"
)

// Tagged-varint length encoding.
// Short form: 1 byte, LSB=0, upper 7 bits carry the length (0..127).
// Long form: 5 bytes, first byte is exactly 0x01, followed by the length as
// a little-endian u32 (128..2^31-1).

const (
	MaxLen      = 1<<31 - 1
	MaxShortLen = 0x7F
	longLenSize = 5
)

var (
	// ErrShortLen means src ended before the length prefix did. It is the
	// only length error that more input can fix.
	ErrShortLen = errors.New("length prefix incomplete")
	// ErrBadLen reports a long-form prefix with stray tag bits or one that
	// encodes a value the short form could have carried.
	ErrBadLen = errors.New("non-canonical length prefix")
	// ErrLenOverflow reports a length above MaxLen.
	ErrLenOverflow = errors.New("length exceeds 2^31-1")
)

// SizeOfLen returns the number of bytes needed to encode n, or -1 if n is
// out of range.
func SizeOfLen(n int) int {
	if n < 0 || n > MaxLen {
		return -1
	}
	if n <= MaxShortLen {
		return 1
	}
	return longLenSize
}

// AppendLen appends the encoding of n to dst. n must be in [0, MaxLen].
func AppendLen(dst []byte, n int) []byte {
	if n <= MaxShortLen {
		return append(dst, byte(n<<1))
	}
	dst = append(dst, 0x01)
	return binary.LittleEndian.AppendUint32(dst, uint32(n))
}

// DecodeLen decodes a tagged-varint length from the front of src, returning
// the value and the number of bytes consumed.
func DecodeLen(src []byte) (int, int, error) {
	if len(src) == 0 {
		return 0, 0, ErrShortLen
	}
	b0 := src[0]
	if b0&0x01 == 0 {
		return int(b0 >> 1), 1, nil
	}
	if b0 != 0x01 {
		return 0, 0, ErrBadLen
	}
	if len(src) < longLenSize {
		return 0, 0, ErrShortLen
	}
	u := binary.LittleEndian.Uint32(src[1:longLenSize])
	if u > MaxLen {
		return 0, 0, ErrLenOverflow
	}
	if u <= MaxShortLen {
		return 0, 0, ErrBadLen
	}
	return int(u), longLenSize, nil
}
