package relish

import (
	"encoding/binary"
	"math/big"
)

// U128 and I128 are 128-bit integer containers represented as bytes.
// The on-wire representation is little-endian; I128 is two's complement.
type U128 [16]byte
type I128 [16]byte

var (
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	maxU128 = new(big.Int).Sub(two128, big.NewInt(1))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	bigZero = big.NewInt(0)
)

// U128FromUint64 widens v.
func U128FromUint64(v uint64) U128 {
	var u U128
	binary.LittleEndian.PutUint64(u[:8], v)
	return u
}

// I128FromInt64 sign-extends v.
func I128FromInt64(v int64) I128 {
	var i I128
	binary.LittleEndian.PutUint64(i[:8], uint64(v))
	if v < 0 {
		binary.LittleEndian.PutUint64(i[8:], ^uint64(0))
	}
	return i
}

// NewU128 converts x, failing with ErrValueOutOfRange unless 0 <= x < 2^128.
func NewU128(x *big.Int) (U128, error) {
	var u U128
	if x.Cmp(bigZero) < 0 || x.Cmp(maxU128) > 0 {
		return u, &EncodeError{Kind: ErrValueOutOfRange, Detail: x.String() + " does not fit in u128"}
	}
	putLE(u[:], x)
	return u, nil
}

// NewI128 converts x, failing with ErrValueOutOfRange unless
// -2^127 <= x < 2^127.
func NewI128(x *big.Int) (I128, error) {
	var i I128
	if x.Cmp(minI128) < 0 || x.Cmp(maxI128) > 0 {
		return i, &EncodeError{Kind: ErrValueOutOfRange, Detail: x.String() + " does not fit in i128"}
	}
	if x.Sign() < 0 {
		putLE(i[:], new(big.Int).Add(x, two128))
	} else {
		putLE(i[:], x)
	}
	return i, nil
}

// Big returns u as a non-negative big.Int.
func (u U128) Big() *big.Int {
	return getLE(u[:])
}

// Big returns i as a signed big.Int.
func (i I128) Big() *big.Int {
	x := getLE(i[:])
	if i[15]&0x80 != 0 {
		x.Sub(x, two128)
	}
	return x
}

// Uint64 returns u as a uint64 when it fits.
func (u U128) Uint64() (uint64, bool) {
	if binary.LittleEndian.Uint64(u[8:]) != 0 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(u[:8]), true
}

// Int64 returns i as an int64 when it fits.
func (i I128) Int64() (int64, bool) {
	lo := binary.LittleEndian.Uint64(i[:8])
	hi := binary.LittleEndian.Uint64(i[8:])
	switch {
	case hi == 0 && lo>>63 == 0:
		return int64(lo), true
	case hi == ^uint64(0) && lo>>63 == 1:
		return int64(lo), true
	}
	return 0, false
}

func (u U128) String() string { return u.Big().String() }
func (i I128) String() string { return i.Big().String() }

// putLE writes the magnitude of non-negative x into dst little-endian.
// x must fit in len(dst) bytes.
func putLE(dst []byte, x *big.Int) {
	var be [16]byte
	x.FillBytes(be[16-len(dst):])
	for j := range dst {
		dst[j] = be[15-j]
	}
}

func getLE(src []byte) *big.Int {
	var be [16]byte
	for j := range src {
		be[15-j] = src[j]
	}
	return new(big.Int).SetBytes(be[:])
}
