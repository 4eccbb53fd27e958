package relish

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestI128FromInt64(t *testing.T) {
	neg := I128FromInt64(-1)
	for _, b := range neg {
		require.Equal(t, byte(0xFF), b)
	}
	require.Equal(t, "-1", neg.String())

	v, ok := I128FromInt64(-42).Int64()
	require.True(t, ok)
	require.Equal(t, int64(-42), v)
}

func TestU128Big(t *testing.T) {
	maxU := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	u, err := NewU128(maxU)
	require.NoError(t, err)
	require.Equal(t, maxU.String(), u.String())
	_, ok := u.Uint64()
	require.False(t, ok)

	_, err = NewU128(new(big.Int).Add(maxU, big.NewInt(1)))
	require.ErrorIs(t, err, ErrValueOutOfRange)

	_, err = NewU128(big.NewInt(-1))
	require.ErrorIs(t, err, ErrValueOutOfRange)

	small, ok := U128FromUint64(99).Uint64()
	require.True(t, ok)
	require.Equal(t, uint64(99), small)
}

func TestI128Big(t *testing.T) {
	minI := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	i, err := NewI128(minI)
	require.NoError(t, err)
	require.Equal(t, minI.String(), i.String())
	require.Equal(t, byte(0x80), i[15])
	_, ok := i.Int64()
	require.False(t, ok)

	_, err = NewI128(new(big.Int).Sub(minI, big.NewInt(1)))
	require.ErrorIs(t, err, ErrValueOutOfRange)

	x, err := NewI128(big.NewInt(-300))
	require.NoError(t, err)
	require.Equal(t, I128FromInt64(-300), x)
}

func TestI128Wire(t *testing.T) {
	b, err := Encode(I128FromInt64(1))
	require.NoError(t, err)
	require.Equal(t, append([]byte{0x0B, 0x01}, make([]byte, 15)...), b)
}
