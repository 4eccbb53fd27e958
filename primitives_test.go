package relish

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeIDs(t *testing.T) {
	want := []TypeID{
		TypeNull, TypeBool, TypeU8, TypeU16, TypeU32, TypeU64, TypeU128,
		TypeI8, TypeI16, TypeI32, TypeI64, TypeI128,
		TypeF32, TypeF64, TypeString, TypeArray, TypeMap, TypeStruct, TypeEnum, TypeTimestamp,
	}
	for i, id := range want {
		require.Equal(t, TypeID(i), id, "type %v", id)
		require.True(t, id.Valid())
	}
	require.False(t, TypeID(0x14).Valid())
	require.False(t, TypeID(0x80).Valid())
	require.False(t, TypeID(0xFF).Valid())
}

func TestTypeIDProperties(t *testing.T) {
	for _, id := range []TypeID{TypeString, TypeArray, TypeMap, TypeStruct, TypeEnum} {
		require.True(t, id.VarSize(), "%v", id)
		_, ok := id.FixedSize()
		require.False(t, ok, "%v", id)
	}
	sizes := map[TypeID]int{
		TypeNull: 0, TypeBool: 1, TypeU8: 1, TypeU16: 2, TypeU32: 4, TypeU64: 8, TypeU128: 16,
		TypeI8: 1, TypeI16: 2, TypeI32: 4, TypeI64: 8, TypeI128: 16,
		TypeF32: 4, TypeF64: 8, TypeTimestamp: 8,
	}
	for id, n := range sizes {
		require.False(t, id.VarSize(), "%v", id)
		got, ok := id.FixedSize()
		require.True(t, ok, "%v", id)
		require.Equal(t, n, got, "%v", id)
	}
	require.Equal(t, "timestamp", TypeTimestamp.String())
	require.Equal(t, "type(0xff)", TypeID(0xFF).String())
}
