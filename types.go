package relish

import (
	"fmt"

	intr "github.com/relishfmt/relish/internal"
)

// TypeID identifies a Relish type. Top bit must be 0.
type TypeID byte

const (
	TypeNull      TypeID = TypeID(intr.TNull)
	TypeBool      TypeID = TypeID(intr.TBool)
	TypeU8        TypeID = TypeID(intr.TU8)
	TypeU16       TypeID = TypeID(intr.TU16)
	TypeU32       TypeID = TypeID(intr.TU32)
	TypeU64       TypeID = TypeID(intr.TU64)
	TypeU128      TypeID = TypeID(intr.TU128)
	TypeI8        TypeID = TypeID(intr.TI8)
	TypeI16       TypeID = TypeID(intr.TI16)
	TypeI32       TypeID = TypeID(intr.TI32)
	TypeI64       TypeID = TypeID(intr.TI64)
	TypeI128      TypeID = TypeID(intr.TI128)
	TypeF32       TypeID = TypeID(intr.TF32)
	TypeF64       TypeID = TypeID(intr.TF64)
	TypeString    TypeID = TypeID(intr.TString)
	TypeArray     TypeID = TypeID(intr.TArray)
	TypeMap       TypeID = TypeID(intr.TMap)
	TypeStruct    TypeID = TypeID(intr.TStruct)
	TypeEnum      TypeID = TypeID(intr.TEnum)
	TypeTimestamp TypeID = TypeID(intr.TTimestamp)
)

var typeNames = [...]string{
	TypeNull:      "null",
	TypeBool:      "bool",
	TypeU8:        "u8",
	TypeU16:       "u16",
	TypeU32:       "u32",
	TypeU64:       "u64",
	TypeU128:      "u128",
	TypeI8:        "i8",
	TypeI16:       "i16",
	TypeI32:       "i32",
	TypeI64:       "i64",
	TypeI128:      "i128",
	TypeF32:       "f32",
	TypeF64:       "f64",
	TypeString:    "string",
	TypeArray:     "array",
	TypeMap:       "map",
	TypeStruct:    "struct",
	TypeEnum:      "enum",
	TypeTimestamp: "timestamp",
}

func (t TypeID) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("type(0x%02x)", byte(t))
}

// Valid reports whether t is a defined type code with the reserved bit clear.
func (t TypeID) Valid() bool { return intr.ValidType(byte(t)) }

// VarSize reports whether values of type t carry a length prefix on the wire.
func (t TypeID) VarSize() bool { return intr.IsVarSize(byte(t)) }

// FixedSize returns the payload width of a fixed-size type.
func (t TypeID) FixedSize() (int, bool) { return intr.FixedSize(byte(t)) }
