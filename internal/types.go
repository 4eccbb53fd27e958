package internal

// Type codes as they appear on the wire. The root package re-exports these
// as relish.TypeID; they live here so the helpers below can switch on them.
const (
	TNull      byte = 0x00
	TBool      byte = 0x01
	TU8        byte = 0x02
	TU16       byte = 0x03
	TU32       byte = 0x04
	TU64       byte = 0x05
	TU128      byte = 0x06
	TI8        byte = 0x07
	TI16       byte = 0x08
	TI32       byte = 0x09
	TI64       byte = 0x0A
	TI128      byte = 0x0B
	TF32       byte = 0x0C
	TF64       byte = 0x0D
	TString    byte = 0x0E
	TArray     byte = 0x0F
	TMap       byte = 0x10
	TStruct    byte = 0x11
	TEnum      byte = 0x12
	TTimestamp byte = 0x13

	MaxType  byte = TTimestamp
	Reserved byte = 0x80
)

// ValidType reports whether t is a defined type code with the reserved bit
// clear.
func ValidType(t byte) bool {
	return t&Reserved == 0 && t <= MaxType
}

// IsVarSize reports whether values of type t carry a length prefix.
func IsVarSize(t byte) bool {
	switch t {
	case TString, TArray, TMap, TStruct, TEnum:
		return true
	default:
		return false
	}
}

// FixedSize returns the number of payload bytes for a fixed-size type.
// It returns (0, true) for Null and (0, false) for varsize/unknown types.
func FixedSize(t byte) (int, bool) {
	switch t {
	case TNull:
		return 0, true
	case TBool, TU8, TI8:
		return 1, true
	case TU16, TI16:
		return 2, true
	case TU32, TI32, TF32:
		return 4, true
	case TU64, TI64, TF64, TTimestamp:
		return 8, true
	case TU128, TI128:
		return 16, true
	default:
		return 0, false
	}
}
