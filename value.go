package relish

import (
	"math"
	"time"
)

// Value is one node of a Relish value tree. The set of implementations is
// closed: Null, Bool, the sized integers, F32, F64, String, Array, Map,
// Struct, Enum and Timestamp.
type Value interface {
	// Type returns the wire type code of the value.
	Type() TypeID
	isValue()
}

// Null represents the Relish Null value.
type Null struct{}

type (
	Bool bool

	U8  uint8
	U16 uint16
	U32 uint32
	U64 uint64

	I8  int8
	I16 int16
	I32 int32
	I64 int64

	F32 float32
	F64 float64

	// String holds UTF-8 text. Invalid sequences are rejected on encode.
	String string

	// Timestamp is a count of seconds since the Unix epoch.
	Timestamp int64
)

// Array is an ordered sequence of values sharing one type code.
type Array []Value

// Map is a set of key/value entries. Keys must be unique; entry order is
// preserved on the wire but carries no meaning.
type Map []MapEntry

type MapEntry struct {
	Key   Value
	Value Value
}

// Struct is a sparse set of fields keyed by id. Fields must be listed in
// strictly ascending id order with ids below 128.
type Struct []Field

type Field struct {
	ID    uint8
	Value Value
}

// Enum is a single variant id plus its payload.
type Enum struct {
	Variant uint8
	Value   Value
}

func (Null) Type() TypeID      { return TypeNull }
func (Bool) Type() TypeID      { return TypeBool }
func (U8) Type() TypeID        { return TypeU8 }
func (U16) Type() TypeID       { return TypeU16 }
func (U32) Type() TypeID       { return TypeU32 }
func (U64) Type() TypeID       { return TypeU64 }
func (U128) Type() TypeID      { return TypeU128 }
func (I8) Type() TypeID        { return TypeI8 }
func (I16) Type() TypeID       { return TypeI16 }
func (I32) Type() TypeID       { return TypeI32 }
func (I64) Type() TypeID       { return TypeI64 }
func (I128) Type() TypeID      { return TypeI128 }
func (F32) Type() TypeID       { return TypeF32 }
func (F64) Type() TypeID       { return TypeF64 }
func (String) Type() TypeID    { return TypeString }
func (Array) Type() TypeID     { return TypeArray }
func (Map) Type() TypeID       { return TypeMap }
func (Struct) Type() TypeID    { return TypeStruct }
func (Enum) Type() TypeID      { return TypeEnum }
func (Timestamp) Type() TypeID { return TypeTimestamp }

func (Null) isValue()      {}
func (Bool) isValue()      {}
func (U8) isValue()        {}
func (U16) isValue()       {}
func (U32) isValue()       {}
func (U64) isValue()       {}
func (U128) isValue()      {}
func (I8) isValue()        {}
func (I16) isValue()       {}
func (I32) isValue()       {}
func (I64) isValue()       {}
func (I128) isValue()      {}
func (F32) isValue()       {}
func (F64) isValue()       {}
func (String) isValue()    {}
func (Array) isValue()     {}
func (Map) isValue()       {}
func (Struct) isValue()    {}
func (Enum) isValue()      {}
func (Timestamp) isValue() {}

// Get returns the value of field id, if present.
func (s Struct) Get(id uint8) (Value, bool) {
	for _, f := range s {
		if f.ID == id {
			return f.Value, true
		}
	}
	return nil, false
}

// Time converts t to a UTC time.Time.
func (t Timestamp) Time() time.Time { return time.Unix(int64(t), 0).UTC() }

// TimestampOf truncates tm to whole seconds.
func TimestampOf(tm time.Time) Timestamp { return Timestamp(tm.Unix()) }

// Equal reports whether a and b are the same value tree. Floats compare by
// bit pattern, so a NaN equals an identical NaN and 0.0 differs from -0.0.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch x := a.(type) {
	case F32:
		return math.Float32bits(float32(x)) == math.Float32bits(float32(b.(F32)))
	case F64:
		return math.Float64bits(float64(x)) == math.Float64bits(float64(b.(F64)))
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y := b.(Map)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i].Key, y[i].Key) || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	case Struct:
		y := b.(Struct)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i].ID != y[i].ID || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	case Enum:
		y := b.(Enum)
		return x.Variant == y.Variant && Equal(x.Value, y.Value)
	default:
		return a == b
	}
}
