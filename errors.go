package relish

import (
	"errors"
	"fmt"
)

// ErrorKind classifies decoding/encoding errors.
//
// EncodeError uses ErrValueOutOfRange, ErrNotInteger, ErrNonFiniteFloat,
// ErrInvalidFieldID, ErrFieldOrder, ErrDuplicateMapKey, ErrInvalidUTF8,
// ErrMixedArray, ErrInvalidVariantID, ErrLengthOverflow, ErrDepthExceeded
// and ErrUnsupportedValue.
//
// DecodeError uses ErrInvalidTypeID, ErrIncomplete, ErrInvalidUTF8,
// ErrFieldOrder, ErrInvalidFieldID, ErrDuplicateMapKey,
// ErrEnumLengthMismatch, ErrLengthMismatch, ErrInvalidLength,
// ErrLengthOverflow, ErrMixedArray, ErrInvalidVariantID, ErrDepthExceeded,
// ErrTrailingBytes, ErrTruncatedStream and ErrTypeMismatch.
type ErrorKind int

const (
	ErrInvalidTypeID ErrorKind = iota + 1
	ErrInvalidFieldID
	ErrFieldOrder
	ErrDuplicateMapKey
	ErrInvalidUTF8
	ErrLengthOverflow
	// ErrIncomplete means the input ended before the value did. It is the
	// only kind that more input can resolve.
	ErrIncomplete
	ErrTypeMismatch
	ErrEnumLengthMismatch
	// ErrLengthMismatch means a container's children did not exactly fill
	// its declared length.
	ErrLengthMismatch
	ErrInvalidLength
	ErrMixedArray
	ErrInvalidVariantID
	ErrDepthExceeded
	ErrTrailingBytes
	// ErrTruncatedStream is reported by stream decoding when the input ends
	// inside a value.
	ErrTruncatedStream
	ErrValueOutOfRange
	ErrNotInteger
	ErrNonFiniteFloat
	ErrUnsupportedValue
)

var kindNames = map[ErrorKind]string{
	ErrInvalidTypeID:      "invalid type id",
	ErrInvalidFieldID:     "invalid field id",
	ErrFieldOrder:         "field order",
	ErrDuplicateMapKey:    "duplicate map key",
	ErrInvalidUTF8:        "invalid utf-8",
	ErrLengthOverflow:     "length overflow",
	ErrIncomplete:         "unexpected end of input",
	ErrTypeMismatch:       "type mismatch",
	ErrEnumLengthMismatch: "enum length mismatch",
	ErrLengthMismatch:     "length mismatch",
	ErrInvalidLength:      "invalid length",
	ErrMixedArray:         "mixed array element types",
	ErrInvalidVariantID:   "invalid variant id",
	ErrDepthExceeded:      "nesting too deep",
	ErrTrailingBytes:      "trailing bytes",
	ErrTruncatedStream:    "truncated stream",
	ErrValueOutOfRange:    "value out of range",
	ErrNotInteger:         "not an integer",
	ErrNonFiniteFloat:     "non-finite float",
	ErrUnsupportedValue:   "unsupported value",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error lets a bare kind be used as an errors.Is target:
//
//	if errors.Is(err, relish.ErrFieldOrder) { ... }
func (k ErrorKind) Error() string { return "relish: " + k.String() }

// EncodeError reports a value tree that cannot be encoded. Path locates the
// offending node: ".3" is struct field 3, "[1]" element 1, "<2>" the payload
// of enum variant 2, "{1}" the key of map entry 1 and "[1]" its value.
type EncodeError struct {
	Kind   ErrorKind
	Path   string
	Detail string
}

func (e *EncodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("relish: %v at %s: %s", e.Kind, e.Path, e.Detail)
	}
	return fmt.Sprintf("relish: %v: %s", e.Kind, e.Detail)
}

// Is matches a bare ErrorKind or another *EncodeError of the same kind.
func (e *EncodeError) Is(target error) bool {
	return matchKind(e.Kind, target)
}

// DecodeError carries offset and classification for better diagnostics.
type DecodeError struct {
	Offset int64
	Kind   ErrorKind
	Detail string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Offset > 0 {
		return fmt.Sprintf("relish: %v at %d: %s", e.Kind, e.Offset, e.Detail)
	}
	return fmt.Sprintf("relish: %v: %s", e.Kind, e.Detail)
}

// Is matches a bare ErrorKind or another *DecodeError of the same kind.
func (e *DecodeError) Is(target error) bool {
	return matchKind(e.Kind, target)
}

func matchKind(k ErrorKind, target error) bool {
	switch t := target.(type) {
	case ErrorKind:
		return k == t
	case *EncodeError:
		return t != nil && k == t.Kind
	case *DecodeError:
		return t != nil && k == t.Kind
	}
	return false
}

// IsIncomplete reports whether err means more input could complete the
// value. Stream framing uses it to tell "wait" from "corrupt".
func IsIncomplete(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == ErrIncomplete
}
