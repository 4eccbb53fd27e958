package relish

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	intr "github.com/relishfmt/relish/internal"
)

// DefaultMaxDepth bounds container nesting for both encoding and decoding.
const DefaultMaxDepth = 512

// EncoderOption configures an Encoder.
type EncoderOption func(*encodeState)

// WithRejectNonFinite makes NaN and ±Inf floats an ErrNonFiniteFloat error.
func WithRejectNonFinite() EncoderOption {
	return func(s *encodeState) { s.rejectNonFinite = true }
}

// WithEncodeMaxDepth overrides DefaultMaxDepth for encoding.
func WithEncodeMaxDepth(n int) EncoderOption {
	return func(s *encodeState) { s.maxDepth = n }
}

// Encoder writes Relish-encoded values to an io.Writer.
type Encoder struct {
	w     io.Writer
	state encodeState
}

// NewEncoder creates a new streaming encoder. Values written by successive
// Encode calls are concatenated with no framing beyond their own TLVs.
func NewEncoder(w io.Writer, opts ...EncoderOption) *Encoder {
	return &Encoder{w: w, state: newEncodeState(opts)}
}

// Encode writes the TLV for v. The value is fully validated before any
// byte reaches the underlying writer.
func (e *Encoder) Encode(v Value) error {
	buf := intr.GetBuffer()
	defer intr.PutBuffer(buf)
	if err := e.state.value(buf, v, 0); err != nil {
		return err
	}
	_, err := e.w.Write(buf.Bytes())
	return err
}

// Encode returns the encoding of v.
func Encode(v Value, opts ...EncoderOption) ([]byte, error) {
	return AppendEncode(nil, v, opts...)
}

// AppendEncode appends the encoding of v to dst. On error dst is returned
// unchanged.
func AppendEncode(dst []byte, v Value, opts ...EncoderOption) ([]byte, error) {
	s := newEncodeState(opts)
	buf := bytes.NewBuffer(dst)
	if err := s.value(buf, v, 0); err != nil {
		return dst, err
	}
	return buf.Bytes(), nil
}

type encodeState struct {
	rejectNonFinite bool
	maxDepth        int
}

func newEncodeState(opts []EncoderOption) encodeState {
	s := encodeState{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// value writes the TLV for v.
func (s *encodeState) value(w *bytes.Buffer, v Value, depth int) error {
	switch x := v.(type) {
	case nil:
		return &EncodeError{Kind: ErrUnsupportedValue, Detail: "nil value"}
	case Null:
		return intr.WriteNullTLV(w)
	case Bool:
		return intr.WriteBoolTLV(w, bool(x))
	case U8:
		return intr.WriteU8TLV(w, uint8(x))
	case U16:
		return intr.WriteU16TLV(w, uint16(x))
	case U32:
		return intr.WriteU32TLV(w, uint32(x))
	case U64:
		return intr.WriteU64TLV(w, uint64(x))
	case U128:
		return intr.WriteU128TLV(w, x)
	case I8:
		return intr.WriteI8TLV(w, int8(x))
	case I16:
		return intr.WriteI16TLV(w, int16(x))
	case I32:
		return intr.WriteI32TLV(w, int32(x))
	case I64:
		return intr.WriteI64TLV(w, int64(x))
	case I128:
		return intr.WriteI128TLV(w, x)
	case F32:
		if s.rejectNonFinite && !finite(float64(x)) {
			return &EncodeError{Kind: ErrNonFiniteFloat, Detail: fmt.Sprint(float32(x))}
		}
		return intr.WriteF32TLV(w, float32(x))
	case F64:
		if s.rejectNonFinite && !finite(float64(x)) {
			return &EncodeError{Kind: ErrNonFiniteFloat, Detail: fmt.Sprint(float64(x))}
		}
		return intr.WriteF64TLV(w, float64(x))
	case Timestamp:
		return intr.WriteTimestampTLV(w, int64(x))
	case String:
		return s.string(w, string(x))
	case Array, Map, Struct, Enum:
		if depth >= s.maxDepth {
			return &EncodeError{Kind: ErrDepthExceeded, Detail: "exceeds " + strconv.Itoa(s.maxDepth) + " levels"}
		}
		return s.composite(w, x, depth+1)
	default:
		return &EncodeError{Kind: ErrUnsupportedValue, Detail: fmt.Sprintf("%T", v)}
	}
}

func (s *encodeState) string(w *bytes.Buffer, str string) error {
	if !utf8.ValidString(str) {
		return &EncodeError{Kind: ErrInvalidUTF8, Detail: strconv.QuoteToASCII(str)}
	}
	if len(str) > intr.MaxLen {
		return &EncodeError{Kind: ErrLengthOverflow, Detail: strconv.Itoa(len(str)) + " byte string"}
	}
	if err := intr.WriteVarHeader(w, intr.TString, len(str)); err != nil {
		return err
	}
	_, err := w.WriteString(str)
	return err
}

// composite buffers the payload of a container so its length can be
// written ahead of it.
func (s *encodeState) composite(w *bytes.Buffer, v Value, depth int) error {
	buf := intr.GetBuffer()
	defer intr.PutBuffer(buf)

	var err error
	switch x := v.(type) {
	case Array:
		err = s.array(buf, x, depth)
	case Map:
		err = s.mapEntries(buf, x, depth)
	case Struct:
		err = s.structFields(buf, x, depth)
	case Enum:
		err = s.enum(buf, x, depth)
	}
	if err != nil {
		return err
	}
	if buf.Len() > intr.MaxLen {
		return &EncodeError{Kind: ErrLengthOverflow, Detail: fmt.Sprintf("%d byte %v payload", buf.Len(), v.Type())}
	}
	if err := intr.WriteVarHeader(w, byte(v.Type()), buf.Len()); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func (s *encodeState) array(w *bytes.Buffer, a Array, depth int) error {
	for i, elem := range a {
		seg := "[" + strconv.Itoa(i) + "]"
		if elem != nil && i > 0 && a[0] != nil && elem.Type() != a[0].Type() {
			return &EncodeError{Kind: ErrMixedArray, Path: seg,
				Detail: fmt.Sprintf("%v element in array of %v", elem.Type(), a[0].Type())}
		}
		if err := s.value(w, elem, depth); err != nil {
			return within(err, seg)
		}
	}
	return nil
}

func (s *encodeState) mapEntries(w *bytes.Buffer, m Map, depth int) error {
	seen := make(map[string]int, len(m))
	for i, e := range m {
		start := w.Len()
		if err := s.value(w, e.Key, depth); err != nil {
			return within(err, "{"+strconv.Itoa(i)+"}")
		}
		key := string(w.Bytes()[start:])
		if first, dup := seen[key]; dup {
			return &EncodeError{Kind: ErrDuplicateMapKey, Path: "{" + strconv.Itoa(i) + "}",
				Detail: fmt.Sprintf("key repeats entry %d", first)}
		}
		seen[key] = i
		if err := s.value(w, e.Value, depth); err != nil {
			return within(err, "["+strconv.Itoa(i)+"]")
		}
	}
	return nil
}

// structFields writes fields as [field_id][field_value TLV] in the order
// given, which must be strictly ascending.
func (s *encodeState) structFields(w *bytes.Buffer, st Struct, depth int) error {
	prev := -1
	for _, f := range st {
		seg := "." + strconv.Itoa(int(f.ID))
		if f.ID&intr.Reserved != 0 {
			return &EncodeError{Kind: ErrInvalidFieldID, Path: seg, Detail: "top bit set"}
		}
		if int(f.ID) <= prev {
			detail := "field ids not strictly increasing"
			if int(f.ID) == prev {
				detail = "duplicate field id"
			}
			return &EncodeError{Kind: ErrFieldOrder, Path: seg, Detail: detail}
		}
		prev = int(f.ID)
		w.WriteByte(f.ID)
		if err := s.value(w, f.Value, depth); err != nil {
			return within(err, seg)
		}
	}
	return nil
}

// enum writes [variant_id][variant_value TLV].
func (s *encodeState) enum(w *bytes.Buffer, e Enum, depth int) error {
	seg := "<" + strconv.Itoa(int(e.Variant)) + ">"
	if e.Variant&intr.Reserved != 0 {
		return &EncodeError{Kind: ErrInvalidVariantID, Path: seg, Detail: "top bit set"}
	}
	w.WriteByte(e.Variant)
	if err := s.value(w, e.Value, depth); err != nil {
		return within(err, seg)
	}
	return nil
}

// within prefixes the path of an EncodeError raised below a container.
func within(err error, seg string) error {
	if ee, ok := err.(*EncodeError); ok {
		ee.Path = seg + ee.Path
	}
	return err
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
