package relish

import (
	"errors"
	"fmt"
	"unicode/utf8"

	intr "github.com/relishfmt/relish/internal"
)

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithMaxDepth overrides DefaultMaxDepth. Input nested deeper than n
// containers fails with ErrDepthExceeded.
func WithMaxDepth(n int) DecoderOption {
	return func(d *Decoder) { d.maxDepth = n }
}

// Decoder decodes Relish values from byte slices. A Decoder holds only
// configuration and is safe for concurrent use.
type Decoder struct {
	maxDepth int
}

// NewDecoder creates a decoder with the given options.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDecoder = NewDecoder()

// DecodeValue decodes one value from the front of b using default options.
func DecodeValue(b []byte) (Value, int, error) { return defaultDecoder.DecodeValue(b) }

// Decode decodes exactly one value spanning all of b using default options.
func Decode(b []byte) (Value, error) { return defaultDecoder.Decode(b) }

// DecodeValue decodes one value from the front of b and returns it with the
// number of bytes it occupied. Bytes after the value are not examined.
//
// If b ends before the value does, the error has kind ErrIncomplete; every
// other error means the bytes are malformed and more input will not help.
func (d *Decoder) DecodeValue(b []byte) (Value, int, error) {
	return d.value(window{buf: b, overrun: ErrIncomplete}, 0, 0)
}

// Decode decodes a single value that must consume all of b.
func (d *Decoder) Decode(b []byte) (Value, error) {
	v, n, err := d.DecodeValue(b)
	if err != nil {
		return nil, err
	}
	if n != len(b) {
		return nil, &DecodeError{Offset: int64(n), Kind: ErrTrailingBytes,
			Detail: fmt.Sprintf("%d bytes after value", len(b)-n)}
	}
	return v, nil
}

// window is the byte range a value must fit in. base is the absolute offset
// of buf[0]. overrun is the error kind for reading past the end: at the top
// level that is ErrIncomplete, inside a container's declared length it is
// corruption.
type window struct {
	buf     []byte
	base    int64
	overrun ErrorKind
}

func (w window) errorf(off int, kind ErrorKind, format string, args ...any) error {
	return &DecodeError{Offset: w.base + int64(off), Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (w window) short(off int, format string, args ...any) error {
	return w.errorf(off, w.overrun, format, args...)
}

// sub returns the n-byte window starting at off.
func (w window) sub(off, n int, overrun ErrorKind) window {
	return window{buf: w.buf[off : off+n : off+n], base: w.base + int64(off), overrun: overrun}
}

// value decodes the TLV starting at off and returns the bytes it occupied.
func (d *Decoder) value(w window, off, depth int) (Value, int, error) {
	if off >= len(w.buf) {
		return nil, 0, w.short(off, "missing type id")
	}
	t := w.buf[off]
	if t&intr.Reserved != 0 {
		return nil, 0, w.errorf(off, ErrInvalidTypeID, "0x%02x has top bit set", t)
	}
	if !intr.ValidType(t) {
		return nil, 0, w.errorf(off, ErrInvalidTypeID, "0x%02x is not a defined type", t)
	}

	if n, ok := intr.FixedSize(t); ok {
		if avail := len(w.buf) - off - 1; avail < n {
			return nil, 0, w.short(off+1, "%v needs %d bytes, have %d", TypeID(t), n, avail)
		}
		return fixed(t, w.buf[off+1:off+1+n]), 1 + n, nil
	}

	n, used, err := intr.DecodeLen(w.buf[off+1:])
	switch {
	case errors.Is(err, intr.ErrShortLen):
		return nil, 0, w.short(off+1, "length prefix cut off")
	case errors.Is(err, intr.ErrLenOverflow):
		return nil, 0, w.errorf(off+1, ErrLengthOverflow, "%v", err)
	case err != nil:
		return nil, 0, w.errorf(off+1, ErrInvalidLength, "%v", err)
	}
	start := off + 1 + used
	if avail := len(w.buf) - start; avail < n {
		return nil, 0, w.short(start, "%v declares %d bytes, have %d", TypeID(t), n, avail)
	}
	total := 1 + used + n

	if t == intr.TString {
		p := w.buf[start : start+n]
		if !utf8.Valid(p) {
			return nil, 0, w.errorf(start, ErrInvalidUTF8, "string is not valid utf-8")
		}
		return String(p), total, nil
	}

	if depth >= d.maxDepth {
		return nil, 0, w.errorf(off, ErrDepthExceeded, "exceeds %d levels", d.maxDepth)
	}
	var v Value
	switch t {
	case intr.TArray:
		v, err = d.array(w.sub(start, n, ErrLengthMismatch), depth+1)
	case intr.TMap:
		v, err = d.mapEntries(w.sub(start, n, ErrLengthMismatch), depth+1)
	case intr.TStruct:
		v, err = d.structFields(w.sub(start, n, ErrLengthMismatch), depth+1)
	case intr.TEnum:
		v, err = d.enum(w.sub(start, n, ErrEnumLengthMismatch), depth+1)
	}
	if err != nil {
		return nil, 0, err
	}
	return v, total, nil
}

func fixed(t byte, p []byte) Value {
	switch t {
	case intr.TNull:
		return Null{}
	case intr.TBool:
		return Bool(p[0] != 0x00)
	case intr.TU8:
		return U8(p[0])
	case intr.TU16:
		return U16(intr.ReadU16(p))
	case intr.TU32:
		return U32(intr.ReadU32(p))
	case intr.TU64:
		return U64(intr.ReadU64(p))
	case intr.TU128:
		return U128(p)
	case intr.TI8:
		return I8(int8(p[0]))
	case intr.TI16:
		return I16(int16(intr.ReadU16(p)))
	case intr.TI32:
		return I32(int32(intr.ReadU32(p)))
	case intr.TI64:
		return I64(int64(intr.ReadU64(p)))
	case intr.TI128:
		return I128(p)
	case intr.TF32:
		return F32(intr.ReadF32(p))
	case intr.TF64:
		return F64(intr.ReadF64(p))
	case intr.TTimestamp:
		return Timestamp(int64(intr.ReadU64(p)))
	}
	panic(fmt.Sprintf("relish: fixed called with varsize type 0x%02x", t))
}

// array decodes concatenated element TLVs until the window is exhausted.
func (d *Decoder) array(w window, depth int) (Value, error) {
	out := Array{}
	for off := 0; off < len(w.buf); {
		v, n, err := d.value(w, off, depth)
		if err != nil {
			return nil, err
		}
		if len(out) > 0 && v.Type() != out[0].Type() {
			return nil, w.errorf(off, ErrMixedArray, "%v element in array of %v", v.Type(), out[0].Type())
		}
		out = append(out, v)
		off += n
	}
	return out, nil
}

// mapEntries decodes [key TLV][value TLV] pairs. Keys are compared by their
// canonical encoding, so two spellings of the same key (e.g. Bool 0x01 and
// 0xFF) count as duplicates.
func (d *Decoder) mapEntries(w window, depth int) (Value, error) {
	out := Map{}
	seen := make(map[string]struct{})
	for off := 0; off < len(w.buf); {
		k, kn, err := d.value(w, off, depth)
		if err != nil {
			return nil, err
		}
		canon, err := d.canonicalKey(k)
		if err != nil {
			return nil, w.errorf(off, ErrDepthExceeded, "map key: %v", err)
		}
		if _, dup := seen[canon]; dup {
			return nil, w.errorf(off, ErrDuplicateMapKey, "key appears more than once")
		}
		seen[canon] = struct{}{}
		v, vn, err := d.value(w, off+kn, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, MapEntry{Key: k, Value: v})
		off += kn + vn
	}
	return out, nil
}

// canonicalKey re-encodes a decoded key. The key already decoded within
// d.maxDepth, so the same limit cannot reject it.
func (d *Decoder) canonicalKey(k Value) (string, error) {
	s := encodeState{maxDepth: d.maxDepth}
	buf := intr.GetBuffer()
	defer intr.PutBuffer(buf)
	if err := s.value(buf, k, 0); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// structFields decodes [field_id][field_value TLV] pairs, requiring strictly
// increasing ids.
func (d *Decoder) structFields(w window, depth int) (Value, error) {
	out := Struct{}
	prev := -1
	for off := 0; off < len(w.buf); {
		id := w.buf[off]
		if id&intr.Reserved != 0 {
			return nil, w.errorf(off, ErrInvalidFieldID, "field id 0x%02x has top bit set", id)
		}
		if int(id) <= prev {
			return nil, w.errorf(off, ErrFieldOrder, "field id %d after %d: ids not strictly increasing", id, prev)
		}
		prev = int(id)
		v, n, err := d.value(w, off+1, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, Field{ID: id, Value: v})
		off += 1 + n
	}
	return out, nil
}

// enum decodes [variant_id][variant_value TLV]; the variant value must end
// exactly at the end of the window.
func (d *Decoder) enum(w window, depth int) (Value, error) {
	if len(w.buf) == 0 {
		return nil, w.errorf(0, ErrEnumLengthMismatch, "enum content too short")
	}
	vid := w.buf[0]
	if vid&intr.Reserved != 0 {
		return nil, w.errorf(0, ErrInvalidVariantID, "variant id 0x%02x has top bit set", vid)
	}
	v, n, err := d.value(w, 1, depth)
	if err != nil {
		return nil, err
	}
	if 1+n != len(w.buf) {
		return nil, w.errorf(1+n, ErrEnumLengthMismatch,
			"variant payload is %d bytes, enum declares %d", n, len(w.buf)-1)
	}
	return Enum{Variant: vid, Value: v}, nil
}
