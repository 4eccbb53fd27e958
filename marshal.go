package relish

import (
	"reflect"
)

// Marshal encodes v into a Relish TLV byte slice. See ValueOf for how Go
// values map to Relish types.
func Marshal(v any, opts ...EncoderOption) ([]byte, error) {
	val, err := ValueOf(v)
	if err != nil {
		return nil, err
	}
	return Encode(val, opts...)
}

// Unmarshal decodes data into v, which must be a non-nil pointer. Struct
// fields absent from data keep their existing values and unknown field ids
// are ignored.
func Unmarshal(data []byte, v any, opts ...DecoderOption) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &DecodeError{Kind: ErrTypeMismatch, Detail: "Unmarshal requires a non-nil pointer"}
	}
	val, err := NewDecoder(opts...).Decode(data)
	if err != nil {
		return err
	}
	return assign(rv.Elem(), val)
}
