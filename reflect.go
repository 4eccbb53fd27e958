package relish

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"time"

	intr "github.com/relishfmt/relish/internal"
)

var (
	valueType = reflect.TypeFor[Value]()
	timeType  = reflect.TypeFor[time.Time]()
	u128Type  = reflect.TypeFor[U128]()
	i128Type  = reflect.TypeFor[I128]()
)

// ValueOf converts a Go value to a Relish value tree.
//
// Bools, sized integers, floats and strings map to the matching Relish
// type; int and uint map to i64 and u64. time.Time becomes a Timestamp,
// slices and arrays become Arrays and maps become Maps with entries sorted
// by encoded key. Structs map through their `relish:"<id>"` tags: a struct
// whose tagged fields are all `optional` pointers with exactly one set
// encodes as an Enum of that field's id, any other struct as a Struct.
// A nil pointer or interface becomes Null. Values that already implement
// Value pass through unchanged.
func ValueOf(v any) (Value, error) {
	if val, ok := v.(Value); ok {
		return val, nil
	}
	return valueOf(reflect.ValueOf(v))
}

func valueOf(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null{}, nil
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Null{}, nil
		}
		rv = rv.Elem()
	}
	if rv.Type().Implements(valueType) && rv.CanInterface() {
		return rv.Interface().(Value), nil
	}
	if rv.Type() == timeType {
		return TimestampOf(rv.Interface().(time.Time)), nil
	}
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Uint8:
		return U8(rv.Uint()), nil
	case reflect.Uint16:
		return U16(rv.Uint()), nil
	case reflect.Uint32:
		return U32(rv.Uint()), nil
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		return U64(rv.Uint()), nil
	case reflect.Int8:
		return I8(rv.Int()), nil
	case reflect.Int16:
		return I16(rv.Int()), nil
	case reflect.Int32:
		return I32(rv.Int()), nil
	case reflect.Int64, reflect.Int:
		return I64(rv.Int()), nil
	case reflect.Float32:
		return F32(rv.Float()), nil
	case reflect.Float64:
		return F64(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		out := make(Array, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := valueOf(rv.Index(i))
			if err != nil {
				return nil, within(err, fmt.Sprintf("[%d]", i))
			}
			out = append(out, ev)
		}
		return out, nil
	case reflect.Map:
		return mapOf(rv)
	case reflect.Struct:
		return structOf(rv)
	default:
		return nil, &EncodeError{Kind: ErrUnsupportedValue, Detail: rv.Type().String()}
	}
}

// mapOf sorts entries by encoded key so the same map always produces the
// same bytes.
func mapOf(rv reflect.Value) (Value, error) {
	type entry struct {
		key []byte
		e   MapEntry
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := valueOf(iter.Key())
		if err != nil {
			return nil, err
		}
		v, err := valueOf(iter.Value())
		if err != nil {
			return nil, err
		}
		kb, err := Encode(k)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: kb, e: MapEntry{Key: k, Value: v}})
	}
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].key, entries[j].key) < 0 })
	out := make(Map, len(entries))
	for i := range entries {
		out[i] = entries[i].e
	}
	return out, nil
}

func structOf(rv reflect.Value) (Value, error) {
	rt := rv.Type()
	type fieldInfo struct {
		tag   intr.Tag
		value reflect.Value
	}
	var fields []fieldInfo
	var optCount, presentOpt int
	for i := 0; i < rt.NumField(); i++ {
		tag, ok := taggedField(rt.Field(i))
		if !ok {
			continue
		}
		fv := rv.Field(i)
		if tag.Optional {
			optCount++
			if fv.Kind() == reflect.Pointer && !fv.IsNil() {
				presentOpt++
			}
		}
		fields = append(fields, fieldInfo{tag: tag, value: fv})
	}
	// Enum-like: all optional and exactly one present
	if len(fields) > 0 && optCount == len(fields) && presentOpt == 1 {
		for _, fi := range fields {
			if fi.value.Kind() == reflect.Pointer && !fi.value.IsNil() {
				payload, err := valueOf(fi.value)
				if err != nil {
					return nil, within(err, fmt.Sprintf("<%d>", fi.tag.ID))
				}
				return Enum{Variant: uint8(fi.tag.ID), Value: payload}, nil
			}
		}
	}
	// Struct encoding: write fields in increasing ID order
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].tag.ID < fields[j].tag.ID })
	out := make(Struct, 0, len(fields))
	for i, fi := range fields {
		if i > 0 && fields[i-1].tag.ID == fi.tag.ID {
			return nil, &EncodeError{Kind: ErrFieldOrder, Path: fmt.Sprintf(".%d", fi.tag.ID),
				Detail: "duplicate field id in " + rt.String()}
		}
		fv := fi.value
		if fi.tag.Optional && fv.Kind() == reflect.Pointer && fv.IsNil() {
			continue
		}
		if fi.tag.OmitEmpty && fv.IsZero() {
			continue
		}
		v, err := valueOf(fv)
		if err != nil {
			return nil, within(err, fmt.Sprintf(".%d", fi.tag.ID))
		}
		out = append(out, Field{ID: uint8(fi.tag.ID), Value: v})
	}
	return out, nil
}

// assign stores v into dst, converting along the same mapping ValueOf uses.
func assign(dst reflect.Value, v Value) error {
	if dst.Type() == valueType || (dst.Kind() == reflect.Interface && dst.NumMethod() == 0) {
		dst.Set(reflect.ValueOf(v))
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		if _, null := v.(Null); null {
			dst.SetZero()
			return nil
		}
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return assign(dst.Elem(), v)
	}
	switch dst.Type() {
	case timeType:
		ts, ok := v.(Timestamp)
		if !ok {
			return mismatch(dst, v)
		}
		dst.Set(reflect.ValueOf(ts.Time()))
		return nil
	case u128Type, i128Type:
		if reflect.TypeOf(v) != dst.Type() {
			return mismatch(dst, v)
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	}

	switch dst.Kind() {
	case reflect.Bool:
		b, ok := v.(Bool)
		if !ok {
			return mismatch(dst, v)
		}
		dst.SetBool(bool(b))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := signedOf(v)
		if !ok || dst.OverflowInt(i) {
			return mismatch(dst, v)
		}
		dst.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, ok := unsignedOf(v)
		if !ok || dst.OverflowUint(u) {
			return mismatch(dst, v)
		}
		dst.SetUint(u)
	case reflect.Float32:
		f, ok := v.(F32)
		if !ok {
			return mismatch(dst, v)
		}
		dst.SetFloat(float64(f))
	case reflect.Float64:
		switch f := v.(type) {
		case F64:
			dst.SetFloat(float64(f))
		case F32:
			dst.SetFloat(float64(f))
		default:
			return mismatch(dst, v)
		}
	case reflect.String:
		s, ok := v.(String)
		if !ok {
			return mismatch(dst, v)
		}
		dst.SetString(string(s))
	case reflect.Slice:
		a, ok := v.(Array)
		if !ok {
			return mismatch(dst, v)
		}
		out := reflect.MakeSlice(dst.Type(), len(a), len(a))
		for i, ev := range a {
			if err := assign(out.Index(i), ev); err != nil {
				return err
			}
		}
		dst.Set(out)
	case reflect.Array:
		a, ok := v.(Array)
		if !ok || len(a) != dst.Len() {
			return mismatch(dst, v)
		}
		for i, ev := range a {
			if err := assign(dst.Index(i), ev); err != nil {
				return err
			}
		}
	case reflect.Map:
		m, ok := v.(Map)
		if !ok {
			return mismatch(dst, v)
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(m))
		for _, e := range m {
			k := reflect.New(dst.Type().Key()).Elem()
			if err := assign(k, e.Key); err != nil {
				return err
			}
			ev := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(ev, e.Value); err != nil {
				return err
			}
			out.SetMapIndex(k, ev)
		}
		dst.Set(out)
	case reflect.Struct:
		switch x := v.(type) {
		case Struct:
			return assignStruct(dst, x)
		case Enum:
			return assignEnum(dst, x)
		}
		return mismatch(dst, v)
	default:
		return mismatch(dst, v)
	}
	return nil
}

// taggedField reports the tag of an exported field carrying one.
// Unexported fields cannot be read or set through reflection and are
// skipped even when tagged.
func taggedField(f reflect.StructField) (intr.Tag, bool) {
	if !f.IsExported() {
		return intr.Tag{}, false
	}
	return intr.ParseTag(f)
}

func assignStruct(dst reflect.Value, s Struct) error {
	rt := dst.Type()
	idToIndex := make(map[int]int)
	for i := 0; i < rt.NumField(); i++ {
		if tag, ok := taggedField(rt.Field(i)); ok {
			idToIndex[tag.ID] = i
		}
	}
	for _, f := range s {
		idx, ok := idToIndex[int(f.ID)]
		if !ok {
			// unknown field: ignore
			continue
		}
		if err := assign(dst.Field(idx), f.Value); err != nil {
			return err
		}
	}
	return nil
}

func assignEnum(dst reflect.Value, e Enum) error {
	rt := dst.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag, ok := taggedField(rt.Field(i))
		if !ok || tag.ID != int(e.Variant) {
			continue
		}
		f := dst.Field(i)
		if f.Kind() != reflect.Pointer {
			return &DecodeError{Kind: ErrTypeMismatch, Detail: "enum field must be pointer: " + rt.Field(i).Name}
		}
		return assign(f, e.Value)
	}
	return &DecodeError{Kind: ErrTypeMismatch, Detail: fmt.Sprintf("unknown enum variant %d for %v", e.Variant, rt)}
}

func signedOf(v Value) (int64, bool) {
	switch x := v.(type) {
	case I8:
		return int64(x), true
	case I16:
		return int64(x), true
	case I32:
		return int64(x), true
	case I64:
		return int64(x), true
	case I128:
		return x.Int64()
	}
	return 0, false
}

func unsignedOf(v Value) (uint64, bool) {
	switch x := v.(type) {
	case U8:
		return uint64(x), true
	case U16:
		return uint64(x), true
	case U32:
		return uint64(x), true
	case U64:
		return uint64(x), true
	case U128:
		return x.Uint64()
	}
	return 0, false
}

func mismatch(dst reflect.Value, v Value) error {
	return &DecodeError{Kind: ErrTypeMismatch, Detail: fmt.Sprintf("cannot store %v in %v", v.Type(), dst.Type())}
}
