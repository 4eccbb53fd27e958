package textrep

import (
	"math"
	"strconv"
	"strings"

	"github.com/relishfmt/relish"
)

// Format renders v as a single-line literal that Parse reads back to an
// equal value. Every number carries its width suffix, so no type hints
// are needed. NaN payload bits are not preserved.
func Format(v relish.Value) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

func format(sb *strings.Builder, v relish.Value) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("none")
	case relish.Null:
		sb.WriteString("null")
	case relish.Bool:
		sb.WriteString(strconv.FormatBool(bool(x)))
	case relish.U8:
		suffixed(sb, strconv.FormatUint(uint64(x), 10), "u8")
	case relish.U16:
		suffixed(sb, strconv.FormatUint(uint64(x), 10), "u16")
	case relish.U32:
		suffixed(sb, strconv.FormatUint(uint64(x), 10), "u32")
	case relish.U64:
		suffixed(sb, strconv.FormatUint(uint64(x), 10), "u64")
	case relish.U128:
		suffixed(sb, x.String(), "u128")
	case relish.I8:
		suffixed(sb, strconv.FormatInt(int64(x), 10), "i8")
	case relish.I16:
		suffixed(sb, strconv.FormatInt(int64(x), 10), "i16")
	case relish.I32:
		suffixed(sb, strconv.FormatInt(int64(x), 10), "i32")
	case relish.I64:
		suffixed(sb, strconv.FormatInt(int64(x), 10), "i64")
	case relish.I128:
		suffixed(sb, x.String(), "i128")
	case relish.F32:
		formatFloat(sb, float64(x), 32)
	case relish.F64:
		formatFloat(sb, float64(x), 64)
	case relish.String:
		sb.WriteString(strconv.Quote(string(x)))
	case relish.Timestamp:
		sb.WriteString("ts(")
		sb.WriteString(strconv.FormatInt(int64(x), 10))
		sb.WriteByte(')')
	case relish.Array:
		sb.WriteString("array[")
		for i, e := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, e)
		}
		sb.WriteByte(']')
	case relish.Map:
		sb.WriteString("map{")
		for i, e := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, e.Key)
			sb.WriteString(": ")
			format(sb, e.Value)
		}
		sb.WriteByte('}')
	case relish.Struct:
		sb.WriteString("struct{")
		for i, f := range x {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(strconv.Itoa(int(f.ID)))
			sb.WriteString(": ")
			format(sb, f.Value)
		}
		sb.WriteByte('}')
	case relish.Enum:
		sb.WriteString("enum<")
		sb.WriteString(strconv.Itoa(int(x.Variant)))
		sb.WriteString(">(")
		format(sb, x.Value)
		sb.WriteByte(')')
	}
}

func suffixed(sb *strings.Builder, num, suffix string) {
	sb.WriteString(num)
	sb.WriteString(suffix)
}

// formatFloat writes the shortest text that parses back to f. Non-finite
// values use a cast since nan and inf take no suffix.
func formatFloat(sb *strings.Builder, f float64, bits int) {
	suffix := "f" + strconv.Itoa(bits)
	var word string
	switch {
	case math.IsNaN(f):
		word = "nan"
	case math.IsInf(f, 1):
		word = "inf"
	case math.IsInf(f, -1):
		word = "-inf"
	default:
		s := strconv.FormatFloat(f, 'g', -1, bits)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		suffixed(sb, s, suffix)
		return
	}
	sb.WriteString("(" + suffix + ") " + word)
}
