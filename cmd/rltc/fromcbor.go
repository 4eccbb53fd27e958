package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"slices"
	"strconv"
	"time"

	gocbor "github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"

	"github.com/relishfmt/relish"
	"github.com/relishfmt/relish/stream"
	"github.com/relishfmt/relish/textrep"
)

// toolDecMode decodes into the generic CBOR data model: map[any]any for
// maps, uint64/int64/big.Int for integers and float64 for floats.
var toolDecMode gocbor.DecMode

func init() {
	var err error
	toolDecMode, err = gocbor.DecOptions{}.DecMode()
	if err != nil {
		panic("rltc: cbor decoder initialization failed: " + err.Error())
	}
}

func fromCBORCommand() *command {
	return &command{
		name:    "from-cbor",
		summary: "convert a CBOR sequence to a Relish stream",
		setup: func(fs *pflag.FlagSet) func(*invocation, []string) error {
			out := fs.StringP("out", "o", "-", "output file (- for stdout)")
			hexIn := fs.BoolP("hex", "x", false, "treat input as hex-encoded CBOR")
			hexOut := fs.Bool("hex-out", false, "write hex instead of binary")
			text := fs.Bool("text", false, "write the text form instead of binary")
			return func(inv *invocation, args []string) error {
				return runFromCBOR(inv, args, *out, *hexIn, *hexOut, *text)
			}
		},
	}
}

func runFromCBOR(inv *invocation, args []string, out string, hexIn, hexOut, text bool) error {
	data, rest, err := readInput(args, inv.stdin, hexIn)
	if err != nil {
		return err
	}
	if err := noArgs(rest); err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty input: expected CBOR data")
	}

	w, closeOut, err := openOutput(out, inv.stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	var sink io.Writer = w
	if hexOut {
		sink = hex.NewEncoder(w)
	}
	sw := stream.NewWriter(sink, inv.logger, inv.cfg.encoderOptions()...)

	decoder := toolDecMode.NewDecoder(bytes.NewReader(data))
	for item := 0; ; item++ {
		var raw any
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode CBOR sequence item %d: %w", item, err)
		}
		v, err := fromCBOR(raw)
		if err != nil {
			return fmt.Errorf("item %d: %w", item, err)
		}
		if text {
			if _, err := fmt.Fprintln(w, textrep.Format(v)); err != nil {
				return err
			}
			continue
		}
		if err := sw.WriteValue(v); err != nil {
			return fmt.Errorf("item %d: %w", item, err)
		}
	}
	if hexOut && !text {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	inv.logger.Info("converted", "frames", sw.Frames())
	return closeOut()
}

// fromCBOR maps a decoded CBOR item onto the Relish data model.
//
// Byte strings become arrays of u8. Tags 0 and 1 (date/time) become
// timestamps, and any other tag below 128 becomes an enum whose variant
// is the tag number. Map entries are ordered by the encoding of their
// keys so that the output is deterministic.
func fromCBOR(item any) (relish.Value, error) {
	switch x := item.(type) {
	case nil:
		return relish.Null{}, nil
	case bool:
		return relish.Bool(x), nil
	case uint64:
		return relish.U64(x), nil
	case int64:
		return relish.I64(x), nil
	case big.Int:
		return fromBigInt(&x)
	case *big.Int:
		return fromBigInt(x)
	case float64:
		return relish.F64(x), nil
	case string:
		return relish.String(x), nil
	case []byte:
		return byteArray(x), nil
	case gocbor.ByteString:
		return byteArray([]byte(x)), nil
	case time.Time:
		return relish.TimestampOf(x), nil
	case []any:
		arr := make(relish.Array, len(x))
		for i, e := range x {
			v, err := fromCBOR(e)
			if err != nil {
				return nil, atPath(err, "["+strconv.Itoa(i)+"]")
			}
			arr[i] = v
		}
		return arr, nil
	case map[any]any:
		return fromCBORMap(x)
	case gocbor.Tag:
		if x.Number >= 128 {
			return nil, unsupported("tag %d has no relish form", x.Number)
		}
		v, err := fromCBOR(x.Content)
		if err != nil {
			return nil, atPath(err, "<"+strconv.FormatUint(x.Number, 10)+">")
		}
		return relish.Enum{Variant: uint8(x.Number), Value: v}, nil
	}
	return nil, unsupported("%T has no relish form", item)
}

func fromBigInt(x *big.Int) (relish.Value, error) {
	if x.Sign() >= 0 {
		return relish.NewU128(x)
	}
	return relish.NewI128(x)
}

func byteArray(b []byte) relish.Array {
	arr := make(relish.Array, len(b))
	for i, c := range b {
		arr[i] = relish.U8(c)
	}
	return arr
}

func fromCBORMap(m map[any]any) (relish.Value, error) {
	type entry struct {
		key   []byte
		entry relish.MapEntry
	}
	entries := make([]entry, 0, len(m))
	for k, e := range m {
		key, err := fromCBOR(k)
		if err != nil {
			return nil, atPath(err, "{"+fmt.Sprint(k)+"}")
		}
		val, err := fromCBOR(e)
		if err != nil {
			return nil, atPath(err, "["+fmt.Sprint(k)+"]")
		}
		encoded, err := relish.Encode(key)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: encoded, entry: relish.MapEntry{Key: key, Value: val}})
	}
	slices.SortFunc(entries, func(a, b entry) int { return bytes.Compare(a.key, b.key) })
	out := make(relish.Map, len(entries))
	for i, e := range entries {
		out[i] = e.entry
	}
	return out, nil
}

func unsupported(format string, args ...any) error {
	return &relish.EncodeError{Kind: relish.ErrUnsupportedValue, Detail: fmt.Sprintf(format, args...)}
}

func atPath(err error, seg string) error {
	var ee *relish.EncodeError
	if errors.As(err, &ee) {
		ee.Path = seg + ee.Path
	}
	return err
}
