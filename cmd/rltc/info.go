package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"

	"github.com/relishfmt/relish"
	intr "github.com/relishfmt/relish/internal"
	"github.com/relishfmt/relish/stream"
)

func infoCommand() *command {
	return &command{
		name:    "info",
		summary: "summarize each value of a Relish stream",
		setup: func(fs *pflag.FlagSet) func(*invocation, []string) error {
			hexIn := fs.BoolP("hex", "x", false, "treat input as hex-encoded Relish")
			return func(inv *invocation, args []string) error {
				return runInfo(inv, args, *hexIn)
			}
		},
	}
}

func runInfo(inv *invocation, args []string, hexIn bool) error {
	data, rest, err := readInput(args, inv.stdin, hexIn)
	if err != nil {
		return err
	}
	if err := noArgs(rest); err != nil {
		return err
	}

	buf := stream.NewBuffer(inv.cfg.decoderOptions()...)
	buf.Append(data)
	offset := 0
	for frame := 0; ; frame++ {
		res := buf.TryDecodeOne()
		switch res.Status {
		case stream.StatusError:
			return fmt.Errorf("frame %d at offset %d: %w", frame, offset, res.Err)
		case stream.StatusNeedMore:
			if buf.Len() > 0 {
				return fmt.Errorf("frame %d at offset %d: %w", frame, offset, relish.ErrTruncatedStream)
			}
			inv.logger.Info("summarized", "frames", frame, "bytes", offset)
			return nil
		}
		raw := data[offset : offset+res.Consumed]
		if err := printFrame(inv.stdout, frame, offset, raw, res.Value); err != nil {
			return err
		}
		offset += res.Consumed
	}
}

// printFrame writes the summary of one encoded value.
func printFrame(w io.Writer, frame, offset int, raw []byte, v relish.Value) error {
	t := v.Type()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Frame %d @ %d\n", frame, offset)
	fmt.Fprintf(&sb, "  Type: %s (0x%02x)\n", t, byte(t))
	if t.VarSize() {
		n, _, err := intr.DecodeLen(raw[1:])
		if err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		fmt.Fprintf(&sb, "  Length: %d\n", n)
	} else {
		n, _ := t.FixedSize()
		fmt.Fprintf(&sb, "  Length: %d\n", n)
	}
	switch x := v.(type) {
	case relish.Struct:
		ids := make([]string, len(x))
		for i, f := range x {
			ids[i] = strconv.Itoa(int(f.ID))
		}
		fmt.Fprintf(&sb, "  Fields: %s\n", strings.Join(ids, ","))
	case relish.Array:
		fmt.Fprintf(&sb, "  Elements: %d\n", len(x))
	case relish.Map:
		fmt.Fprintf(&sb, "  Entries: %d\n", len(x))
	case relish.Enum:
		fmt.Fprintf(&sb, "  Variant: %d (%s)\n", x.Variant, x.Value.Type())
	}
	sum := blake3.Sum256(raw)
	fmt.Fprintf(&sb, "  BLAKE3: %s\n", hex.EncodeToString(sum[:]))
	_, err := io.WriteString(w, sb.String())
	return err
}
