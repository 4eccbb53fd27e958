package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/relishfmt/relish"
	"github.com/relishfmt/relish/stream"
	"github.com/relishfmt/relish/textrep"
)

func decodeCommand() *command {
	return &command{
		name:    "decode",
		summary: "decode a Relish stream to text, JSON or YAML",
		setup: func(fs *pflag.FlagSet) func(*invocation, []string) error {
			fs.StringP("format", "f", "text", "output format: text, json or yaml")
			hexIn := fs.BoolP("hex", "x", false, "treat input as hex-encoded Relish")
			compact := fs.BoolP("compact", "c", false, "compact JSON output (no indentation)")
			return func(inv *invocation, args []string) error {
				return runDecode(inv, args, *hexIn, *compact)
			}
		},
	}
}

func runDecode(inv *invocation, args []string, hexIn, compact bool) error {
	r, rest, closeIn, err := openInput(args, inv.stdin, hexIn)
	if err != nil {
		return err
	}
	defer closeIn()
	if err := noArgs(rest); err != nil {
		return err
	}

	emit, finish := newEmitter(inv.stdout, inv.cfg.Format, compact)
	dec := stream.NewDecoder(r, inv.cfg.streamOptions(inv.logger)...)
	count := 0
	for v, err := range dec.All() {
		if err != nil {
			return fmt.Errorf("value %d: %w", count, err)
		}
		if err := emit(v); err != nil {
			return err
		}
		count++
	}
	inv.logger.Info("decoded", "values", count, "bytes", dec.Offset())
	return finish()
}

// newEmitter returns a function writing one value in format and a
// function that flushes whatever the format buffers.
func newEmitter(w io.Writer, format string, compact bool) (func(relish.Value) error, func() error) {
	switch format {
	case "json":
		emit := func(v relish.Value) error {
			return writeJSON(w, plainValue(v), compact)
		}
		return emit, noFlush
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		emit := func(v relish.Value) error {
			if err := enc.Encode(yamlNode(v)); err != nil {
				return fmt.Errorf("write yaml: %w", err)
			}
			return nil
		}
		return emit, enc.Close
	default:
		emit := func(v relish.Value) error {
			_, err := fmt.Fprintln(w, textrep.Format(v))
			return err
		}
		return emit, noFlush
	}
}

func noFlush() error { return nil }

// writeJSON marshals value and writes it followed by a newline.
func writeJSON(w io.Writer, value any, compact bool) error {
	var output []byte
	var err error
	if compact {
		output, err = json.Marshal(value)
	} else {
		output, err = json.MarshalIndent(value, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
