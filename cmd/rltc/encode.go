package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/relishfmt/relish/stream"
	"github.com/relishfmt/relish/textrep"
)

func encodeCommand() *command {
	return &command{
		name:    "encode",
		summary: "encode text-form values to Relish binary",
		setup: func(fs *pflag.FlagSet) func(*invocation, []string) error {
			out := fs.StringP("out", "o", "-", "output file (- for stdout)")
			hexOut := fs.Bool("hex", false, "write hex instead of binary")
			check := fs.Bool("check", false, "parse and encode without writing output")
			return func(inv *invocation, args []string) error {
				return runEncode(inv, args, *out, *hexOut, *check)
			}
		},
	}
}

func runEncode(inv *invocation, args []string, out string, hexOut, check bool) error {
	src, rest, err := readInput(args, inv.stdin, false)
	if err != nil {
		return err
	}
	if err := noArgs(rest); err != nil {
		return err
	}
	values, err := textrep.Parse(src)
	if err != nil {
		return err
	}

	var w io.Writer = io.Discard
	closeOut := func() error { return nil }
	if !check {
		w, closeOut, err = openOutput(out, inv.stdout)
		if err != nil {
			return err
		}
	}
	var hexEnc io.Writer
	if hexOut && !check {
		hexEnc = hex.NewEncoder(w)
	}
	target := w
	if hexEnc != nil {
		target = hexEnc
	}

	sw := stream.NewWriter(target, inv.logger, inv.cfg.encoderOptions()...)
	for i, v := range values {
		if err := sw.WriteValue(v); err != nil {
			closeOut()
			return fmt.Errorf("value %d: %w", i, err)
		}
	}
	if hexEnc != nil {
		if _, err := io.WriteString(w, "\n"); err != nil {
			closeOut()
			return fmt.Errorf("write: %w", err)
		}
	}
	inv.logger.Info("encoded", "values", sw.Frames())
	return closeOut()
}
