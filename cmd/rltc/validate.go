package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/relishfmt/relish/stream"
)

func validateCommand() *command {
	return &command{
		name:    "validate",
		summary: "check that input is a well-formed Relish stream",
		setup: func(fs *pflag.FlagSet) func(*invocation, []string) error {
			hexIn := fs.BoolP("hex", "x", false, "treat input as hex-encoded Relish")
			quiet := fs.BoolP("quiet", "q", false, "print nothing on success")
			return func(inv *invocation, args []string) error {
				return runValidate(inv, args, *hexIn, *quiet)
			}
		},
	}
}

func runValidate(inv *invocation, args []string, hexIn, quiet bool) error {
	r, rest, closeIn, err := openInput(args, inv.stdin, hexIn)
	if err != nil {
		return err
	}
	defer closeIn()
	if err := noArgs(rest); err != nil {
		return err
	}

	dec := stream.NewDecoder(r, inv.cfg.streamOptions(inv.logger)...)
	count := 0
	for _, err := range dec.All() {
		if err != nil {
			return fmt.Errorf("invalid: value %d: %w", count, err)
		}
		count++
	}
	if !quiet {
		fmt.Fprintf(inv.stdout, "valid: %d values, %d bytes\n", count, dec.Offset())
	}
	return nil
}
