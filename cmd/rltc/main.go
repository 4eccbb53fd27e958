// Command rltc converts between Relish binary data and its text form and
// inspects Relish streams.
//
//	rltc <command> [flags] [file]
//
// Input comes from the trailing file argument when it names a regular
// file and from stdin otherwise.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
)

// command is one rltc subcommand. setup registers the command's own flags
// and returns the function that runs once flags are parsed.
type command struct {
	name    string
	summary string
	setup   func(fs *pflag.FlagSet) func(inv *invocation, args []string) error
}

// invocation carries what a command needs from its caller.
type invocation struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    config
	logger *slog.Logger
}

func commands() []*command {
	return []*command{
		encodeCommand(),
		decodeCommand(),
		validateCommand(),
		infoCommand(),
		fromCBORCommand(),
	}
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "rltc: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errors.New("no command given")
	}
	switch args[0] {
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	}

	var cmd *command
	for _, c := range commands() {
		if c.name == args[0] {
			cmd = c
			break
		}
	}
	if cmd == nil {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}

	fs := pflag.NewFlagSet("rltc "+cmd.name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	runCommand := cmd.setup(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}
	logger, err := newCommandLogger(stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	inv := &invocation{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		cfg:    cfg,
		logger: logger.With("command", cmd.name),
	}
	return runCommand(inv, fs.Args())
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: rltc <command> [flags] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands() {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, `run "rltc <command> --help" for the command's flags`)
}
