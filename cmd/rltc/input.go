package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unicode"
)

// readInput reads the whole input from the file named by the last
// element of args when it is a regular file, and from stdin otherwise.
// With hexMode the bytes are hex text with whitespace ignored.
//
// Returns the input and the args with any consumed path removed.
func readInput(args []string, stdin io.Reader, hexMode bool) ([]byte, []string, error) {
	var data []byte
	remainingArgs := args

	if path, ok := inputPath(args); ok {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		remainingArgs = args[:len(args)-1]
	} else {
		var err error
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, nil, fmt.Errorf("read stdin: %w", err)
		}
	}

	if hexMode {
		decoded, err := decodeHexInput(data)
		if err != nil {
			return nil, nil, err
		}
		data = decoded
	}
	return data, remainingArgs, nil
}

// openInput is readInput for commands that stream. Binary input is
// returned as a reader without buffering it; hex input is read whole
// and decoded first. The returned close func is never nil.
func openInput(args []string, stdin io.Reader, hexMode bool) (io.Reader, []string, func() error, error) {
	noop := func() error { return nil }
	if hexMode {
		data, rest, err := readInput(args, stdin, true)
		if err != nil {
			return nil, nil, nil, err
		}
		return bytes.NewReader(data), rest, noop, nil
	}
	if path, ok := inputPath(args); ok {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		return f, args[:len(args)-1], f.Close, nil
	}
	return stdin, args, noop, nil
}

func inputPath(args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	candidate := args[len(args)-1]
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", false
	}
	return candidate, true
}

// decodeHexInput strips whitespace from hex text and decodes it, so
// "11 04 01 00" and "11040100" are equivalent.
func decodeHexInput(data []byte) ([]byte, error) {
	cleaned := bytes.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	if len(cleaned) == 0 {
		return nil, fmt.Errorf("empty input after stripping whitespace from hex")
	}

	decoded := make([]byte, hex.DecodedLen(len(cleaned)))
	count, err := hex.Decode(decoded, cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded[:count], nil
}

// openOutput returns stdout for "" or "-" and creates path otherwise.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

// noArgs rejects positional arguments left after the input file.
func noArgs(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected argument %q (input file not found?)", args[0])
	}
	return nil
}
