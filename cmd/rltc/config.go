package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/relishfmt/relish"
	"github.com/relishfmt/relish/stream"
)

// configEnv names the environment variable consulted when --config is
// not given.
const configEnv = "RLTC_CONFIG"

// config holds settings shared by every command. The file form is JSONC
// so comments and trailing commas are allowed.
type config struct {
	MaxDepth        int    `json:"max_depth"`
	ChunkSize       int    `json:"chunk_size"`
	Format          string `json:"format"`
	RejectNonFinite bool   `json:"reject_non_finite"`
	LogLevel        string `json:"log_level"`
}

func defaultConfig() config {
	return config{
		MaxDepth:  relish.DefaultMaxDepth,
		ChunkSize: stream.DefaultChunkSize,
		Format:    "text",
		LogLevel:  "warn",
	}
}

// loadConfig reads path, or the file named by RLTC_CONFIG when path is
// empty, on top of the defaults. No file at all is not an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c config) validate() error {
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	switch c.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", c.Format)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c config) decoderOptions() []relish.DecoderOption {
	return []relish.DecoderOption{relish.WithMaxDepth(c.MaxDepth)}
}

func (c config) encoderOptions() []relish.EncoderOption {
	opts := []relish.EncoderOption{relish.WithEncodeMaxDepth(c.MaxDepth)}
	if c.RejectNonFinite {
		opts = append(opts, relish.WithRejectNonFinite())
	}
	return opts
}

func (c config) streamOptions(logger *slog.Logger) []stream.Option {
	return []stream.Option{
		stream.WithChunkSize(c.ChunkSize),
		stream.WithLogger(logger),
		stream.WithDecoderOptions(c.decoderOptions()...),
	}
}

// commonFlags are registered on every command's flag set.
type commonFlags struct {
	configPath      string
	maxDepth        int
	chunkSize       int
	rejectNonFinite bool
	logLevel        string
}

func (f *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "JSONC config file (default $"+configEnv+")")
	fs.IntVar(&f.maxDepth, "max-depth", relish.DefaultMaxDepth, "maximum container nesting depth")
	fs.IntVar(&f.chunkSize, "chunk-size", stream.DefaultChunkSize, "read size for streaming input")
	fs.BoolVar(&f.rejectNonFinite, "reject-non-finite", false, "refuse to encode NaN and infinities")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
}

// resolve loads the config file and applies any flag the user set
// explicitly on top of it.
func (f *commonFlags) resolve(fs *pflag.FlagSet) (config, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return cfg, err
	}
	if fs.Changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	if fs.Changed("chunk-size") {
		cfg.ChunkSize = f.chunkSize
	}
	if fs.Changed("reject-non-finite") {
		cfg.RejectNonFinite = f.rejectNonFinite
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Lookup("format") != nil && fs.Changed("format") {
		cfg.Format, _ = fs.GetString("format")
	}
	return cfg, cfg.validate()
}
