package config

import (
	"errors"
	"fmt"
	"strings"
)

// Options are the process-level settings supplied on the command line.
// Defaults live here and in the CLI flag wiring only; the engine never reads
// fixed filesystem locations itself.
type Options struct {
	// MAINTAINER NOTE: keep in sync with the flags in internal/cli/root.go.

	// ConfigPath is the engine config file (see --config).
	ConfigPath string

	// Dir is the code directory analyzed and used as the base for relative
	// issue paths (see --dir).
	Dir string

	// Out receives NUL-delimited issues. Empty or "-" means stdout (see --out).
	Out string

	// Err receives run errors delimited by "----\n". Empty or "-" means
	// stderr (see --err).
	Err string

	// SemgrepBin is the Semgrep executable to invoke (see --semgrep-bin).
	SemgrepBin string

	// Strict validates every issue against the Code Climate schema before it
	// is written (see --strict).
	Strict bool

	// LogLevel controls diagnostic logging on stderr (see --log-level).
	// Allowed values: debug, info, warn, error.
	LogLevel string
}

const (
	DefaultConfigPath = "/config.json"
	DefaultDir        = "/code"
	DefaultSemgrepBin = "semgrep"
	DefaultLogLevel   = "error"
)

func NewOptions() *Options {
	return &Options{
		ConfigPath: DefaultConfigPath,
		Dir:        DefaultDir,
		SemgrepBin: DefaultSemgrepBin,
		LogLevel:   DefaultLogLevel,
	}
}

func (o *Options) Validate() error {
	o.ConfigPath = strings.TrimSpace(o.ConfigPath)
	if o.ConfigPath == "" {
		return errors.New("--config must not be empty")
	}
	o.Dir = strings.TrimSpace(o.Dir)
	if o.Dir == "" {
		return errors.New("--dir must not be empty")
	}
	o.SemgrepBin = strings.TrimSpace(o.SemgrepBin)
	if o.SemgrepBin == "" {
		o.SemgrepBin = DefaultSemgrepBin
	}

	o.LogLevel = normalizeEnumValue(o.LogLevel)
	if o.LogLevel == "" {
		o.LogLevel = DefaultLogLevel
	}
	switch o.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported --log-level: %s (must be one of: debug, info, warn, error)", o.LogLevel)
	}
	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
