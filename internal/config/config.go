package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://ccsemgrep.dev/schemas/config.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// RunSpec is one configured Semgrep invocation. It is either ConfigFiles or
// InlinePattern; no other implementations exist.
type RunSpec interface {
	isRunSpec()
	validate() error
}

// ConfigFiles runs Semgrep against one or more rule configuration files.
type ConfigFiles struct {
	Configs []string `json:"configs"`
}

// InlinePattern runs a single pattern defined directly in the engine config.
type InlinePattern struct {
	Pattern string   `json:"pattern"`
	Lang    string   `json:"lang"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

func (ConfigFiles) isRunSpec()   {}
func (InlinePattern) isRunSpec() {}

func (c ConfigFiles) validate() error {
	if len(c.Configs) == 0 {
		return errors.New("configs must list at least one file")
	}
	for i, p := range c.Configs {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("configs[%d] is empty", i)
		}
	}
	return nil
}

func (p InlinePattern) validate() error {
	if p.Pattern == "" {
		return errors.New("pattern must not be empty")
	}
	if p.Lang == "" {
		return errors.New("lang must not be empty")
	}
	return nil
}

// Config is the engine configuration read from the Code Climate config file.
// It is read-only once loaded.
type Config struct {
	// IncludePaths are resolved against the code directory; entries that do
	// not exist are skipped.
	IncludePaths []string

	// Runs are executed in order, one Semgrep invocation each.
	Runs []RunSpec
}

type rawConfig struct {
	IncludePaths []string          `json:"include_paths"`
	Runs         []json.RawMessage `json:"runs"`
}

type rawRun struct {
	Configs []string `json:"configs"`
	Pattern *string  `json:"pattern"`
	Lang    *string  `json:"lang"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse embedded config schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add embedded config schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// LoadFile reads and validates the engine config at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open engine config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes an engine config, validates it against the config schema and
// returns the typed result.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read engine config: %w", err)
	}

	sch, err := schema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	cfg := &Config{IncludePaths: raw.IncludePaths}
	for i, msg := range raw.Runs {
		spec, err := decodeRun(msg)
		if err != nil {
			return nil, fmt.Errorf("invalid engine config: runs[%d]: %w", i, err)
		}
		cfg.Runs = append(cfg.Runs, spec)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeRun(msg json.RawMessage) (RunSpec, error) {
	var r rawRun
	if err := json.Unmarshal(msg, &r); err != nil {
		return nil, err
	}

	hasConfigs := r.Configs != nil
	hasInline := r.Pattern != nil || r.Lang != nil || r.Include != nil || r.Exclude != nil
	switch {
	case hasConfigs && hasInline:
		return nil, errors.New("configs cannot be combined with pattern, lang, include or exclude")
	case hasConfigs:
		return ConfigFiles{Configs: r.Configs}, nil
	case r.Pattern != nil && r.Lang != nil:
		return InlinePattern{Pattern: *r.Pattern, Lang: *r.Lang, Include: r.Include, Exclude: r.Exclude}, nil
	default:
		return nil, errors.New("run must set either configs or both pattern and lang")
	}
}

// Validate checks the config invariants. Load calls it; configs built in code
// should call it before use.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("engine config is nil")
	}
	if len(c.Runs) == 0 {
		return errors.New("invalid engine config: at least one run is required")
	}
	for i, r := range c.Runs {
		if r == nil {
			return fmt.Errorf("invalid engine config: runs[%d] is nil", i)
		}
		if err := r.validate(); err != nil {
			return fmt.Errorf("invalid engine config: runs[%d]: %w", i, err)
		}
	}
	return nil
}

// ConfigPaths returns every rule file referenced by ConfigFiles runs, in run
// order, without duplicates.
func (c *Config) ConfigPaths() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range c.Runs {
		cf, ok := r.(ConfigFiles)
		if !ok {
			continue
		}
		for _, p := range cf.Configs {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
