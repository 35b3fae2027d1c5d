// Package config loads scalargrad run configuration: variable bindings,
// expressions to differentiate, and output settings.
//
// Sources are applied in order: defaults, YAML file, environment variables.
//
// Example file:
//
//	variables:
//	  x: 2.0
//	  w: {value: 3.0, label: weight}
//	expressions:
//	  - x * w + x ** 2
//	output:
//	  format: text
//	  precision: 4
//	parallel:
//	  workers: 4
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Environment variables read by Load.
const (
	EnvFormat    = "SCALARGRAD_FORMAT"
	EnvPrecision = "SCALARGRAD_PRECISION"
	EnvWorkers   = "SCALARGRAD_WORKERS"
	EnvLogLevel  = "SCALARGRAD_LOG_LEVEL"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full run configuration.
type Config struct {
	// Variables binds identifier names to leaf values.
	Variables map[string]Variable `yaml:"variables"`

	// Expressions are differentiated in order; results keep that order.
	Expressions []string `yaml:"expressions"`

	// Output controls how results are printed.
	Output OutputConfig `yaml:"output"`

	// Parallel controls batch evaluation.
	Parallel ParallelConfig `yaml:"parallel"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Variable is a leaf value with an optional display label.
//
// In YAML it may be written as a bare number or as {value, label}.
type Variable struct {
	Value float64 `yaml:"value"`
	Label string  `yaml:"label,omitempty"`
}

// OutputConfig controls result printing.
type OutputConfig struct {
	Format    string `yaml:"format"`
	Precision int    `yaml:"precision"`
}

// ParallelConfig controls batch evaluation. Workers == 0 means one per CPU.
type ParallelConfig struct {
	Workers int `yaml:"workers"`
}

// UnmarshalYAML accepts both `x: 2` and `x: {value: 2, label: x}`.
func (v *Variable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: variable value: %w", node.Line, err)
		}
		*v = Variable{Value: f}
		return nil
	}

	type plain Variable
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = Variable(p)
	return nil
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Variables: map[string]Variable{},
		Output: OutputConfig{
			Format:    FormatText,
			Precision: 4,
		},
		LogLevel: "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := decode(bytes.NewReader(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML data over the defaults and validates the result.
// The environment is not consulted.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if cfg.Variables == nil {
		cfg.Variables = map[string]Variable{}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvFormat); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv(EnvPrecision); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, EnvPrecision, err)
		}
		cfg.Output.Precision = p
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, EnvWorkers, err)
		}
		cfg.Parallel.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks every field and names the first offending one.
func (c Config) Validate() error {
	for name := range c.Variables {
		if !isIdentifier(name) {
			return fmt.Errorf("%w: variables: %q is not an identifier", ErrInvalid, name)
		}
	}
	for i, src := range c.Expressions {
		if src == "" {
			return fmt.Errorf("%w: expressions[%d] is empty", ErrInvalid, i)
		}
	}
	switch c.Output.Format {
	case FormatText, FormatYAML:
	default:
		return fmt.Errorf("%w: output.format must be %q or %q, got %q", ErrInvalid, FormatText, FormatYAML, c.Output.Format)
	}
	if c.Output.Precision < 0 || c.Output.Precision > 17 {
		return fmt.Errorf("%w: output.precision must be in [0, 17], got %d", ErrInvalid, c.Output.Precision)
	}
	if c.Parallel.Workers < 0 {
		return fmt.Errorf("%w: parallel.workers must be >= 0, got %d", ErrInvalid, c.Parallel.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level must be debug, info, warn or error, got %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// Values returns the bare variable values.
func (c Config) Values() map[string]float64 {
	out := make(map[string]float64, len(c.Variables))
	for name, v := range c.Variables {
		out[name] = v.Value
	}
	return out
}

// Set binds name to value, keeping any existing label.
func (c *Config) Set(name string, value float64) {
	if c.Variables == nil {
		c.Variables = map[string]Variable{}
	}
	v := c.Variables[name]
	v.Value = value
	c.Variables[name] = v
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
