package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Provider is one execution provider appended to a model configuration, in
// file order, with its options.
type Provider struct {
	Name    string            `json:"name" yaml:"name" toml:"name"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
}

// OptionKeys returns the option keys in a stable order.
func (p Provider) OptionKeys() []string {
	keys := make([]string, 0, len(p.Options))
	for k := range p.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Config holds runtime parameters for the CLI and the shared library.
// Zero values mean "unspecified"; Default and ApplyEnv fill them in.
type Config struct {
	ModelsDir           string     `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	DefaultModel        string     `json:"default_model" yaml:"default_model" toml:"default_model"`
	LogLevel            string     `json:"log_level" yaml:"log_level" toml:"log_level"`
	MaxLength           int        `json:"max_length" yaml:"max_length" toml:"max_length"`
	MultimodalMaxLength int        `json:"multimodal_max_length" yaml:"multimodal_max_length" toml:"multimodal_max_length"`
	Providers           []Provider `json:"providers" yaml:"providers" toml:"providers"`
	MetricsFile         string     `json:"metrics_file" yaml:"metrics_file" toml:"metrics_file"`
	Parallel            int        `json:"parallel" yaml:"parallel" toml:"parallel"`
}

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultModelsDir           = "~/models/genai"
	DefaultLogLevel            = "info"
	DefaultMultimodalMaxLength = 2048
	DefaultParallel            = 1
)

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	c.fill()
	return c
}

func (c *Config) fill() {
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MultimodalMaxLength == 0 {
		c.MultimodalMaxLength = DefaultMultimodalMaxLength
	}
	if c.Parallel <= 0 {
		c.Parallel = DefaultParallel
	}
}

// Load reads a configuration file based on its extension and applies
// defaults to unset fields.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.fill()
	return cfg, nil
}

// Environment overrides.
const (
	EnvModelsDir   = "GENAIBRIDGE_MODELS_DIR"
	EnvLogLevel    = "GENAIBRIDGE_LOG_LEVEL"
	EnvMetricsFile = "GENAIBRIDGE_METRICS_FILE"
	EnvMaxLength   = "GENAIBRIDGE_MAX_LENGTH"
)

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() error { return c.ApplyEnvWith(os.Getenv) }

// ApplyEnvWith overrides fields using getenv for lookups.
func (c *Config) ApplyEnvWith(getenv func(string) string) error {
	if v := getenv(EnvModelsDir); v != "" {
		c.ModelsDir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvMetricsFile); v != "" {
		c.MetricsFile = v
	}
	if v := getenv(EnvMaxLength); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxLength, err)
		}
		c.MaxLength = n
	}
	return nil
}

// LogLevel maps a log_level value to a zerolog level. Empty and unknown
// values fall back to info, the default; Validate rejects unknown ones earlier.
func LogLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Validate rejects values no caller could mean.
func (c Config) Validate() error {
	if c.MaxLength < 0 {
		return fmt.Errorf("max_length must be >= 0, got %d", c.MaxLength)
	}
	if c.Parallel < 0 {
		return fmt.Errorf("parallel must be >= 0, got %d", c.Parallel)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error", "off":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	for i, p := range c.Providers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("providers[%d]: empty name", i)
		}
	}
	return nil
}
