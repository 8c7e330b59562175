// Package config loads the handicap-race runtime configuration from YAML or TOML
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("config: unsupported file extension")
	ErrInvalidMonth      = errors.New("config: race_month must be 0 or 1-12")
	ErrInvalidLevel      = errors.New("config: unknown log_level")
)

const (
	DefaultOutputDir    = "."
	DefaultLogLevel     = "info"
	DefaultFetchTimeout = 30 * time.Second
)

// Duration wraps time.Duration so both decoders accept strings like "45s"
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses human readable duration strings
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	return d.UnmarshalText([]byte(value.Value))
}

// UnmarshalText is used by the TOML decoder
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// Config captures everything the CLI needs to run one race
type Config struct {
	Club           string   `yaml:"club" toml:"club"`
	OutputDir      string   `yaml:"output_dir" toml:"output_dir"`
	LogFile        string   `yaml:"log_file" toml:"log_file"`
	LogLevel       string   `yaml:"log_level" toml:"log_level"`
	RaceMonth      int      `yaml:"race_month" toml:"race_month"`
	FetchTimeout   Duration `yaml:"fetch_timeout" toml:"fetch_timeout"`
	FinishesSource string   `yaml:"finishes_source" toml:"finishes_source"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// Load reads configuration from path, choosing the decoder by extension
func Load(path string) (Config, error) {
	cfg := Config{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		file, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		dec := yaml.NewDecoder(file)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
	case ".toml":
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("decode config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("decode config: unknown keys %v", undecoded)
		}
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.FetchTimeout.Duration <= 0 {
		cfg.FetchTimeout.Duration = DefaultFetchTimeout
	}
}

// Validate checks values that defaults cannot repair
func (c Config) Validate() error {
	if c.RaceMonth < 0 || c.RaceMonth > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, c.RaceMonth)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLevel, c.LogLevel)
	}
	return nil
}
