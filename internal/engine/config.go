package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenegraph/internal/core/observability/log"
)

// Config holds engine configuration
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Hierarchy HierarchyConfig `yaml:"hierarchy"`
	Load      LoadSettings    `yaml:"load"`
	Inspect   InspectConfig   `yaml:"inspect"`
}

// HierarchyConfig tunes parent resolution and the transform pass.
type HierarchyConfig struct {
	// MaxDepth bounds ancestor walks; 0 means "number of parented entities".
	MaxDepth int `yaml:"max_depth"`
	// DuplicateNames is "first" or "reject".
	DuplicateNames string `yaml:"duplicate_names"`
}

// LoadSettings tunes scene loading.
type LoadSettings struct {
	// Workers bounds concurrent scene decoding; 0 means one per scene.
	Workers int `yaml:"workers"`
}

type InspectConfig struct {
	Addr     string        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Hierarchy: HierarchyConfig{
			DuplicateNames: "first",
		},
		Inspect: InspectConfig{
			Addr:     "127.0.0.1:8089",
			Interval: 100 * time.Millisecond,
		},
	}
}

// LoadConfig reads YAML over DefaultConfig and validates the result.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile is LoadConfig on a file path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return LoadConfig(f)
}

func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Hierarchy.DuplicateNames {
	case "", "first", "reject":
	default:
		return fmt.Errorf("%w: hierarchy.duplicate_names must be first or reject, got %q",
			ErrInvalidConfig, c.Hierarchy.DuplicateNames)
	}
	if c.Hierarchy.MaxDepth < 0 {
		return fmt.Errorf("%w: hierarchy.max_depth must not be negative", ErrInvalidConfig)
	}
	if c.Load.Workers < 0 {
		return fmt.Errorf("%w: load.workers must not be negative", ErrInvalidConfig)
	}
	if c.Inspect.Interval < 0 {
		return fmt.Errorf("%w: inspect.interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelInfo
	}
	return level
}
