package config

import (
	"fmt"

	"codegraph/internal/records"
)

// Config represents the complete codegraph configuration.
// It can be loaded from .codegraph/config.yml with environment variable
// overrides.
type Config struct {
	Records RecordsConfig `yaml:"records" mapstructure:"records"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
	Source  SourceConfig  `yaml:"source" mapstructure:"source"`
}

// RecordsConfig defines where extraction records live and which files count.
type RecordsConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`         // record tree root
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for record files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
}

// StorageConfig defines graph persistence.
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite database path
}

// WatchConfig tunes the watch daemon.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// SourceConfig points DESCRIBE at the source checkout for context snippets.
type SourceConfig struct {
	Root         string `yaml:"root" mapstructure:"root"` // empty disables context extraction
	ContextLines int    `yaml:"context_lines" mapstructure:"context_lines"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Records: RecordsConfig{
			Dir:     ".",
			Include: records.DefaultIncludePatterns,
			Ignore:  records.DefaultIgnorePatterns,
		},
		Storage: StorageConfig{
			Path: ".codegraph/graph.db",
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		Source: SourceConfig{
			Root:         "",
			ContextLines: 2,
		},
	}
}

// Validate checks configuration invariants.
func Validate(cfg *Config) error {
	if cfg.Records.Dir == "" {
		return fmt.Errorf("records.dir must not be empty")
	}
	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if cfg.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative")
	}
	if cfg.Source.ContextLines < 0 {
		return fmt.Errorf("source.context_lines must not be negative")
	}
	return nil
}
