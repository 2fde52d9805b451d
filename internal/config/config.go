// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete configuration.
type Config struct {
	Grammar GrammarConfig `mapstructure:"grammar" yaml:"grammar"`
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// GrammarConfig locates the grammar definition.
type GrammarConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`   // grammar file, relative paths resolve against the working directory
	Start string `mapstructure:"start" yaml:"start"` // start rule name
}

// BackendConfig selects the parser backend.
type BackendConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`         // peg, treesitter
	Language string `mapstructure:"language" yaml:"language"` // treesitter built-in language
}

// OutputConfig controls tree rendering.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // pretty, json
	Color  string `mapstructure:"color" yaml:"color"`   // auto, always, never
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Grammar: GrammarConfig{
			Start: "start",
		},
		Backend: BackendConfig{
			Name: "peg",
		},
		Output: OutputConfig{
			Format: "pretty",
			Color:  "auto",
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the path to the .parsekit directory.
func ConfigDir(root string) string {
	return filepath.Join(root, ".parsekit")
}

// ConfigPath returns the path to config.yaml.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), "config.yaml")
}

// Load loads configuration from file, falling back to defaults.
func Load(root string) (*Config, []string, error) {
	cfg := DefaultConfig()
	warnings := []string{}

	configPath := ConfigPath(root)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		warnings = append(warnings, "No config file found, using defaults")
		return cfg, warnings, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults for missing values
	if cfg.Grammar.Start == "" {
		cfg.Grammar.Start = "start"
	}
	if cfg.Backend.Name == "" {
		cfg.Backend.Name = "peg"
		warnings = append(warnings, "Using default backend: peg")
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "pretty"
	}
	if cfg.Output.Color == "" {
		cfg.Output.Color = "auto"
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 500
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	return cfg, warnings, nil
}

// Save writes the configuration to .parsekit/config.yaml under root.
func Save(root string, cfg *Config) error {
	configDir := ConfigDir(root)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(ConfigPath(root))
	v.SetConfigType("yaml")

	v.Set("grammar", cfg.Grammar)
	v.Set("backend", cfg.Backend)
	v.Set("output", cfg.Output)
	v.Set("watch", cfg.Watch)
	v.Set("logging", cfg.Logging)

	return v.WriteConfig()
}

// Validate validates the configuration.
func Validate(cfg *Config) []error {
	var errs []error

	validBackends := map[string]bool{
		"peg": true, "treesitter": true,
	}
	if !validBackends[cfg.Backend.Name] {
		errs = append(errs, fmt.Errorf("invalid backend: %s", cfg.Backend.Name))
	}
	if cfg.Backend.Name == "treesitter" && cfg.Backend.Language == "" {
		errs = append(errs, fmt.Errorf("treesitter backend requires a language"))
	}

	validFormats := map[string]bool{
		"pretty": true, "json": true,
	}
	if !validFormats[cfg.Output.Format] {
		errs = append(errs, fmt.Errorf("invalid output format: %s", cfg.Output.Format))
	}

	validColors := map[string]bool{
		"auto": true, "always": true, "never": true,
	}
	if !validColors[cfg.Output.Color] {
		errs = append(errs, fmt.Errorf("invalid color mode: %s", cfg.Output.Color))
	}

	if cfg.Watch.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("debounce_ms must not be negative"))
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("invalid log level: %s", cfg.Logging.Level))
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("invalid log format: %s", cfg.Logging.Format))
	}

	return errs
}
