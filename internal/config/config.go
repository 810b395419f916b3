// Package config provides configuration types and defaults for afb.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/afb/internal/log"
)

// Config holds all configuration options for afb.
type Config struct {
	Debug   bool          `mapstructure:"debug"`
	LogFile string        `mapstructure:"log_file"`
	Docs    DocsConfig    `mapstructure:"docs"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Server  ServerConfig  `mapstructure:"server"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Plugins PluginsConfig `mapstructure:"plugins"`
	// Defaults maps a class name to the unit key used when make is given no key.
	Defaults map[string]string `mapstructure:"defaults"`
}

// DocsConfig holds documentation rendering options.
type DocsConfig struct {
	Width   int    `mapstructure:"width"`
	Style   string `mapstructure:"style"` // "dark" (default), "light", "notty" or "ascii"
	NoCache bool   `mapstructure:"no_cache"`
}

// WatchConfig holds options for make --watch.
type WatchConfig struct {
	// Debounce is how long file events are coalesced before rebuilding.
	// Default: 200ms
	Debounce time.Duration `mapstructure:"debounce"`
}

// ServerConfig holds options for afb serve.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxBodyBytes bounds the manifest accepted by POST /make.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// TracingConfig holds distributed tracing configuration for make.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	// Default: ~/.config/afb/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// PluginsConfig selects the builtin plugins registered at startup.
type PluginsConfig struct {
	Sweep bool `mapstructure:"sweep"`
}

// DefaultTracesFilePath returns ~/.config/afb/traces/traces.jsonl, or an
// empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "afb", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Docs: DocsConfig{
			Width: 100,
			Style: "dark",
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Tracing: TracingConfig{
			Exporter:     "file",
			FilePath:     DefaultTracesFilePath(),
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Plugins: PluginsConfig{
			Sweep: true,
		},
	}
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := ValidateDocs(c.Docs); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative, got %d", c.Server.MaxBodyBytes)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateDocs checks documentation options.
func ValidateDocs(docs DocsConfig) error {
	switch docs.Style {
	case "", "dark", "light", "notty", "ascii":
	default:
		return fmt.Errorf("docs.style must be \"dark\", \"light\", \"notty\" or \"ascii\", got %q", docs.Style)
	}
	if docs.Width < 0 {
		return fmt.Errorf("docs.width must not be negative, got %d", docs.Width)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# afb configuration

# debug: false
# log_file: debug.log

docs:
  width: 100    # Wrap width of describe output
  style: dark   # "dark", "light", "notty" or "ascii"

watch:
  debounce: 200ms

server:
  addr: ":8080"
  read_timeout: 10s
  shutdown_timeout: 5s

plugins:
  sweep: true   # Register the values algebra (enum, range, zip, prod, concat)

# Default unit per class, used when make is given no --key.
# defaults:
#   values: enum

# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
