package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, 100, cfg.Docs.Width)
	require.Equal(t, "dark", cfg.Docs.Style)
	require.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
	require.True(t, cfg.Plugins.Sweep)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad style", func(c *Config) { c.Docs.Style = "neon" }, "docs.style"},
		{"negative width", func(c *Config) { c.Docs.Width = -1 }, "docs.width"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }, "watch.debounce"},
		{"negative body", func(c *Config) { c.Server.MaxBodyBytes = -1 }, "server.max_body_bytes"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "sample_rate"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"file path", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.FilePath = ""
		}, "file_path"},
		{"otlp endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
			c.Tracing.OTLPEndpoint = ""
		}, "otlp_endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultConfigTemplate_IsValidYAML(t *testing.T) {
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &parsed))
	require.Contains(t, parsed, "docs")
	require.Contains(t, parsed, "plugins")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}

// === SaveDefault ===

func TestSaveDefault_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveDefault(path, "values", "enum"))

	var parsed struct {
		Defaults map[string]string `yaml:"defaults"`
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	require.Equal(t, map[string]string{"values": "enum"}, parsed.Defaults)
}

func TestSaveDefault_PreservesOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`# keep me
docs:
  width: 60 # narrow
defaults:
  values: range
`), 0o600))

	require.NoError(t, SaveDefault(path, "dict", "afb/direct"))
	require.NoError(t, SaveDefault(path, "values", "prod"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, "# keep me")
	require.Contains(t, out, "# narrow")

	var parsed struct {
		Docs     DocsConfig        `yaml:"docs"`
		Defaults map[string]string `yaml:"defaults"`
	}
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	require.Equal(t, 60, parsed.Docs.Width)
	require.Equal(t, map[string]string{"dict": "afb/direct", "values": "prod"}, parsed.Defaults)
}

func TestSaveDefault_EmptyKeyRemoves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveDefault(path, "values", "enum"))
	require.NoError(t, SaveDefault(path, "int", "afb/cast"))
	require.NoError(t, SaveDefault(path, "values", ""))

	var parsed struct {
		Defaults map[string]string `yaml:"defaults"`
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	require.Equal(t, map[string]string{"int": "afb/cast"}, parsed.Defaults)
}

func TestSaveDefault_RejectsNonMappingRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))
	require.Error(t, SaveDefault(path, "values", "enum"))
}
