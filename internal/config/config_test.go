package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Equal(t, "./logs", cfg.Log.File.Path)
	assert.Equal(t, "uart-send.log", cfg.Log.File.Filename)
	assert.Equal(t, 10, cfg.Log.File.MaxSize)
	assert.Equal(t, 3, cfg.Log.File.MaxBackups)
	assert.False(t, cfg.Log.File.Compress)
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeConfig(t, "uart-send.yaml", `
log:
  level: debug
  format: json
  output: both
  file:
    path: /var/log/uart-send
    filename: sender.log
    max_size: 50
    compress: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "both", cfg.Log.Output)
	assert.Equal(t, "/var/log/uart-send", cfg.Log.File.Path)
	assert.Equal(t, "sender.log", cfg.Log.File.Filename)
	assert.Equal(t, 50, cfg.Log.File.MaxSize)
	assert.True(t, cfg.Log.File.Compress)
	// 未设置的键保留默认值
	assert.Equal(t, 30, cfg.Log.File.MaxAge)
}

func TestLoadTOMLFile(t *testing.T) {
	path := writeConfig(t, "uart-send.toml", `
[log]
level = "info"
output = "none"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "none", cfg.Log.Output)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "uart-send.yaml", "log:\n  level: info\n")
	t.Setenv("UART_SEND_LOG_LEVEL", "error")
	t.Setenv("UART_SEND_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "uart-send.yaml", "log: [unterminated\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "bad output", mutate: func(c *Config) { c.Log.Output = "stdout" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
		{name: "file without filename", mutate: func(c *Config) {
			c.Log.Output = "file"
			c.Log.File.Filename = ""
		}, wantErr: true},
		{name: "stderr without filename", mutate: func(c *Config) { c.Log.File.Filename = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
