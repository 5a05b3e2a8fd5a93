package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/faiyaz032/gobox/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
connect:
  endpoint: "wss://box.example.com/api/v1/box/connect"
  handshake_timeout: 5s
identity:
  fingerprint: "abc123"
logging:
  level: debug
mockbox:
  port: 9000
  text_frames: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wss://box.example.com/api/v1/box/connect", cfg.Connect.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Connect.HandshakeTimeout)
	assert.Equal(t, "abc123", cfg.Identity.Fingerprint)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9000, cfg.Mockbox.Port)
	assert.True(t, cfg.Mockbox.TextFrames)

	// Defaults should still be applied for unspecified fields.
	assert.Equal(t, 30*time.Second, cfg.Connect.PingInterval)
	assert.Equal(t, 60*time.Second, cfg.Connect.PongTimeout)
	assert.Equal(t, "gobox", cfg.Identity.AppID)
	assert.True(t, cfg.Terminal.ConvertEOL)
	assert.Equal(t, "127.0.0.1", cfg.Mockbox.Host)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.Connect.Endpoint)
	assert.Zero(t, cfg.Connect.HandshakeTimeout)
	assert.Equal(t, 8010, cfg.Mockbox.Port)
	assert.Equal(t, "127.0.0.1:8010", cfg.Mockbox.Addr())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, ":::not valid yaml")
	_, err := Load(path)
	assert.Error(t, err)

	_, err = LoadOrDefault(path)
	assert.Error(t, err)
}

func TestApplyEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
connect:
  endpoint: "ws://from-file:8010/connect"
logging:
  level: warn
`)
	t.Setenv("GOBOX_CONNECT_ENDPOINT", "ws://from-env:8010/connect")
	t.Setenv("GOBOX_CONNECT_PING_INTERVAL", "10s")
	t.Setenv("GOBOX_IDENTITY_FINGERPRINT", "deadbeef")
	t.Setenv("GOBOX_MOCKBOX_TEXT_FRAMES", "true")

	cfg, err := Resolve(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://from-env:8010/connect", cfg.Connect.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Connect.PingInterval)
	assert.Equal(t, "deadbeef", cfg.Identity.Fingerprint)
	assert.True(t, cfg.Mockbox.TextFrames)
	// Unset variables keep the file value.
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestApplyEnvBadValue(t *testing.T) {
	t.Setenv("GOBOX_MOCKBOX_PORT", "not-a-port")
	cfg := Default()
	err := cfg.ApplyEnv()
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GOBOX_LOGGING_LEVEL=error\n"), 0644))
	t.Setenv("GOBOX_LOGGING_LEVEL", "")
	os.Unsetenv("GOBOX_LOGGING_LEVEL")

	LoadEnvFiles(filepath.Join(t.TempDir(), "missing.env"), path)

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"wss", func(c *Config) { c.Connect.Endpoint = "wss://box.example.com/connect" }, true},
		{"http scheme", func(c *Config) { c.Connect.Endpoint = "http://localhost:8010/connect" }, false},
		{"no host", func(c *Config) { c.Connect.Endpoint = "ws:///connect" }, false},
		{"negative timeout", func(c *Config) { c.Connect.HandshakeTimeout = -time.Second }, false},
		{"pong before ping", func(c *Config) { c.Connect.PongTimeout = 10 * time.Second }, false},
		{"keepalive off", func(c *Config) { c.Connect.PingInterval, c.Connect.PongTimeout = 0, 0 }, true},
		{"port range", func(c *Config) { c.Mockbox.Port = 70000 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrConfig)
		})
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := Default()
	lc := cfg.Logging.LoggerConfig()
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, cfg.Logging.File, lc.File)
	assert.Equal(t, 10, lc.MaxSizeMB)
}
