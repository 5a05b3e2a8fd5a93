package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	apperrors "github.com/faiyaz032/gobox/internal/errors"
	"github.com/faiyaz032/gobox/internal/logging"
)

// EnvPrefix prefixes every environment override. Keys are
// GOBOX_<SECTION>_<FIELD>, e.g. GOBOX_CONNECT_ENDPOINT.
const EnvPrefix = "GOBOX"

const DefaultEndpoint = "ws://localhost:8010/api/v1/box/connect"

type Config struct {
	Connect  ConnectConfig  `yaml:"connect"`
	Identity IdentityConfig `yaml:"identity"`
	Terminal TerminalConfig `yaml:"terminal"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Mockbox  MockboxConfig  `yaml:"mockbox"`
}

type ConnectConfig struct {
	Endpoint string `yaml:"endpoint"`
	// HandshakeTimeout of zero waits for the handshake indefinitely.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" split_words:"true"`
	PingInterval     time.Duration `yaml:"ping_interval" split_words:"true"`
	PongTimeout      time.Duration `yaml:"pong_timeout" split_words:"true"`
	WriteTimeout     time.Duration `yaml:"write_timeout" split_words:"true"`
}

type IdentityConfig struct {
	AppID string `yaml:"app_id" split_words:"true"`
	// Fingerprint overrides the computed device identity.
	Fingerprint string `yaml:"fingerprint"`
}

type TerminalConfig struct {
	ConvertEOL bool `yaml:"convert_eol" split_words:"true"`
	// Raw uses the host terminal instead of the TUI.
	Raw bool `yaml:"raw"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb" split_words:"true"`
	MaxBackups  int    `yaml:"max_backups" split_words:"true"`
	MaxAgeDays  int    `yaml:"max_age_days" split_words:"true"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. "127.0.0.1:9464".
	Addr string `yaml:"addr"`
}

type MockboxConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	TextFrames bool   `yaml:"text_frames" split_words:"true"`
	Banner     string `yaml:"banner"`
}

func defaultConfig() *Config {
	return &Config{
		Connect: ConnectConfig{
			Endpoint:     DefaultEndpoint,
			PingInterval: 30 * time.Second,
			PongTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Identity: IdentityConfig{
			AppID: "gobox",
		},
		Terminal: TerminalConfig{
			ConvertEOL: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       logging.DefaultFile(),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Mockbox: MockboxConfig{
			Host:   "127.0.0.1",
			Port:   8010,
			Banner: "Welcome to GoBox (mock). Commands are echoed, not executed.",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// DefaultPath is ~/.gobox/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".gobox", "config.yaml")
}

// Load reads path over the defaults. Fields missing from the file keep
// their default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped and variables already set win.
func LoadEnvFiles(paths ...string) {
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overrides cfg with GOBOX_* environment variables. Unset
// variables leave the field unchanged.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return apperrors.New(apperrors.KindConfig, "environment", err)
	}
	return nil
}

// Resolve loads path (or the defaults), applies the environment and
// validates the result.
func Resolve(path string) (*Config, error) {
	cfg, err := LoadOrDefault(path)
	if err != nil {
		return nil, apperrors.New(apperrors.KindConfig, "load", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid field as a KindConfig error.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Connect.Endpoint)
	if err != nil {
		return apperrors.New(apperrors.KindConfig, "connect.endpoint", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return apperrors.Newf(apperrors.KindConfig, "connect.endpoint", "scheme must be ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return apperrors.Newf(apperrors.KindConfig, "connect.endpoint", "missing host")
	}

	for name, d := range map[string]time.Duration{
		"connect.handshake_timeout": c.Connect.HandshakeTimeout,
		"connect.ping_interval":     c.Connect.PingInterval,
		"connect.pong_timeout":      c.Connect.PongTimeout,
		"connect.write_timeout":     c.Connect.WriteTimeout,
	} {
		if d < 0 {
			return apperrors.Newf(apperrors.KindConfig, name, "must not be negative")
		}
	}
	if c.Connect.PingInterval > 0 && c.Connect.PongTimeout > 0 && c.Connect.PongTimeout <= c.Connect.PingInterval {
		return apperrors.Newf(apperrors.KindConfig, "connect.pong_timeout", "must exceed ping_interval")
	}

	if c.Mockbox.Port < 0 || c.Mockbox.Port > 65535 {
		return apperrors.Newf(apperrors.KindConfig, "mockbox.port", "out of range: %d", c.Mockbox.Port)
	}
	return nil
}

// LoggerConfig converts the logging section for logging.New.
func (c LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{
		Level:       c.Level,
		Development: c.Development,
		File:        c.File,
		MaxSizeMB:   c.MaxSizeMB,
		MaxBackups:  c.MaxBackups,
		MaxAgeDays:  c.MaxAgeDays,
	}
}

// Addr is host:port for the mock backend.
func (c MockboxConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
