package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the client
type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Poll      PollConfig      `yaml:"poll"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Log       LogConfig       `yaml:"log"`
	DevServer DevServerConfig `yaml:"devserver"`
}

// APIConfig holds remote API configuration
type APIConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig holds local session storage configuration
type SessionConfig struct {
	Path string `yaml:"path"`
}

// PollConfig holds per-screen refresh intervals
type PollConfig struct {
	Messages  time.Duration `yaml:"messages"`
	Chats     time.Duration `yaml:"chats"`
	Matches   time.Duration `yaml:"matches"`
	Contacts  time.Duration `yaml:"contacts"`
	Tickets   time.Duration `yaml:"tickets"`
	Emergency time.Duration `yaml:"emergency"`
	Feed      time.Duration `yaml:"feed"`
}

// RealtimeConfig holds websocket nudge configuration
type RealtimeConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// DevServerConfig holds configuration for the local stub API
type DevServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 15 * time.Second,
		},
		Session: SessionConfig{
			Path: defaultSessionPath(),
		},
		Poll: DefaultPollConfig(),
		Log: LogConfig{
			Level: "info",
		},
		DevServer: DevServerConfig{
			Host:      "127.0.0.1",
			Port:      8080,
			JWTSecret: "dev-secret",
		},
	}
}

// DefaultPollConfig returns the refresh intervals of the mobile screens
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Messages:  3 * time.Second,
		Chats:     5 * time.Second,
		Matches:   5 * time.Second,
		Contacts:  5 * time.Second,
		Tickets:   10 * time.Second,
		Emergency: 10 * time.Second,
		Feed:      10 * time.Second,
	}
}

// Load reads configuration from a YAML file. A missing file yields defaults.
// Values from .env and the process environment override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.Poll = cfg.Poll.WithDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("CAMPUSDATE_SESSION_PATH"); v != "" {
		c.Session.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REALTIME_URL"); v != "" {
		c.Realtime.URL = v
		c.Realtime.Enabled = true
	}
}

// WithDefaults fills zero intervals so a partial poll section stays usable
func (p PollConfig) WithDefaults() PollConfig {
	def := DefaultPollConfig()
	fill := func(v *time.Duration, d time.Duration) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&p.Messages, def.Messages)
	fill(&p.Chats, def.Chats)
	fill(&p.Matches, def.Matches)
	fill(&p.Contacts, def.Contacts)
	fill(&p.Tickets, def.Tickets)
	fill(&p.Emergency, def.Emergency)
	fill(&p.Feed, def.Feed)
	return p
}

// Addr returns the listen address of the stub API
func (c *DevServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "campusdate.db"
	}
	return filepath.Join(dir, "campusdate", "session.db")
}
