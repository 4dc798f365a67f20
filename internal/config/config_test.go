package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"API_URL", "CAMPUSDATE_SESSION_PATH", "LOG_LEVEL", "REALTIME_URL"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("Expected 15s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.Poll != DefaultPollConfig() {
		t.Errorf("Expected default intervals, got %+v", cfg.Poll)
	}
	if cfg.Realtime.Enabled {
		t.Error("Expected realtime disabled by default")
	}
	if cfg.DevServer.Addr() != "127.0.0.1:8080" {
		t.Errorf("Expected 127.0.0.1:8080, got %s", cfg.DevServer.Addr())
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
api:
  url: http://api.campus.test
  timeout: 3s
poll:
  messages: 1s
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.URL != "http://api.campus.test" {
		t.Errorf("Expected url from file, got %q", cfg.API.URL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.Poll.Messages != time.Second {
		t.Errorf("Expected 1s message interval, got %v", cfg.Poll.Messages)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected debug level, got %q", cfg.Log.Level)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_URL", "http://env.campus.test")
	t.Setenv("REALTIME_URL", "ws://env.campus.test/ws")

	cfg, err := Load(writeConfig(t, "api:\n  url: http://file.campus.test\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.URL != "http://env.campus.test" {
		t.Errorf("Expected env url, got %q", cfg.API.URL)
	}
	if !cfg.Realtime.Enabled || cfg.Realtime.URL != "ws://env.campus.test/ws" {
		t.Errorf("Expected realtime enabled from env, got %+v", cfg.Realtime)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)

	if _, err := Load(writeConfig(t, "api: [")); err == nil {
		t.Error("Expected parse error")
	}
}

func TestWithDefaultsFillsZeroIntervals(t *testing.T) {
	p := PollConfig{Messages: 500 * time.Millisecond, Chats: -1}.WithDefaults()
	def := DefaultPollConfig()

	if p.Messages != 500*time.Millisecond {
		t.Errorf("Expected explicit interval kept, got %v", p.Messages)
	}
	if p.Chats != def.Chats {
		t.Errorf("Expected negative interval replaced, got %v", p.Chats)
	}
	if p.Feed != def.Feed || p.Emergency != def.Emergency {
		t.Errorf("Expected zero intervals filled, got %+v", p)
	}
}

func TestDefaultSessionPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	p := defaultSessionPath()
	if filepath.Base(p) != "session.db" {
		t.Errorf("Expected session.db, got %s", p)
	}
	if filepath.Base(filepath.Dir(p)) != "campusdate" {
		t.Errorf("Expected campusdate directory, got %s", p)
	}
	if !filepath.IsAbs(p) {
		t.Errorf("Expected absolute path, got %s", p)
	}
}
