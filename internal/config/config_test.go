package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/micro-ha/zabbix-adapters/internal/model"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ROUTEROS_HOST", " 192.168.88.1 ")
	t.Setenv("ROUTEROS_USERNAME", "zabbix")
	t.Setenv("ROUTEROS_PASSWORD", "secret")
	t.Setenv("ROUTEROS_API", "wifi")
	t.Setenv("ROUTEROS_SSL", "true")
	t.Setenv("ROUTEROS_TIMEOUT_SEC", "4")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Router.Host != "192.168.88.1" {
		t.Fatalf("Host = %q", cfg.Router.Host)
	}
	if cfg.Router.API != model.VariantWiFi {
		t.Fatalf("API = %q, want wifi", cfg.Router.API)
	}
	if !cfg.Router.SSL || cfg.Router.TimeoutSec != 4 {
		t.Fatalf("unexpected router config: %#v", cfg.Router)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.HTTPAddr != ":9105" {
		t.Fatalf("HTTPAddr = %q, want default", cfg.HTTPAddr)
	}
}

func TestFileOverridesEnvironment(t *testing.T) {
	t.Setenv("ROUTEROS_HOST", "10.0.0.1")
	t.Setenv("ROUTEROS_USERNAME", "env-user")
	t.Setenv("ROUTEROS_PASSWORD", "env-secret")
	t.Setenv("ROUTEROS_SSL", "true")

	path := filepath.Join(t.TempDir(), "apclient.yaml")
	if err := os.WriteFile(path, []byte(`
router:
  host: 192.168.88.1
  password: file-secret
  ssl: false
  api: capsman
http_addr: 127.0.0.1:9200
`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error: %v", err)
	}
	if cfg.Router.Host != "192.168.88.1" {
		t.Fatalf("Host = %q, want file value", cfg.Router.Host)
	}
	if cfg.Router.Username != "env-user" {
		t.Fatalf("Username = %q, want env value kept", cfg.Router.Username)
	}
	if cfg.Router.Password != "file-secret" {
		t.Fatalf("Password = %q, want file value", cfg.Router.Password)
	}
	if cfg.Router.SSL {
		t.Fatalf("expected explicit ssl: false to override env")
	}
	if cfg.HTTPAddr != "127.0.0.1:9200" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
}

func TestLoadFileRejectsUnknownAPI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apclient.yaml")
	if err := os.WriteFile(path, []byte("router:\n  api: wireless-ng\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected unknown api to fail")
	}
}

func TestLoadRejectsUnknownAPIInEnvironment(t *testing.T) {
	t.Setenv("ROUTEROS_API", "wireless-ng")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "ROUTEROS_API") {
		t.Fatalf("expected ROUTEROS_API error, got %v", err)
	}
	if _, err := LoadWithFile(""); err == nil {
		t.Fatalf("expected LoadWithFile to surface the environment error")
	}
}

func TestLoadWithFileMissing(t *testing.T) {
	if _, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
