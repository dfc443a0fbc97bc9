package configsync

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/micro-ha/zabbix-adapters/internal/model"
)

func writeConfig(t *testing.T, path string, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestFileSourceAppliesOverride(t *testing.T) {

	path := filepath.Join(t.TempDir(), "apclient.yaml")
	writeConfig(t, path, "router:\n  host: 192.168.88.1\n  username: zabbix\n  password: secret\n")

	source := FileSource{Path: path, Override: func(cfg model.RouterConfig) model.RouterConfig {
		cfg.Host = "10.0.0.1"
		return cfg
	}}
	got, err := source.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig() error: %v", err)
	}
	if !got.Configured {
		t.Fatalf("FetchConfig() configured = false, want true")
	}
	if got.Config.Host != "10.0.0.1" {
		t.Fatalf("Host = %q, want override", got.Config.Host)
	}
}

func TestFileSourceNotConfiguredWithoutPassword(t *testing.T) {
	t.Setenv("ROUTEROS_PASSWORD", "")

	path := filepath.Join(t.TempDir(), "apclient.yaml")
	writeConfig(t, path, "router:\n  host: 192.168.88.1\n  username: zabbix\n")

	got, err := FileSource{Path: path}.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig() error: %v", err)
	}
	if got.Configured {
		t.Fatalf("FetchConfig() configured = true, want false")
	}
}

func TestManagerRefreshReportsChanges(t *testing.T) {

	path := filepath.Join(t.TempDir(), "apclient.yaml")
	writeConfig(t, path, "router:\n  host: 192.168.88.1\n  username: zabbix\n  password: one\n")
	manager := NewManager(FileSource{Path: path}, nil)
	ctx := context.Background()

	changed, err := manager.Refresh(ctx)
	if err != nil || !changed {
		t.Fatalf("first refresh: changed=%v err=%v", changed, err)
	}
	changed, err = manager.Refresh(ctx)
	if err != nil || changed {
		t.Fatalf("second refresh: changed=%v err=%v", changed, err)
	}

	writeConfig(t, path, "router:\n  host: 192.168.88.1\n  username: zabbix\n  password: two\n")
	changed, err = manager.Refresh(ctx)
	if err != nil || !changed {
		t.Fatalf("third refresh: changed=%v err=%v", changed, err)
	}
	cfg, ok := manager.Get()
	if !ok || cfg.Password != "two" {
		t.Fatalf("expected reloaded password, got %#v ok=%v", cfg, ok)
	}
}

func TestManagerKeepsConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apclient.yaml")
	writeConfig(t, path, "router:\n  host: 192.168.88.1\n  username: zabbix\n  password: one\n")
	manager := NewManager(FileSource{Path: path}, nil)
	if _, err := manager.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	writeConfig(t, path, "router: [")
	if _, err := manager.Refresh(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg, ok := manager.Get(); !ok || cfg.Password != "one" {
		t.Fatalf("expected previous config to survive a bad reload")
	}
}

func TestStaticManager(t *testing.T) {
	manager := NewStatic(model.RouterConfig{Host: "h", Username: "u", Password: "p"})
	if _, ok := manager.Get(); !ok {
		t.Fatalf("expected static manager to be configured")
	}
	if changed, err := manager.Refresh(context.Background()); err != nil || changed {
		t.Fatalf("static refresh: changed=%v err=%v", changed, err)
	}
	if _, ok := NewStatic(model.RouterConfig{}).Get(); ok {
		t.Fatalf("expected empty static manager to be unconfigured")
	}
}

func TestWatcherSignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apclient.yaml")
	writeConfig(t, path, "router: {}\n")

	watcher := NewWatcher(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	watcher.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-changed:
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("watcher returned error: %v", err)
			}
			return
		case <-tick.C:
			writeConfig(t, path, "router:\n  host: 192.168.88.1\n")
		case <-deadline:
			t.Fatalf("watcher did not report the change")
		}
	}
}
