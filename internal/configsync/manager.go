package configsync

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/micro-ha/zabbix-adapters/internal/model"
)

type Manager struct {
	source Source
	logger *slog.Logger

	mu         sync.RWMutex
	configured bool
	config     model.RouterConfig
}

func NewManager(source Source, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{source: source, logger: logger}
}

// NewStatic returns a manager pinned to cfg that never refreshes.
func NewStatic(cfg model.RouterConfig) *Manager {
	return &Manager{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		configured: cfg.Configured(),
		config:     cfg,
	}
}

// Refresh reloads the profile from the source and reports whether it changed.
func (m *Manager) Refresh(ctx context.Context) (bool, error) {
	if m.source == nil {
		return false, nil
	}
	res, err := m.source.FetchConfig(ctx)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	if !res.Configured {
		if m.configured {
			changed = true
		}
		m.configured = false
		m.config = model.RouterConfig{}
		return changed, nil
	}

	if !m.configured || res.Config != m.config {
		changed = true
	}
	m.configured = true
	m.config = res.Config
	if changed {
		m.logger.Info("router config loaded", "host", res.Config.Host, "api", res.Config.Variant())
	}
	return changed, nil
}

func (m *Manager) Get() (model.RouterConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.configured {
		return model.RouterConfig{}, false
	}
	return m.config, true
}
