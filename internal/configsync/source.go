package configsync

import (
	"context"

	"github.com/micro-ha/zabbix-adapters/internal/config"
	"github.com/micro-ha/zabbix-adapters/internal/model"
)

type FetchResult struct {
	Configured bool
	Config     model.RouterConfig
}

// Source yields the current router profile.
type Source interface {
	FetchConfig(ctx context.Context) (FetchResult, error)
}

// FileSource reads the environment and the YAML file at Path, then lets
// Override re-apply values given explicitly on the command line.
type FileSource struct {
	Path     string
	Override func(model.RouterConfig) model.RouterConfig
}

func (s FileSource) FetchConfig(ctx context.Context) (FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}
	cfg, err := config.LoadWithFile(s.Path)
	if err != nil {
		return FetchResult{}, err
	}
	router := cfg.Router
	if s.Override != nil {
		router = s.Override(router)
	}
	if !router.Configured() {
		return FetchResult{Configured: false}, nil
	}
	return FetchResult{Configured: true, Config: router}, nil
}
