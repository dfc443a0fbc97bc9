package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/micro-ha/zabbix-adapters/internal/correlator"
	"github.com/micro-ha/zabbix-adapters/internal/model"
	"github.com/micro-ha/zabbix-adapters/internal/report"
	"github.com/micro-ha/zabbix-adapters/internal/routeros"
)

var ErrNotConfigured = errors.New("router connection not configured")

// Session is one authenticated channel to the controller.
type Session interface {
	routeros.Querier
	Close() error
}

// Dialer opens a fresh session for every snapshot.
type Dialer interface {
	Dial(ctx context.Context, cfg model.RouterConfig) (Session, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, cfg model.RouterConfig) (Session, error)

func (f DialerFunc) Dial(ctx context.Context, cfg model.RouterConfig) (Session, error) {
	return f(ctx, cfg)
}

// RouterOSDialer dials the RouterOS API.
type RouterOSDialer struct {
	Logger *slog.Logger
}

func (d RouterOSDialer) Dial(ctx context.Context, cfg model.RouterConfig) (Session, error) {
	client, err := routeros.Dial(ctx, routeros.ConfigFromModel(cfg), d.Logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ConfigProvider exposes the current router profile.
type ConfigProvider interface {
	Get() (model.RouterConfig, bool)
}

type Service struct {
	dialer Dialer
	config ConfigProvider
	logger *slog.Logger
}

func New(dialer Dialer, cfg ConfigProvider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{dialer: dialer, config: cfg, logger: logger}
}

// Snapshot opens a session and reads the registration table and, when
// withLeases is set, the lease table. Queries run one after another.
func (s *Service) Snapshot(ctx context.Context, withLeases bool) (report.Snapshot, error) {
	cfg, ok := s.config.Get()
	if !ok {
		return report.Snapshot{}, ErrNotConfigured
	}

	session, err := s.dialer.Dial(ctx, cfg)
	if err != nil {
		return report.Snapshot{}, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Debug("close routeros session", "err", err)
		}
	}()

	variant := cfg.Variant()
	clients, err := routeros.FetchRegistrations(ctx, session, variant)
	if err != nil {
		if routeros.IsMissingCommand(err) {
			return report.Snapshot{}, &UsageError{Err: fmt.Errorf("%s api not available on device: %w", variant, err)}
		}
		return report.Snapshot{}, err
	}
	snapshot := report.Snapshot{Clients: clients}
	if withLeases {
		if snapshot.Leases, err = routeros.FetchLeases(ctx, session); err != nil {
			return report.Snapshot{}, err
		}
	}
	s.logger.Debug(
		"snapshot fetched",
		"api", variant,
		"clients", len(snapshot.Clients),
		"leases", len(snapshot.Leases),
	)
	return snapshot, nil
}

// Run executes exactly one output mode and writes its result to w.
func (s *Service) Run(ctx context.Context, w io.Writer, mode report.Mode) error {
	if err := s.validate(mode); err != nil {
		return err
	}
	snapshot, err := s.Snapshot(ctx, mode.NeedsLeases())
	if err != nil {
		return err
	}
	return report.Render(w, mode, snapshot)
}

// Discovery returns the discovery document for the current clients.
func (s *Service) Discovery(ctx context.Context) (report.DiscoveryDocument, error) {
	clients, err := s.Correlated(ctx, correlator.Filter{})
	if err != nil {
		return report.DiscoveryDocument{}, err
	}
	return report.BuildDiscovery(clients), nil
}

// Stats returns statistics for one client; found is false when the MAC is
// not a correlated client.
func (s *Service) Stats(ctx context.Context, mac string) (report.StatsDocument, bool, error) {
	if err := s.validate(report.StatsFor(mac)); err != nil {
		return report.StatsDocument{}, false, err
	}
	clients, err := s.Correlated(ctx, correlator.Filter{MAC: mac})
	if err != nil {
		return report.StatsDocument{}, false, err
	}
	return report.FindStats(clients, mac)
}

// Summary returns the raw registration count.
func (s *Service) Summary(ctx context.Context) (int, error) {
	snapshot, err := s.Snapshot(ctx, false)
	if err != nil {
		return 0, err
	}
	return report.CountPopulation(snapshot.Clients), nil
}

// SSIDCount returns the number of registrations on ssid.
func (s *Service) SSIDCount(ctx context.Context, ssid string) (int, error) {
	if err := s.validate(report.SSIDCount(ssid)); err != nil {
		return 0, err
	}
	snapshot, err := s.Snapshot(ctx, false)
	if err != nil {
		return 0, err
	}
	return report.CountSSID(snapshot.Clients, ssid), nil
}

// Correlated fetches a snapshot and joins it.
func (s *Service) Correlated(ctx context.Context, filter correlator.Filter) ([]correlator.CorrelatedClient, error) {
	snapshot, err := s.Snapshot(ctx, true)
	if err != nil {
		return nil, err
	}
	index := correlator.BuildLeaseIndex(snapshot.Leases)
	return correlator.Correlate(snapshot.Clients, index, filter), nil
}

func (s *Service) validate(mode report.Mode) error {
	cfg, ok := s.config.Get()
	if !ok {
		return ErrNotConfigured
	}
	if err := mode.Validate(cfg.Variant()); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

// UsageError marks a request that can never succeed with the current config.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	if e == nil {
		return "usage error"
	}
	return fmt.Sprintf("usage: %v", e.Err)
}

func (e *UsageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
