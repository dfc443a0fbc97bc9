package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/micro-ha/zabbix-adapters/internal/report"
	"github.com/micro-ha/zabbix-adapters/internal/routeros"
	"github.com/micro-ha/zabbix-adapters/internal/service"
)

// Reader is the part of service.Service the HTTP API serves.
type Reader interface {
	Discovery(ctx context.Context) (report.DiscoveryDocument, error)
	Stats(ctx context.Context, mac string) (report.StatsDocument, bool, error)
	Summary(ctx context.Context) (int, error)
	SSIDCount(ctx context.Context, ssid string) (int, error)
}

type API struct {
	reader  Reader
	config  service.ConfigProvider
	metrics http.Handler
	logger  *slog.Logger
}

// New builds the API. metrics may be nil, in which case /metrics is not served.
func New(reader Reader, cfg service.ConfigProvider, metrics http.Handler, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{reader: reader, config: cfg, metrics: metrics, logger: logger}
}

func (a *API) Logger() *slog.Logger {
	return a.logger
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	_, configured := a.config.Get()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "configured": configured})
}

func (a *API) discovery(w http.ResponseWriter, r *http.Request) {
	doc, err := a.reader.Discovery(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	doc, found, err := a.reader.Stats(r.Context(), chi.URLParam(r, "mac"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *API) summary(w http.ResponseWriter, r *http.Request) {
	count, err := a.reader.Summary(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeCount(w, count)
}

func (a *API) ssid(w http.ResponseWriter, r *http.Request) {
	count, err := a.reader.SSIDCount(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeCount(w, count)
}

// writeServiceError maps service failures onto HTTP statuses.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		authErr      *routeros.AuthenticationError
		transportErr *routeros.TransportError
		usageErr     *service.UsageError
	)
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		writeError(w, http.StatusConflict, "router_not_configured", "Router connection not configured")
	case errors.As(err, &usageErr):
		writeError(w, http.StatusBadRequest, "invalid_request", usageErr.Err.Error())
	case errors.As(err, &authErr):
		writeError(w, http.StatusUnauthorized, "authentication_failed", "Wrong username or password")
	case errors.As(err, &transportErr):
		a.logger.Warn("routeros unreachable", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, "router_unreachable", err.Error())
	default:
		a.logger.Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeCount(w http.ResponseWriter, count int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, count)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// RunServer starts and gracefully stops the HTTP server with context cancellation.
func RunServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "err", err)
			return err
		}
		return nil
	}
}
