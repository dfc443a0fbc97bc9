package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type loggerOnly struct {
	logger *slog.Logger
}

func (l loggerOnly) Logger() *slog.Logger { return l.logger }

func TestRecoverJSONUsesInjectedLogger(t *testing.T) {
	var logs bytes.Buffer
	provider := loggerOnly{logger: slog.New(slog.NewJSONHandler(&logs, nil))}

	handler := RecoverJSON(provider)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/discovery", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "internal_error" {
		t.Fatalf("code = %q, want internal_error", body.Error.Code)
	}
	if !strings.Contains(logs.String(), `"msg":"panic recovered"`) || !strings.Contains(logs.String(), `"panic":"boom"`) {
		t.Fatalf("panic not logged through the injected logger: %s", logs.String())
	}
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var logs bytes.Buffer
	provider := loggerOnly{logger: slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	handler := RequestLogger(provider)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stats/AA:BB", nil))

	if !strings.Contains(logs.String(), `"status":204`) {
		t.Fatalf("expected status in request log: %s", logs.String())
	}
}
