package certcheck

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func tlsEndpoint(t *testing.T) (string, int, time.Time) {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return u.Hostname(), port, server.Certificate().NotAfter
}

func TestStatusAndDays(t *testing.T) {
	host, port, notAfter := tlsEndpoint(t)

	tests := []struct {
		name   string
		now    time.Time
		status int
		days   int
	}{
		{name: "valid", now: notAfter.Add(-36 * time.Hour), status: 1, days: 1},
		{name: "last hours", now: notAfter.Add(-time.Hour), status: 1, days: 0},
		{name: "expired", now: notAfter.Add(time.Hour), status: 0, days: -1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			checker := New(nil)
			checker.Now = func() time.Time { return tt.now }

			status, err := checker.Status(context.Background(), host, port)
			if err != nil {
				t.Fatalf("Status() error: %v", err)
			}
			if status != tt.status {
				t.Fatalf("Status() = %d, want %d", status, tt.status)
			}
			days, err := checker.DaysBeforeExpire(context.Background(), host, port)
			if err != nil {
				t.Fatalf("DaysBeforeExpire() error: %v", err)
			}
			if days != tt.days {
				t.Fatalf("DaysBeforeExpire() = %d, want %d", days, tt.days)
			}
		})
	}
}

func TestConnectFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	_, err = New(nil).Status(context.Background(), "127.0.0.1", port)
	var connectErr *ConnectError
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected ConnectError, got %T %v", err, err)
	}
	if err.Error() != "127.0.0.1 could not connect" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestHandshakeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer server.Close()
	addr := server.Listener.Addr().(*net.TCPAddr)

	_, err := New(nil).Status(context.Background(), "127.0.0.1", addr.Port)
	var certErr *CertError
	if !errors.As(err, &certErr) {
		t.Fatalf("expected CertError, got %T %v", err, err)
	}
	if !strings.HasPrefix(err.Error(), "127.0.0.1 cert error ") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestFloorDays(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{in: 0, want: 0},
		{in: 47 * time.Hour, want: 1},
		{in: -time.Minute, want: -1},
		{in: -49 * time.Hour, want: -3},
	}
	for _, tt := range tests {
		if got := FloorDays(tt.in); got != tt.want {
			t.Fatalf("FloorDays(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
