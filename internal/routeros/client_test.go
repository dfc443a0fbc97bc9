package routeros

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"reflect"
	"testing"
	"time"

	goros "github.com/go-routeros/routeros/v3"
	"github.com/go-routeros/routeros/v3/proto"

	"github.com/micro-ha/zabbix-adapters/internal/routeros/mock"
)

func testClient(dial func(ctx context.Context, cfg Config) (*goros.Client, error)) *Client {
	client := newClient(
		Config{Address: "127.0.0.1:8728", Username: "u", Password: "p", Timeout: time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	client.dialFn = dial
	client.closeFn = func(conn *goros.Client) error {
		_ = conn
		return nil
	}
	return client
}

func TestConnectClassifiesLoginRejection(t *testing.T) {
	t.Helper()

	client := testClient(func(ctx context.Context, cfg Config) (*goros.Client, error) {
		_ = ctx
		_ = cfg
		return nil, mock.Trap("invalid user name or password (6)")
	})

	err := client.connect(context.Background())
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %T %v", err, err)
	}
	if authErr.Username != "u" {
		t.Fatalf("expected username in error, got %q", authErr.Username)
	}
}

func TestConnectClassifiesNetworkFailure(t *testing.T) {
	t.Helper()

	client := testClient(func(ctx context.Context, cfg Config) (*goros.Client, error) {
		_ = ctx
		_ = cfg
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	})

	err := client.connect(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		t.Fatalf("network failure must not look like an auth failure")
	}
}

func TestConnectDialsOnce(t *testing.T) {
	t.Helper()

	dials := 0
	client := testClient(func(ctx context.Context, cfg Config) (*goros.Client, error) {
		_ = ctx
		_ = cfg
		dials++
		return &goros.Client{}, nil
	})

	for i := 0; i < 3; i++ {
		if err := client.connect(context.Background()); err != nil {
			t.Fatalf("connect returned error: %v", err)
		}
	}
	if dials != 1 {
		t.Fatalf("expected 1 dial, got %d", dials)
	}
}

func TestRunDoesNotRetry(t *testing.T) {
	t.Helper()

	runs := 0
	client := testClient(func(ctx context.Context, cfg Config) (*goros.Client, error) {
		_ = ctx
		_ = cfg
		return &goros.Client{}, nil
	})
	client.runFn = func(ctx context.Context, conn *goros.Client, cmd string, args ...string) (*goros.Reply, error) {
		_ = ctx
		_ = conn
		_ = cmd
		_ = args
		runs++
		return nil, io.EOF
	}
	if err := client.connect(context.Background()); err != nil {
		t.Fatalf("connect returned error: %v", err)
	}

	_, err := client.Run(context.Background(), "/caps-man/registration-table/print")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected wrapped io.EOF, got %v", err)
	}
	if runs != 1 {
		t.Fatalf("expected exactly one run attempt, got %d", runs)
	}
}

func TestRunAfterCloseFails(t *testing.T) {
	t.Helper()

	client := NewWithAPI(&mock.Client{}, nil)
	if err := client.Close(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second close returned error: %v", err)
	}

	_, err := client.Run(context.Background(), "/ip/dhcp-server/lease/print")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError on closed session, got %v", err)
	}
}

func TestQueryWithStatsSendsStatsWord(t *testing.T) {
	t.Helper()

	api := &mock.Client{RunFunc: func(ctx context.Context, cmd string, args ...string) (*goros.Reply, error) {
		_ = ctx
		_ = args
		return mock.Reply(map[string]string{"mac-address": "AA:BB:CC:DD:EE:01", "bytes": "1,2"}), nil
	}}
	client := NewWithAPI(api, nil)

	rows, err := client.Query(context.Background(), "/caps-man/registration-table/print", true)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(rows) != 1 || rows[0]["bytes"] != "1,2" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
	if _, err := client.Query(context.Background(), "/ip/dhcp-server/lease/print", false); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	calls := api.CallsSnapshot()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if !reflect.DeepEqual(calls[0].Args, []string{"=stats="}) {
		t.Fatalf("expected stats word, got %#v", calls[0].Args)
	}
	if len(calls[1].Args) != 0 {
		t.Fatalf("expected no args for plain print, got %#v", calls[1].Args)
	}
}

func TestQueryWrapsDeviceTrap(t *testing.T) {
	t.Helper()

	api := &mock.Client{RunFunc: func(ctx context.Context, cmd string, args ...string) (*goros.Reply, error) {
		_ = ctx
		_ = cmd
		_ = args
		return nil, mock.Trap("no such command prefix")
	}}
	client := NewWithAPI(api, nil)

	_, err := client.Query(context.Background(), "/caps-man/registration-table/print", true)
	if !IsMissingCommand(err) {
		t.Fatalf("expected missing command error, got %v", err)
	}
}

func TestMapReplyRowsMergesListAndMap(t *testing.T) {
	reply := &goros.Reply{Re: []*proto.Sentence{{
		Word: "!re",
		Map:  map[string]string{"mac-address": "AA:BB:CC:DD:EE:01"},
		List: []proto.Pair{{Key: "interface", Value: "cap-1"}},
	}}}

	rows := mapReplyRows(reply)
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0]["mac-address"] != "AA:BB:CC:DD:EE:01" || rows[0]["interface"] != "cap-1" {
		t.Fatalf("unexpected row: %#v", rows[0])
	}
	if got := mapReplyRows(nil); len(got) != 0 {
		t.Fatalf("expected empty rows for nil reply")
	}
}

func TestMapParamsIsSorted(t *testing.T) {
	words := mapParams(map[string]string{
		".proplist": "mac-address",
		"stats":     "",
		"?comment":  "x",
	})
	want := []string{"=.proplist=mac-address", "?comment=x", "=stats="}
	if !reflect.DeepEqual(words, want) {
		t.Fatalf("mapParams() = %#v, want %#v", words, want)
	}
}
