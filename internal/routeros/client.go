package routeros

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	goros "github.com/go-routeros/routeros/v3"
)

// API is the command execution seam shared with the mock package.
type API interface {
	Run(ctx context.Context, cmd string, args ...string) (*goros.Reply, error)
}

// Client is one authenticated RouterOS API session. It is opened by Dial,
// used for a handful of sequential queries and then closed. Nothing is retried:
// a failed dial or query is reported to the caller as is.
type Client struct {
	config Config
	logger *slog.Logger

	mu   sync.Mutex
	conn *goros.Client

	dialFn  func(ctx context.Context, cfg Config) (*goros.Client, error)
	runFn   func(ctx context.Context, conn *goros.Client, cmd string, args ...string) (*goros.Reply, error)
	closeFn func(conn *goros.Client) error
}

// Dial validates cfg, connects and logs in. Login rejection is returned as
// *AuthenticationError, connection problems as *TransportError.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	normalized, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	client := newClient(normalized, logger)
	if err := client.connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// NewWithAPI wraps an already established command runner.
func NewWithAPI(api API, logger *slog.Logger) *Client {
	client := newClient(Config{Address: "api"}, logger)
	client.conn = &goros.Client{}
	client.runFn = func(ctx context.Context, _ *goros.Client, cmd string, args ...string) (*goros.Reply, error) {
		return api.Run(ctx, cmd, args...)
	}
	client.closeFn = func(*goros.Client) error { return nil }
	return client
}

func newClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		config:  cfg,
		logger:  logger,
		dialFn:  defaultDial,
		runFn:   defaultRun,
		closeFn: defaultClose,
	}
}

func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	c.logger.Debug("routeros dial", "address", c.config.Address, "tls", c.config.UseTLS)
	conn, err := c.dialFn(ctx, c.config)
	if err != nil {
		return classifyDialError(c.config, err)
	}
	c.conn = conn
	return nil
}

// Run executes one raw API sentence on the open session.
func (c *Client) Run(ctx context.Context, cmd string, args ...string) (*goros.Reply, error) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return nil, &ValidationError{Field: "command", Reason: "is required"}
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, &TransportError{Address: c.config.Address, Op: "run " + cmd, Err: fmt.Errorf("session is closed")}
	}

	reply, err := c.runFn(ctx, conn, cmd, args...)
	if err != nil {
		return nil, classifyRunError(c.config, cmd, err)
	}
	return reply, nil
}

// RunCommand executes cmd with named parameters and maps !re sentences to rows.
func (c *Client) RunCommand(ctx context.Context, cmd string, params map[string]string) ([]map[string]string, error) {
	reply, err := c.Run(ctx, cmd, mapParams(params)...)
	if err != nil {
		return nil, err
	}
	return mapReplyRows(reply), nil
}

// Query prints a menu and returns every record as field/value pairs. When
// withStats is set the device is asked to include traffic counters.
func (c *Client) Query(ctx context.Context, path string, withStats bool) ([]map[string]string, error) {
	var params map[string]string
	if withStats {
		params = map[string]string{"stats": ""}
	}
	rows, err := c.RunCommand(ctx, path, params)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("routeros query", "path", path, "stats", withStats, "rows", len(rows))
	return rows, nil
}

// Close terminates the session. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return c.closeFn(conn)
}

func defaultDial(ctx context.Context, cfg Config) (*goros.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if cfg.UseTLS {
		tlsConfig := &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS} //nolint:gosec
		return goros.DialTLSContext(dialCtx, cfg.Address, cfg.Username, cfg.Password, tlsConfig)
	}
	return goros.DialContext(dialCtx, cfg.Address, cfg.Username, cfg.Password)
}

func defaultRun(ctx context.Context, conn *goros.Client, cmd string, args ...string) (*goros.Reply, error) {
	sentence := make([]string, 0, len(args)+1)
	sentence = append(sentence, cmd)
	sentence = append(sentence, args...)
	return conn.RunArgsContext(ctx, sentence)
}

func defaultClose(conn *goros.Client) error {
	return conn.Close()
}
