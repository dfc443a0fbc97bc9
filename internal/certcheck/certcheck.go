package certcheck

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"strconv"
	"time"
)

const DefaultTimeout = 3 * time.Second

// ConnectError means no TCP connection could be made or the peer went silent.
type ConnectError struct {
	Host string
	Err  error
}

func (e *ConnectError) Error() string {
	if e == nil {
		return "could not connect"
	}
	return fmt.Sprintf("%s could not connect", e.Host)
}

func (e *ConnectError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CertError means the TLS handshake failed or no certificate was presented.
type CertError struct {
	Host string
	Err  error
}

func (e *CertError) Error() string {
	if e == nil {
		return "cert error"
	}
	return fmt.Sprintf("%s cert error %v", e.Host, e.Err)
}

func (e *CertError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Checker reads the leaf certificate of a TLS endpoint. The chain is not
// verified: an expired or self-signed certificate must still be reported.
type Checker struct {
	Timeout time.Duration
	Now     func() time.Time
	Logger  *slog.Logger
}

func New(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Checker{Timeout: DefaultTimeout, Now: time.Now, Logger: logger}
}

// Expiry returns the NotAfter time of the certificate served on host:port.
func (c *Checker) Expiry(ctx context.Context, host string, port int) (time.Time, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	c.logger().Debug("connect", "addr", addr)
	dialer := &net.Dialer{}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return time.Time{}, &ConnectError{Host: host, Err: err}
	}
	defer raw.Close()

	conn := tls.Client(raw, &tls.Config{ServerName: host, InsecureSkipVerify: true}) //nolint:gosec
	if err := conn.HandshakeContext(ctx); err != nil {
		var netErr net.Error
		if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return time.Time{}, &ConnectError{Host: host, Err: err}
		}
		return time.Time{}, &CertError{Host: host, Err: err}
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return time.Time{}, &CertError{Host: host, Err: errors.New("no peer certificate")}
	}
	expires := certs[0].NotAfter
	c.logger().Debug("certificate expiry", "host", host, "not_after", expires.UTC().Format(time.RFC3339))
	return expires, nil
}

// Remaining is the time left before the certificate expires; negative once expired.
func (c *Checker) Remaining(ctx context.Context, host string, port int) (time.Duration, error) {
	expires, err := c.Expiry(ctx, host, port)
	if err != nil {
		return 0, err
	}
	return expires.Sub(c.now()), nil
}

// Status is 1 while the certificate is valid and 0 once it has expired.
func (c *Checker) Status(ctx context.Context, host string, port int) (int, error) {
	remaining, err := c.Remaining(ctx, host, port)
	if err != nil {
		return 0, err
	}
	if remaining < 0 {
		return 0, nil
	}
	return 1, nil
}

// DaysBeforeExpire returns whole days left, floored, so an expired
// certificate yields a negative count.
func (c *Checker) DaysBeforeExpire(ctx context.Context, host string, port int) (int, error) {
	remaining, err := c.Remaining(ctx, host, port)
	if err != nil {
		return 0, err
	}
	return FloorDays(remaining), nil
}

func FloorDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

func (c *Checker) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Checker) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Checker) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}
