package squid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Types lists the helper pages the cache manager serves.
var Types = []string{"negotiateauthenticator", "ntlmauthenticator", "basicauthenticator", "external_acl"}

// helperLine matches one row of a helper statistics table:
// id, FD, PID, requests, replies, flags, time, offset and the request text.
var helperLine = regexp.MustCompile(`(?m)^\s+(\d+)\s+(\d+)\s+(\d+)\s+(\d+)\s+(\d+)([\s|BCRSP]+)\s+([\d|\.]+)\s+(\d+)\s+(.*)$`)

var whitespace = regexp.MustCompile(`\s+`)

type Helper struct {
	ID      int
	FD      int
	PID     int
	Flags   string
	Time    float64
	Request string
}

// Busy reports whether the helper is only marked as busy.
func (h Helper) Busy() bool {
	return h.Flags == "B"
}

// ParseHelpers extracts helper rows from a cache manager page. Rows whose
// time column is not a number are skipped.
func ParseHelpers(page string) []Helper {
	matches := helperLine.FindAllStringSubmatch(page, -1)
	helpers := make([]Helper, 0, len(matches))
	for _, m := range matches {
		elapsed, err := strconv.ParseFloat(m[7], 64)
		if err != nil {
			continue
		}
		id, _ := strconv.Atoi(m[1])
		fd, _ := strconv.Atoi(m[2])
		pid, _ := strconv.Atoi(m[3])
		helpers = append(helpers, Helper{
			ID:      id,
			FD:      fd,
			PID:     pid,
			Flags:   whitespace.ReplaceAllString(m[6], ""),
			Time:    elapsed,
			Request: strings.TrimSpace(m[9]),
		})
	}
	return helpers
}

// AnyBusyOver reports whether a busy helper has run longer than limit seconds.
func AnyBusyOver(helpers []Helper, limit float64) bool {
	for _, h := range helpers {
		if h.Busy() && h.Time > limit {
			return true
		}
	}
	return false
}

// HTTPError is a non-2xx answer from the cache manager.
type HTTPError struct {
	Code int
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "HTTPError"
	}
	return fmt.Sprintf("HTTPError: %d", e.Code)
}

// URLError means the cache manager could not be reached.
type URLError struct {
	Err error
}

func (e *URLError) Error() string {
	if e == nil {
		return "URLError"
	}
	reason := e.Err
	var urlErr *url.Error
	if errors.As(reason, &urlErr) {
		reason = urlErr.Err
	}
	return fmt.Sprintf("URLError: %v", reason)
}

func (e *URLError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(host string, port string) *Client {
	return &Client{
		BaseURL:    "http://" + host + ":" + port,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchPage downloads /squid-internal-mgr/<kind>.
func (c *Client) FetchPage(ctx context.Context, kind string) (string, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/squid-internal-mgr/" + kind
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &URLError{Err: err}
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &URLError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &URLError{Err: err}
	}
	return string(body), nil
}

// Busy fetches the page for kind and applies AnyBusyOver.
func (c *Client) Busy(ctx context.Context, kind string, limit float64) (bool, error) {
	page, err := c.FetchPage(ctx, kind)
	if err != nil {
		return false, err
	}
	return AnyBusyOver(ParseHelpers(page), limit), nil
}
