package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/micro-ha/zabbix-adapters/internal/config"
	"github.com/micro-ha/zabbix-adapters/internal/logging"
	"github.com/micro-ha/zabbix-adapters/internal/squid"
)

const usage = `squid-busy - report Squid helpers stuck on a request for Zabbix

Usage:
  squid-busy --type negotiateauthenticator|ntlmauthenticator|basicauthenticator|external_acl
             [--squid-host localhost] [--squid-port 3128] [--time-limit 1]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], "", os.Stdout, os.Stderr))
}

// run prints 1 when a busy helper exceeds the time limit and 0 otherwise.
// baseURL overrides the host and port flags when set.
func run(ctx context.Context, args []string, baseURL string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("squid-busy", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	host := fs.String("squid-host", "localhost", "Squid manager host address")
	port := fs.String("squid-port", "3128", "Squid manager port")
	kind := fs.String("type", "", "type of authenticator or external_acl")
	limit := fs.Float64("time-limit", 1, "time limit for request execution in seconds")
	debug := fs.Bool("debug", false, "debug logging")

	if len(args) == 0 {
		fs.Usage()
		return 1
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !slices.Contains(squid.Types, *kind) {
		fmt.Fprintf(stderr, "--type must be one of %s\n", strings.Join(squid.Types, ", "))
		return 2
	}

	level := config.ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if *debug {
		level = slog.LevelDebug
	}
	logger := logging.New(stderr, level)

	client := squid.NewClient(*host, *port)
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	logger.Debug("fetching helper stats", "url", client.BaseURL, "type", *kind)

	busy, err := client.Busy(ctx, *kind, *limit)
	if err != nil {
		var (
			httpErr *squid.HTTPError
			urlErr  *squid.URLError
		)
		if errors.As(err, &httpErr) || errors.As(err, &urlErr) {
			fmt.Fprintln(stdout, err.Error())
			return 0
		}
		logger.Error("squid check failed", "err", err)
		return 3
	}
	if busy {
		fmt.Fprintln(stdout, 1)
	} else {
		fmt.Fprintln(stdout, 0)
	}
	return 0
}
