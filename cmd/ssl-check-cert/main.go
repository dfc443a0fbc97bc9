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
	"strings"
	"syscall"

	"github.com/micro-ha/zabbix-adapters/internal/certcheck"
	"github.com/micro-ha/zabbix-adapters/internal/config"
	"github.com/micro-ha/zabbix-adapters/internal/logging"
)

const usage = `ssl-check-cert - certificate status or days before expiration for Zabbix

Usage:
  ssl-check-cert --host <name> [--port 443] --status|--day-before-expire [--debug]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], nil, os.Stdout, os.Stderr))
}

// run prints the requested value, or the failure message in its place so
// the Zabbix item shows why the check failed.
func run(ctx context.Context, args []string, checker *certcheck.Checker, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ssl-check-cert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	host := fs.String("host", "", "server hostname")
	port := fs.Int("port", 443, "server port")
	status := fs.Bool("status", false, "print 1 if the certificate is valid, 0 if expired")
	days := fs.Bool("day-before-expire", false, "print days before the certificate expires")
	debug := fs.Bool("debug", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*host) == "" || *status == *days {
		fs.Usage()
		return 2
	}

	level := config.ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if *debug {
		level = slog.LevelDebug
	}
	logger := logging.New(stderr, level)
	if checker == nil {
		checker = certcheck.New(logger)
	}
	logger.Debug("testing host", "host", *host, "port", *port)

	var (
		value int
		err   error
	)
	if *status {
		value, err = checker.Status(ctx, *host, *port)
	} else {
		value, err = checker.DaysBeforeExpire(ctx, *host, *port)
	}
	if err != nil {
		var (
			connectErr *certcheck.ConnectError
			certErr    *certcheck.CertError
		)
		if errors.As(err, &connectErr) || errors.As(err, &certErr) {
			fmt.Fprintln(stdout, err.Error())
			return 0
		}
		logger.Error("certificate check failed", "err", err)
		return 3
	}
	fmt.Fprintln(stdout, value)
	return 0
}
