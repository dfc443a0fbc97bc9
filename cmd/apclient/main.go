package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/micro-ha/zabbix-adapters/internal/config"
	"github.com/micro-ha/zabbix-adapters/internal/configsync"
	httpapi "github.com/micro-ha/zabbix-adapters/internal/http"
	"github.com/micro-ha/zabbix-adapters/internal/logging"
	"github.com/micro-ha/zabbix-adapters/internal/metrics"
	"github.com/micro-ha/zabbix-adapters/internal/model"
	"github.com/micro-ha/zabbix-adapters/internal/report"
	"github.com/micro-ha/zabbix-adapters/internal/routeros"
	"github.com/micro-ha/zabbix-adapters/internal/service"
)

const usage = `apclient - MikroTik wireless client discovery and stats for Zabbix

Usage:
  apclient [global flags] discovery
  apclient [global flags] summary
  apclient [global flags] stats --mac <address>
  apclient [global flags] ssid --name <ssid>
  apclient [global flags] serve [--listen :9105]

Global flags:
  --host <addr>          RouterOS API address (ROUTEROS_HOST)
  --username <name>      API user (ROUTEROS_USERNAME)
  --password <secret>    API password (ROUTEROS_PASSWORD)
  --api capsman|wifi     registration table to read (default capsman)
  --tls                  use the API-SSL service
  --verify-tls           verify the device certificate
  --timeout <seconds>    dial timeout (default 10)
  --config <path>        YAML config file
  --debug                debug logging
`

const (
	exitOK        = 0
	exitAuth      = 1
	exitUsage     = 2
	exitRuntime   = 3
	wrongPassword = "Wrong username or password"
)

type app struct {
	stdout io.Writer
	stderr io.Writer
	dialer service.Dialer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(a.run(ctx, os.Args[1:]))
}

type globalFlags struct {
	fs         *flag.FlagSet
	host       string
	username   string
	password   string
	api        string
	tls        bool
	verifyTLS  bool
	timeout    int
	configPath string
	debug      bool
}

func newGlobalFlags(stderr io.Writer) *globalFlags {
	g := &globalFlags{fs: flag.NewFlagSet("apclient", flag.ContinueOnError)}
	g.fs.SetOutput(stderr)
	g.fs.Usage = func() { fmt.Fprint(stderr, usage) }
	g.fs.StringVar(&g.host, "host", "", "RouterOS API address")
	g.fs.StringVar(&g.username, "username", "", "API user")
	g.fs.StringVar(&g.password, "password", "", "API password")
	g.fs.StringVar(&g.api, "api", "", "capsman or wifi")
	g.fs.BoolVar(&g.tls, "tls", false, "use API-SSL")
	g.fs.BoolVar(&g.verifyTLS, "verify-tls", false, "verify device certificate")
	g.fs.IntVar(&g.timeout, "timeout", 0, "dial timeout in seconds")
	g.fs.StringVar(&g.configPath, "config", "", "YAML config file")
	g.fs.BoolVar(&g.debug, "debug", false, "debug logging")
	return g
}

// override re-applies the flags that were given explicitly, so they win over
// the config file and the environment.
func (g *globalFlags) override(variant model.Variant) func(model.RouterConfig) model.RouterConfig {
	set := map[string]bool{}
	g.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	return func(cfg model.RouterConfig) model.RouterConfig {
		if set["host"] {
			cfg.Host = strings.TrimSpace(g.host)
		}
		if set["username"] {
			cfg.Username = strings.TrimSpace(g.username)
		}
		if set["password"] {
			cfg.Password = g.password
		}
		if set["api"] {
			cfg.API = variant
		}
		if set["tls"] {
			cfg.SSL = g.tls
		}
		if set["verify-tls"] {
			cfg.VerifyTLS = g.verifyTLS
		}
		if set["timeout"] && g.timeout > 0 {
			cfg.TimeoutSec = g.timeout
		}
		return cfg
	}
}

func (a *app) run(ctx context.Context, args []string) int {
	g := newGlobalFlags(a.stderr)
	if err := g.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	rest := g.fs.Args()
	if len(rest) == 0 {
		fmt.Fprint(a.stderr, usage)
		return exitUsage
	}

	var variant model.Variant
	if g.api != "" {
		parsed, err := model.ParseVariant(g.api)
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return exitUsage
		}
		variant = parsed
	}

	cfg, err := config.LoadWithFile(g.configPath)
	if err != nil {
		fmt.Fprintf(a.stderr, "load config: %v\n", err)
		return exitUsage
	}
	if g.debug {
		cfg.LogLevel = slog.LevelDebug
	}
	logger := logging.New(a.stderr, cfg.LogLevel)

	dialer := a.dialer
	if dialer == nil {
		dialer = service.RouterOSDialer{Logger: logger}
	}
	override := g.override(variant)

	cmd, cmdArgs := rest[0], rest[1:]
	if cmd == "help" {
		fmt.Fprint(a.stdout, usage)
		return exitOK
	}
	if cmd == "serve" {
		return a.serve(ctx, cmdArgs, cfg, g.configPath, override, dialer, logger)
	}

	mode, ok := a.parseMode(cmd, cmdArgs)
	if !ok {
		return exitUsage
	}
	router := override(cfg.Router)
	if !router.Configured() {
		fmt.Fprintln(a.stderr, "host, username and password are required")
		return exitUsage
	}

	svc := service.New(dialer, configsync.NewStatic(router), logger)
	return a.exitCode(svc.Run(ctx, a.stdout, mode), logger)
}

func (a *app) parseMode(cmd string, args []string) (report.Mode, bool) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(a.stderr)

	var mode report.Mode
	switch cmd {
	case "discovery":
		mode = report.Discovery()
	case "summary":
		mode = report.Summary()
	case "stats":
		mac := fs.String("mac", "", "client hardware address")
		if err := fs.Parse(args); err != nil {
			return report.Mode{}, false
		}
		mode = report.StatsFor(*mac)
	case "ssid":
		name := fs.String("name", "", "SSID to count")
		if err := fs.Parse(args); err != nil {
			return report.Mode{}, false
		}
		mode = report.SSIDCount(*name)
	default:
		fmt.Fprintf(a.stderr, "unknown command %q\n\n%s", cmd, usage)
		return report.Mode{}, false
	}
	return mode, true
}

// exitCode maps a run result onto the exit status Zabbix sees.
func (a *app) exitCode(err error, logger *slog.Logger) int {
	if err == nil {
		return exitOK
	}

	var (
		authErr       *routeros.AuthenticationError
		usageErr      *service.UsageError
		validationErr *routeros.ValidationError
	)
	switch {
	case errors.As(err, &authErr):
		fmt.Fprintln(a.stdout, wrongPassword)
		return exitAuth
	case errors.As(err, &usageErr), errors.As(err, &validationErr), errors.Is(err, service.ErrNotConfigured):
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	default:
		logger.Error("apclient failed", "err", err)
		return exitRuntime
	}
}

func (a *app) serve(
	ctx context.Context,
	args []string,
	cfg config.Config,
	configPath string,
	override func(model.RouterConfig) model.RouterConfig,
	dialer service.Dialer,
	logger *slog.Logger,
) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	listen := fs.String("listen", cfg.HTTPAddr, "HTTP listen address")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	manager := configsync.NewManager(configsync.FileSource{Path: configPath, Override: override}, logger)
	if _, err := manager.Refresh(ctx); err != nil {
		logger.Error("initial config load failed", "err", err)
		return exitUsage
	}
	if _, ok := manager.Get(); !ok {
		logger.Warn("router connection not configured; API will answer 409 until it is")
	}

	if configPath != "" {
		watcher := configsync.NewWatcher(configPath, logger)
		go func() {
			err := watcher.Run(ctx, func() {
				refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				changed, err := manager.Refresh(refreshCtx)
				if err != nil {
					logger.Warn("config reload failed", "err", err)
					return
				}
				if changed {
					logger.Info("config reloaded", "path", configPath)
				}
			})
			if err != nil {
				logger.Warn("config watcher stopped", "err", err)
			}
		}()
	}

	svc := service.New(dialer, manager, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(svc, logger))
	api := httpapi.New(svc, manager, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), logger)

	httpServer := &http.Server{
		Addr:              *listen,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", httpServer.Addr)
	if err := httpapi.RunServer(ctx, httpServer, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated with error", "err", err)
		return exitRuntime
	}
	logger.Info("server stopped")
	return exitOK
}
