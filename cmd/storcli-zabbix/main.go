package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/micro-ha/zabbix-adapters/internal/config"
	"github.com/micro-ha/zabbix-adapters/internal/logging"
	"github.com/micro-ha/zabbix-adapters/internal/storcli"
)

const usage = `storcli-zabbix - MegaRAID health from StorCLI JSON for Zabbix

Usage:
  storcli-zabbix [--storcli-path <path>] --discover-controller|--discover-pd|--discover-vd|--get-info
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], storcli.ExecRunner{}, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, runner storcli.Runner, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("storcli-zabbix", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	path := fs.String("storcli-path", storcli.DefaultPath, "path to the StorCLI binary")
	discoverCtrl := fs.Bool("discover-controller", false, "discover controllers")
	discoverPD := fs.Bool("discover-pd", false, "discover physical disks")
	discoverVD := fs.Bool("discover-vd", false, "discover virtual disks")
	getInfo := fs.Bool("get-info", false, "get health info")
	debug := fs.Bool("debug", false, "debug logging")

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 1
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var modes []storcli.Mode
	if *discoverCtrl {
		modes = append(modes, storcli.ModeDiscoverController)
	}
	if *discoverPD {
		modes = append(modes, storcli.ModeDiscoverPD)
	}
	if *discoverVD {
		modes = append(modes, storcli.ModeDiscoverVD)
	}
	if *getInfo {
		modes = append(modes, storcli.ModeInfo)
	}
	if len(modes) != 1 {
		fmt.Fprintln(stderr, "exactly one of --discover-controller, --discover-pd, --discover-vd, --get-info is required")
		return 2
	}

	level := config.ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if *debug {
		level = slog.LevelDebug
	}
	logger := logging.New(stderr, level)

	logger.Debug("running storcli", "path", *path, "mode", modes[0])
	doc, err := storcli.Load(ctx, runner, *path)
	if err != nil {
		logger.Error("storcli failed", "err", err)
		return 3
	}
	out, err := storcli.Render(doc, modes[0])
	if err != nil {
		logger.Error("render failed", "err", err)
		return 3
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}
