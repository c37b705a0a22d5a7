// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/vidserve/internal/config"
	"github.com/ManuGH/vidserve/internal/daemon"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "vidserve",
		Version: version.Version,
		Output:  os.Stdout,
	})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.Log.Level,
		Service: cfg.Log.Service,
		Version: cfg.Version,
		Output:  os.Stdout,
	})
	logger = xglog.WithComponent("main")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", path).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Msg("configuration loaded")

	rt, err := daemon.Bootstrap(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "bootstrap.failed").Msg("failed to initialize daemon")
	}

	if err := rt.Run(ctx); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("daemon stopped with error")
		stop()
		os.Exit(1)
	}
	logger.Info().Str(xglog.FieldEvent, "shutdown.complete").Msg("server exited gracefully")
}
