package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/hdlnet/hdlproxy/resolver"
	"github.com/hdlnet/hdlproxy/util/svcutil"

	cli "github.com/urfave/cli/v2"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the hdlproxy HTTP daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "bind",
			Usage:    "Specify the local IP/port to bind to",
			Required: false,
			Value:    ":8000",
			EnvVars:  []string{"HDLPROXY_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"HDLPROXY_METRICS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "refresh-interval",
			Usage:   "how often to re-load the prefix registry from repositories (0 to only load at startup)",
			Value:   0,
			EnvVars: []string{"HDLPROXY_REFRESH_INTERVAL"},
		},
		&cli.BoolFlag{
			Name:    "disable-refresh-endpoint",
			Usage:   "disable the admin registry refresh API endpoint",
			EnvVars: []string{"HDLPROXY_DISABLE_REFRESH_ENDPOINT"},
		},
		&cli.BoolFlag{
			Name:    "require-prefixes",
			Usage:   "exit at startup if no prefix could be loaded from any repository",
			EnvVars: []string{"HDLPROXY_REQUIRE_PREFIXES"},
		},
	},
	Action: runServe,
}

func runServe(cctx *cli.Context) error {
	logger := svcutil.ConfigLogger(cctx, os.Stdout)

	shutdownOTEL, err := setupOTEL(cctx)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer shutdownOTEL()

	res, err := configResolver(cctx, logger)
	if err != nil {
		return err
	}

	srv, err := NewServer(res, Config{
		Logger:         logger,
		Bind:           cctx.String("bind"),
		DisableRefresh: cctx.Bool("disable-refresh-endpoint"),
	})
	if err != nil {
		return fmt.Errorf("failed to construct server: %v", err)
	}

	if err := srv.storage.Init(cctx.Context); err != nil {
		if cctx.Bool("require-prefixes") || !errors.Is(err, resolver.ErrRegistryEmpty) {
			return err
		}
		logger.Error("starting with empty prefix registry", "err", err)
	}

	ctx, cancel := context.WithCancel(cctx.Context)
	defer cancel()
	if interval := cctx.Duration("refresh-interval"); interval > 0 {
		go func() {
			if err := srv.RunRefresh(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("registry refresh loop failed", "err", err)
			}
		}()
	}

	// prometheus HTTP endpoint: /metrics
	go func() {
		runtime.SetBlockProfileRate(10)
		runtime.SetMutexProfileFraction(10)
		if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
			slog.Error("failed to start metrics endpoint", "error", err)
			panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
		}
	}()

	return srv.RunAPI()
}
