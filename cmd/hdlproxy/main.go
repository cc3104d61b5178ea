package main

import (
	"fmt"
	"log/slog"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/hdlnet/hdlproxy/config"
	"github.com/hdlnet/hdlproxy/remote"
	"github.com/hdlnet/hdlproxy/resolver"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {
	return newApp().Run(args)
}

func newApp() *cli.App {

	app := &cli.App{
		Name:    "hdlproxy",
		Usage:   "handle resolution proxy for multiple remote repositories",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to properties (or .yaml) file with dspace.handle.endpoint* keys",
			EnvVars: []string{"HDLPROXY_CONFIG"},
		},
		&cli.StringSliceFlag{
			Name:    "endpoint",
			Usage:   "additional repository endpoint base URL (may be repeated)",
			EnvVars: []string{"HDLPROXY_ENDPOINTS"},
		},
		&cli.DurationFlag{
			Name:    "remote-timeout",
			Usage:   "timeout for each request to a remote repository",
			Value:   10 * time.Second,
			EnvVars: []string{"HDLPROXY_REMOTE_TIMEOUT"},
		},
		&cli.IntFlag{
			Name:    "remote-rate-limit",
			Usage:   "max number of requests per second to remote repositories (0 for unlimited)",
			Value:   0,
			EnvVars: []string{"HDLPROXY_REMOTE_RATE_LIMIT"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"HDLPROXY_LOG_LEVEL", "GO_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format (json or text)",
			Value:   "json",
			EnvVars: []string{"HDLPROXY_LOG_FORMAT"},
		},
		&cli.StringFlag{
			Name:    "otel-exporter-otlp-endpoint",
			Usage:   "OTLP HTTP endpoint to export traces to (tracing is disabled if unset)",
			EnvVars: []string{"OTEL_EXPORTER_OTLP_ENDPOINT"},
		},
	}

	app.Commands = []*cli.Command{
		serveCmd,
		resolveCmd,
		listHandlesCmd,
		listPrefixesCmd,
		haveNACmd,
	}

	return app
}

// Builds a Resolver from global flags. The registry is left empty; callers decide when to load it.
func configResolver(cctx *cli.Context, logger *slog.Logger) (*resolver.Resolver, error) {
	cfg, err := config.Load(cctx.String("config"), cctx.StringSlice("endpoint"))
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger.Info("configured repository endpoints", "count", len(cfg.Endpoints), "config", cfg.Path)

	client := remote.NewAPIClient(cctx.Duration("remote-timeout"))
	if n := cctx.Int("remote-rate-limit"); n > 0 {
		client.Limiter = rate.NewLimiter(rate.Limit(n), 1)
	}
	return resolver.NewResolver(client, cfg.Endpoints, logger), nil
}
