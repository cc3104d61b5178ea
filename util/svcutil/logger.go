package svcutil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"
)

// Parses a log level name (error, warn, info, debug). Empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// Builds a logger from level and format names. Format is "json" (default) or "text"; an unknown level falls back to info.
func NewLogger(level, format string, writer io.Writer) *slog.Logger {
	lvl, err := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.ToLower(format) == "text" {
		h = slog.NewTextHandler(writer, opts)
	} else {
		h = slog.NewJSONHandler(writer, opts)
	}
	logger := slog.New(h)
	if err != nil {
		logger.Warn("falling back to info log level", "err", err)
	}
	return logger
}

// Configures the default logger from the "log-level" and "log-format" flags.
func ConfigLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	logger := NewLogger(cctx.String("log-level"), cctx.String("log-format"), writer)
	slog.SetDefault(logger)
	return logger
}
