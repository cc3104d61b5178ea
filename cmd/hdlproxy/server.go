package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hdlnet/hdlproxy/internal/ticker"
	"github.com/hdlnet/hdlproxy/resolver"
	"github.com/hdlnet/hdlproxy/storage"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

type Server struct {
	resolver *resolver.Resolver
	storage  *storage.ProxyStorage
	echo     *echo.Echo
	httpd    *http.Server
	logger   *slog.Logger

	disableRefresh bool
	requestTimeout time.Duration
}

type Config struct {
	Logger         *slog.Logger
	Bind           string
	DisableRefresh bool
	// Upper bound on the time spent answering a single request. Defaults to 30 seconds.
	RequestTimeout time.Duration
	// Where HTTP request metrics are registered. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

func NewServer(res *resolver.Resolver, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	e := echo.New()

	// httpd
	var (
		httpTimeout        = 1 * time.Minute
		httpMaxHeaderBytes = 1 * (1024 * 1024)
	)

	srv := &Server{
		resolver:       res,
		storage:        storage.NewProxyStorage(res, logger),
		echo:           e,
		logger:         logger,
		disableRefresh: config.DisableRefresh,
		requestTimeout: config.RequestTimeout,
	}
	if srv.requestTimeout <= 0 {
		srv.requestTimeout = 30 * time.Second
	}
	srv.httpd = &http.Server{
		Handler:        srv,
		Addr:           config.Bind,
		WriteTimeout:   httpTimeout,
		ReadTimeout:    httpTimeout,
		MaxHeaderBytes: httpMaxHeaderBytes,
	}

	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	reg := config.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "hdlproxy",
		Registerer: reg,
	}))
	e.Use(otelecho.Middleware("hdlproxy"))
	e.HTTPErrorHandler = srv.errorHandler
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         31536000, // 365 days
	}))

	e.GET("/_health", srv.HandleHealthCheck)
	e.GET("/api/v1/resolve/*", srv.HandleResolve)
	e.GET("/api/v1/prefixes", srv.HandleListPrefixes)
	e.GET("/api/v1/na/:prefix", srv.HandleHaveNA)
	e.GET("/api/v1/na/:prefix/handles", srv.HandleListHandles)
	e.POST("/api/v1/admin/refresh", srv.HandleRefresh)
	e.PUT("/api/v1/handles/*", srv.HandleUpdateHandle)
	e.DELETE("/api/v1/handles/*", srv.HandleDeleteHandle)

	return srv, nil
}

func (srv *Server) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	srv.echo.ServeHTTP(rw, req)
}

// Re-loads the prefix registry every interval until ctx is done. Failed refreshes are logged, and the previous registry stays in place.
func (srv *Server) RunRefresh(ctx context.Context, interval time.Duration) error {
	return ticker.Periodically(ctx, interval, srv.resolver.Refresh, func(err error) {
		srv.logger.Warn("periodic registry refresh failed", "err", err)
	})
}

func (srv *Server) RunAPI() error {
	srv.logger.Info("starting server", "bind", srv.httpd.Addr)
	go func() {
		if err := srv.httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				srv.logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	// Wait for a signal to exit.
	srv.logger.Info("registering OS exit signal handler")
	quit := make(chan struct{})
	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-exitSignals
		srv.logger.Info("received OS exit signal", "signal", sig)

		if err := srv.Shutdown(); err != nil {
			srv.logger.Error("HTTP server shutdown error", "err", err)
		}

		close(quit)
	}()
	<-quit
	srv.logger.Info("graceful shutdown complete")
	return nil
}

func (srv *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (srv *Server) Shutdown() error {
	srv.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.storage.Shutdown(); err != nil {
		return err
	}
	return srv.httpd.Shutdown(ctx)
}
