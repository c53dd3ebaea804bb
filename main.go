package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weblinuxgui/internal/capture"
	"weblinuxgui/internal/clients"
	"weblinuxgui/internal/config"
	"weblinuxgui/internal/input/robot"
	"weblinuxgui/internal/observability"
	"weblinuxgui/internal/server"
	"weblinuxgui/internal/session"
)

func main() {
	settings, err := config.Load(os.Getenv("REMOTE_CONFIG"))
	logger := observability.NewLogger(settings.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	if os.Getenv("DISPLAY") == "" {
		// X11 capture and injection need a display; assume the local one.
		os.Setenv("DISPLAY", ":0")
	}

	metrics := observability.NewMetrics()
	registry := clients.NewRegistry(settings.MaxConnections)
	deps := session.Deps{
		Settings: settings,
		Screen:   capture.DisplayScreen{},
		Encoder:  capture.JPEGEncoder{},
		Injector: robot.New(),
		Logger:   logger,
		Metrics:  metrics,
	}

	srv := &http.Server{
		Addr:              settings.Addr(),
		Handler:           server.New(deps, registry).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Int("fps", settings.TargetFPS).
			Int("quality", settings.JPEGQuality).
			Float64("scale", settings.ResizeScale).
			Int("max_connections", settings.MaxConnections).
			Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("server shutdown requested")

	// Shutdown does not wait for hijacked websocket sessions; they are
	// abandoned with the process.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
}
