package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banktycoon/internal/api"
	"banktycoon/internal/app"
	"banktycoon/internal/config"
	"banktycoon/internal/metrics"
	"banktycoon/internal/runner"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	collector := metrics.New()
	g, err := app.Open(ctx, cfg.Process, logger, collector)
	if err != nil {
		logger.Error("game init failed", "err", err)
		os.Exit(1)
	}
	defer g.Close()

	speed, err := runner.ParseSpeed(cfg.Speed)
	if err != nil {
		logger.Error("bad speed", "err", err)
		os.Exit(1)
	}
	clock, err := runner.New(g.Service, runner.Options{
		Cadence:      g.Balance.Speeds,
		Speed:        speed,
		AutoAdvance:  cfg.AutoAdvance,
		AutosaveCron: cfg.AutosaveCron,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("runner init failed", "err", err)
		os.Exit(1)
	}
	clockDone := make(chan struct{})
	go func() {
		defer close(clockDone)
		clock.Run(ctx)
	}()

	server := api.New(cfg, logger, g.Service, api.Options{
		Clock:    clock,
		Observer: collector,
		Metrics:  collector.Handler(),
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("bank api listening", "addr", cfg.Addr, "speed", speed, "auto_advance", cfg.AutoAdvance)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
	<-clockDone

	saveCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := g.Service.Save(saveCtx); err != nil {
		logger.Error("final save failed", "err", err)
	}
}
