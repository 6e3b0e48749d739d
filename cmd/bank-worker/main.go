package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banktycoon/internal/app"
	"banktycoon/internal/config"
	"banktycoon/internal/runner"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	g, err := app.Open(ctx, cfg.Process, logger, nil)
	if err != nil {
		logger.Error("game init failed", "err", err)
		os.Exit(1)
	}
	defer g.Close()

	if cfg.RunOnce {
		rep, err := g.Service.Advance(ctx, cfg.Days)
		if err != nil {
			logger.Error("advance failed", "err", err)
			os.Exit(1)
		}
		if err := g.Service.Save(ctx); err != nil {
			logger.Error("save failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "days", cfg.Days, "tick", rep.Tick, "date", rep.Date.String())
		return
	}

	clock, err := runner.New(g.Service, runner.Options{
		Cadence:      runner.Cadence{Fast: cfg.TickEvery, Normal: cfg.TickEvery, Slow: cfg.TickEvery},
		Speed:        runner.SpeedNormal,
		AutoAdvance:  true,
		AutosaveCron: cfg.AutosaveCron,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("runner init failed", "err", err)
		os.Exit(1)
	}

	logger.Info("worker started", "tick_every", cfg.TickEvery.String(), "autosave", cfg.AutosaveCron)
	clock.Run(ctx)

	saveCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := g.Service.Save(saveCtx); err != nil {
		logger.Error("final save failed", "err", err)
		os.Exit(1)
	}
	logger.Info("worker shutdown")
}
