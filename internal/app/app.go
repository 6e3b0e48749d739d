package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"banktycoon/internal/config"
	"banktycoon/internal/game"
	"banktycoon/internal/notify"
	"banktycoon/internal/recorder"
	"banktycoon/internal/store"
)

// Game is a running game with the resources behind it.
type Game struct {
	Service  *game.Service
	Balance  config.Balance
	store    store.Store
	recorder recorder.Recorder
}

// Open wires the store, recorder and notifier named by cfg into a game
// service and resumes the stored save when there is one.
func Open(ctx context.Context, cfg config.Process, logger *slog.Logger, observer game.TickObserver) (*Game, error) {
	bal, err := config.LoadBalance(cfg.BalanceFile)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rec, err := recorder.Open(ctx, cfg.Recorder)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open recorder: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := game.Options{
		Store:    st,
		Recorder: rec,
		Notifier: notify.FromEnv(cfg.DiscordWebhook, logger),
		SaveKey:  cfg.SaveKey,
		Balance:  bal.Balance,
		Rand:     rand.New(rand.NewSource(seed)),
		Logger:   logger,
	}
	if observer != nil {
		opts.Observer = observer
	}
	svc := game.NewService(opts)

	switch err := svc.Load(ctx); {
	case err == nil:
		logger.Info("save resumed", "key", svc.SaveKey(), "store", cfg.Store.Driver)
	case errors.Is(err, game.ErrNoSnapshot):
		logger.Info("new game", "key", svc.SaveKey(), "store", cfg.Store.Driver, "seed", seed)
	default:
		logger.Warn("save not loaded, starting fresh", "key", svc.SaveKey(), "err", err)
	}
	return &Game{Service: svc, Balance: bal, store: st, recorder: rec}, nil
}

func (g *Game) Close() error {
	return errors.Join(g.recorder.Close(), g.store.Close())
}
