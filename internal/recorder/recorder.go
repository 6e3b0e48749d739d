package recorder

import (
	"context"
	"fmt"
	"strings"

	"banktycoon/internal/game"
)

// Recorder persists closed months and resolved events for later analysis.
type Recorder interface {
	game.HistoryRecorder
	Close() error
}

type Config struct {
	Driver      string // none|sqlite|postgres
	Path        string
	DatabaseURL string
}

func Open(ctx context.Context, cfg Config) (Recorder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "none", "noop":
		return NewNoop(), nil
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL required for postgres recorder")
		}
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown recorder driver %q", cfg.Driver)
	}
}
