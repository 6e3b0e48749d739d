package store

import (
	"context"
	"fmt"
	"strings"

	"banktycoon/internal/game"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

type Config struct {
	Driver      string
	Path        string
	DatabaseURL string
	S3          S3Config
}

// Store is a game.SnapshotStore that holds resources until closed.
type Store interface {
	game.SnapshotStore
	Close() error
}

// Open builds the snapshot store named by cfg.Driver. An empty driver means
// file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverFile:
		return NewFile(cfg.Path)
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(cfg.Path)
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL required for postgres store")
		}
		return NewPostgres(ctx, cfg.DatabaseURL)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
