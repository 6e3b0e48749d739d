package store

import (
	"context"
	"errors"
	"fmt"

	"banktycoon/internal/db"
	"banktycoon/internal/game"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM bank.saves WHERE save_key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("select save: %w", err)
	}
	return data, nil
}

func (p *Postgres) Put(ctx context.Context, key string, data []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO bank.saves (save_key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (save_key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, key, data)
	if err != nil {
		return fmt.Errorf("upsert save: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM bank.saves WHERE save_key = $1`, key); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
