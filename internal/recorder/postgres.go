package recorder

import (
	"context"
	"database/sql"
	"fmt"

	"banktycoon/internal/db"
	"banktycoon/internal/game"

	_ "github.com/lib/pq"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	conn.SetMaxOpenConns(2)
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range db.Schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &Postgres{db: conn}, nil
}

func (p *Postgres) RecordMonth(ctx context.Context, saveKey string, pnl game.MonthlyPnL) error {
	revenue, expenses, err := encodeBreakdown(pnl)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO bank.monthly_pnl
		(save_key, year, month, revenue, expenses, revenue_total, expense_total, net_income, loans_issued, loan_defaults)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, $8, $9, $10)`,
		saveKey, pnl.Year, pnl.Month, revenue, expenses,
		pnl.RevenueTotal, pnl.ExpenseTotal, pnl.NetIncome, pnl.LoansIssued, pnl.LoanDefaults,
	)
	if err != nil {
		return fmt.Errorf("insert monthly pnl: %w", err)
	}
	return nil
}

func (p *Postgres) RecordEvent(ctx context.Context, saveKey string, rec game.EventRecord) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO bank.events
		(save_key, event_id, title, choice, outcome, game_date, timed_out)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		saveKey, rec.ID, rec.Title, rec.Choice, rec.Outcome, rec.Date, rec.TimedOut,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error { return p.db.Close() }
