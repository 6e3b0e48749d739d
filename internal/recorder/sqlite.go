package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"banktycoon/internal/game"

	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "bank_history.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	r := &SQLite{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS monthly_pnl (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at   INTEGER NOT NULL,
			save_key      TEXT NOT NULL,
			year          INTEGER NOT NULL,
			month         INTEGER NOT NULL,
			revenue       TEXT NOT NULL,
			expenses      TEXT NOT NULL,
			revenue_total REAL,
			expense_total REAL,
			net_income    REAL,
			loans_issued  INTEGER,
			loan_defaults INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pnl_key ON monthly_pnl(save_key, year, month)`,
		`CREATE TABLE IF NOT EXISTS events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			save_key    TEXT NOT NULL,
			event_id    TEXT NOT NULL,
			title       TEXT,
			choice      TEXT,
			outcome     TEXT,
			game_date   TEXT,
			timed_out   INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_key ON events(save_key)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLite) RecordMonth(ctx context.Context, saveKey string, pnl game.MonthlyPnL) error {
	revenue, expenses, err := encodeBreakdown(pnl)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = r.db.ExecContext(ctx, `INSERT INTO monthly_pnl
		(recorded_at, save_key, year, month, revenue, expenses,
		 revenue_total, expense_total, net_income, loans_issued, loan_defaults)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), saveKey, pnl.Year, pnl.Month, revenue, expenses,
		pnl.RevenueTotal, pnl.ExpenseTotal, pnl.NetIncome, pnl.LoansIssued, pnl.LoanDefaults,
	)
	return err
}

func (r *SQLite) RecordEvent(ctx context.Context, saveKey string, rec game.EventRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.ExecContext(ctx, `INSERT INTO events
		(recorded_at, save_key, event_id, title, choice, outcome, game_date, timed_out)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), saveKey, rec.ID, rec.Title, rec.Choice, rec.Outcome, rec.Date, rec.TimedOut,
	)
	return err
}

func (r *SQLite) Close() error {
	return r.db.Close()
}

func encodeBreakdown(pnl game.MonthlyPnL) (string, string, error) {
	revenue, err := json.Marshal(pnl.Revenue)
	if err != nil {
		return "", "", fmt.Errorf("encode revenue: %w", err)
	}
	expenses, err := json.Marshal(pnl.Expenses)
	if err != nil {
		return "", "", fmt.Errorf("encode expenses: %w", err)
	}
	return string(revenue), string(expenses), nil
}
