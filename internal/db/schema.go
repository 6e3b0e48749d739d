package db

// Schema is shared by the pgx snapshot store and the database/sql recorder.
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS bank`,
	`CREATE TABLE IF NOT EXISTS bank.saves (
		save_key   TEXT PRIMARY KEY,
		data       BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bank.monthly_pnl (
		id            BIGSERIAL PRIMARY KEY,
		save_key      TEXT NOT NULL,
		year          INT NOT NULL,
		month         INT NOT NULL,
		revenue       JSONB NOT NULL,
		expenses      JSONB NOT NULL,
		revenue_total DOUBLE PRECISION NOT NULL,
		expense_total DOUBLE PRECISION NOT NULL,
		net_income    DOUBLE PRECISION NOT NULL,
		loans_issued  INT NOT NULL,
		loan_defaults INT NOT NULL,
		recorded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_monthly_pnl_key ON bank.monthly_pnl(save_key, year, month)`,
	`CREATE TABLE IF NOT EXISTS bank.events (
		id          BIGSERIAL PRIMARY KEY,
		save_key    TEXT NOT NULL,
		event_id    TEXT NOT NULL,
		title       TEXT NOT NULL,
		choice      TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		game_date   TEXT NOT NULL,
		timed_out   BOOLEAN NOT NULL DEFAULT false,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_key ON bank.events(save_key)`,
}
