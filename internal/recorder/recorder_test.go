package recorder

import (
	"context"
	"path/filepath"
	"testing"

	"banktycoon/internal/game"
)

func TestSQLiteRecorder(t *testing.T) {
	ctx := context.Background()
	r, err := NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	pnl := game.MonthlyPnL{
		Year: 1920, Month: 1,
		Revenue:      map[string]float64{game.RevLoanInterest: 120},
		Expenses:     map[string]float64{game.ExpStaffWages: 50},
		RevenueTotal: 120, ExpenseTotal: 50, NetIncome: 70,
	}
	for i := 0; i < 3; i++ {
		if err := r.RecordMonth(ctx, "slot", pnl); err != nil {
			t.Fatalf("record month: %v", err)
		}
	}
	if err := r.RecordEvent(ctx, "slot", game.EventRecord{ID: "crash1929", Title: "Crash", Choice: "Hold", Outcome: "ok", TimedOut: true}); err != nil {
		t.Fatalf("record event: %v", err)
	}

	var months int
	var net float64
	if err := r.db.QueryRow(`SELECT COUNT(1), SUM(net_income) FROM monthly_pnl WHERE save_key = 'slot'`).Scan(&months, &net); err != nil {
		t.Fatalf("query: %v", err)
	}
	if months != 3 || net != 210 {
		t.Fatalf("months=%d net=%v", months, net)
	}
	var timedOut bool
	if err := r.db.QueryRow(`SELECT timed_out FROM events WHERE event_id = 'crash1929'`).Scan(&timedOut); err != nil {
		t.Fatalf("query event: %v", err)
	}
	if !timedOut {
		t.Fatalf("timed_out flag lost")
	}
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	r, err := Open(ctx, Config{})
	if err != nil {
		t.Fatalf("default driver: %v", err)
	}
	if _, ok := r.(*Noop); !ok {
		t.Fatalf("default recorder should be the no-op, got %T", r)
	}
	if _, err := Open(ctx, Config{Driver: "postgres"}); err == nil {
		t.Fatalf("postgres without url accepted")
	}
	if _, err := Open(ctx, Config{Driver: "kafka"}); err == nil {
		t.Fatalf("unknown driver accepted")
	}
}
