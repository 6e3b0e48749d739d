package game

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSnapshotRestoresRawFieldsAndDerived(t *testing.T) {
	e := quietEngine()
	st := e.NewState()
	st.Cash = 4321
	st.Deposits = 2500
	st.Investments.Bonds = 700
	st.Trust = 64
	st.Date = Date{Year: 1951, Month: 7, Day: 12}
	st.LastThiefAttemptYear = 1949
	st.Staff = Staff{Tellers: 2, Guards: 1}
	vault, _ := st.FindTech(TechSecurity, "vault1")
	vault.Level = 2
	acct, _ := st.FindTech(TechProfit, "accounting")
	acct.Level = 1
	recalcDerived(st)

	raw, err := json.Marshal(TakeSnapshot(st, time.UnixMilli(1_700_000_000_000)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Version != SnapshotVersion || snap.Timestamp != 1_700_000_000_000 {
		t.Fatalf("header=%s/%d", snap.Version, snap.Timestamp)
	}

	got, err := e.Restore(snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got.Cash != 4321 || got.Deposits != 2500 || got.Investments.Bonds != 700 || got.Trust != 64 {
		t.Fatalf("money not restored: %+v", got.Investments)
	}
	if got.Date.Year != 1951 || got.Date.Month != 7 || got.Era != EraPostwar || got.LastThiefAttemptYear != 1949 {
		t.Fatalf("time not restored: %+v %s", got.Date, got.Era)
	}
	if got.SecurityProtection != 40+25 || got.SecurityLevel != "Low" || !near(got.ProfitMultiplier, 1.05, 1e-9) {
		t.Fatalf("derived: protection=%v level=%s multiplier=%v", got.SecurityProtection, got.SecurityLevel, got.ProfitMultiplier)
	}
	for _, id := range []string{"crash1929", "bankHoliday1933"} {
		if !got.HistoricalCrises[id] {
			t.Fatalf("%s should stay fired after restore", id)
		}
	}
}

func TestRestoreToleratesMinimalSave(t *testing.T) {
	e := quietEngine()
	raw := []byte(`{"version":"2.0","cash":900,"deposits":0,"trust":150,"year":1931,"month":2,
		"technologies":{"security":[{"id":"vault1","level":9}]}}`)
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	st, err := e.Restore(snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if st.Trust != MaxTrust {
		t.Fatalf("trust not clamped: %v", st.Trust)
	}
	if n, _ := st.FindTech(TechSecurity, "vault1"); n.Level != n.MaxLevel {
		t.Fatalf("tech level not clamped: %d", n.Level)
	}
	if !st.HistoricalCrises["crash1929"] || st.HistoricalCrises["bankHoliday1933"] {
		t.Fatalf("crisis flags=%v", st.HistoricalCrises)
	}
	if st.Staff != (Staff{}) || st.BankLevel != 1 {
		t.Fatalf("missing optional fields should default: %+v level=%d", st.Staff, st.BankLevel)
	}
}

func TestDecodeSnapshotRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `{"cash":`},
		{name: "no version", raw: `{"cash":1,"year":1920,"month":1}`},
		{name: "old major version", raw: `{"version":"1.0","year":1920,"month":1}`},
		{name: "bad month", raw: `{"version":"2.0","year":1920,"month":13}`},
	}
	for _, tc := range tests {
		if _, err := DecodeSnapshot([]byte(tc.raw)); !errors.Is(err, ErrInvalidSnapshot) {
			t.Fatalf("%s: expected ErrInvalidSnapshot, got %v", tc.name, err)
		}
	}
}

func TestExportChecksum(t *testing.T) {
	st := quietEngine().NewState()
	raw, _ := json.Marshal(TakeSnapshot(st, time.Now()))

	env, err := EncodeExport(raw)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	snap, back, err := DecodeExport(env)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Cash != StartCash || string(back) != string(raw) {
		t.Fatalf("export did not carry the exact snapshot")
	}

	tampered := strings.Replace(string(env), `"cash": 1000`, `"cash": 9000`, 1)
	if tampered == string(env) {
		tampered = strings.Replace(string(env), `"cash":1000`, `"cash":9000`, 1)
	}
	if _, _, err := DecodeExport([]byte(tampered)); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("tampered export accepted: %v", err)
	}
}

func TestRestoreKeepsEventCooldown(t *testing.T) {
	tests := []struct {
		name  string
		saved int
		want  int
	}{
		{name: "recent event", saved: monthIndex(1951, 5), want: monthIndex(1951, 5)},
		{name: "no event yet", saved: 0, want: 0},
		{name: "clock ahead of save date", saved: monthIndex(1960, 1), want: monthIndex(1951, 7)},
	}
	for _, tc := range tests {
		e := quietEngine()
		st := e.NewState()
		st.Date = Date{Year: 1951, Month: 7, Day: 3}
		st.LastEventMonth = tc.saved

		raw, err := json.Marshal(TakeSnapshot(st, time.UnixMilli(0)))
		if err != nil {
			t.Fatalf("%s: marshal: %v", tc.name, err)
		}
		snap, err := DecodeSnapshot(raw)
		if err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		got, err := e.Restore(snap)
		if err != nil {
			t.Fatalf("%s: restore: %v", tc.name, err)
		}
		if got.LastEventMonth != tc.want {
			t.Fatalf("%s: LastEventMonth=%d want %d", tc.name, got.LastEventMonth, tc.want)
		}
	}

	// Inside the cooldown a restored game must not roll a random event.
	e := NewEngine(fixedRand{f: 0}, DefaultBalance())
	st := e.NewState()
	st.Date = Date{Year: 1951, Month: 7, Day: DaysPerMonth}
	st.LastEventMonth = monthIndex(1951, 5)
	got, err := e.Restore(TakeSnapshot(st, time.UnixMilli(0)))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, ok := e.processEvents(got); ok || got.ActiveEvent != nil {
		t.Fatalf("event fired inside restored cooldown: %+v", got.ActiveEvent)
	}
}
