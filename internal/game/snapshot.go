package game

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"golang.org/x/crypto/blake2b"
)

// DefaultSaveKey names the save slot when none is configured.
const DefaultSaveKey = "bankTycoonSave"

type TechLevel struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// Snapshot is the persisted form of a game. Only raw fields are stored;
// everything derived is recomputed on restore. Fields after
// LastThiefAttemptYear are optional and default when absent.
type Snapshot struct {
	Version              string                       `json:"version"`
	Timestamp            int64                        `json:"timestamp"`
	Cash                 float64                      `json:"cash"`
	Deposits             float64                      `json:"deposits"`
	Investments          Investments                  `json:"investments"`
	TotalProfit          float64                      `json:"total_profit"`
	ActiveAccounts       int                          `json:"active_accounts"`
	Trust                float64                      `json:"trust"`
	Year                 int                          `json:"year"`
	Month                int                          `json:"month"`
	Tech                 map[TechCategory][]TechLevel `json:"technologies"`
	LastThiefAttemptYear int                          `json:"last_thief_attempt_year"`

	Day                 int               `json:"day,omitempty"`
	Tick                int               `json:"tick,omitempty"`
	Staff               *Staff            `json:"staff,omitempty"`
	BankLevel           int               `json:"bank_level,omitempty"`
	Rates               *Rates            `json:"rates,omitempty"`
	Automation          *AutomationConfig `json:"automation,omitempty"`
	Segments            *Segments         `json:"segments,omitempty"`
	Loans               []ActiveLoan      `json:"loans,omitempty"`
	HistoricalCrises    map[string]bool   `json:"historical_crises,omitempty"`
	CompletedObjectives []string          `json:"completed_objectives,omitempty"`
	LastEventMonth      int               `json:"last_event_month,omitempty"`
}

func TakeSnapshot(st *BankState, now time.Time) Snapshot {
	snap := Snapshot{
		Version:              SnapshotVersion,
		Timestamp:            now.UnixMilli(),
		Cash:                 st.Cash,
		Deposits:             st.Deposits,
		Investments:          st.Investments,
		TotalProfit:          st.TotalProfit,
		ActiveAccounts:       st.ActiveAccounts,
		Trust:                st.Trust,
		Year:                 st.Date.Year,
		Month:                st.Date.Month,
		Tech:                 make(map[TechCategory][]TechLevel, len(st.Tech)),
		LastThiefAttemptYear: st.LastThiefAttemptYear,

		Day:            st.Date.Day,
		Tick:           st.Tick,
		BankLevel:      st.BankLevel,
		Rates:          &Rates{Deposit: st.DepositRate, Loan: st.LoanBaseRate},
		Loans:          append([]ActiveLoan(nil), st.Loans...),
		Staff:          &Staff{},
		Automation:     &AutomationConfig{},
		Segments:       &Segments{},
		LastEventMonth: st.LastEventMonth,
	}
	*snap.Staff = st.Staff
	*snap.Automation = st.Automation
	*snap.Segments = st.Segments
	for _, cat := range TechCategories {
		for _, n := range st.Tech[cat] {
			snap.Tech[cat] = append(snap.Tech[cat], TechLevel{ID: n.ID, Level: n.Level})
		}
	}
	if len(st.HistoricalCrises) > 0 {
		snap.HistoricalCrises = make(map[string]bool, len(st.HistoricalCrises))
		for k, v := range st.HistoricalCrises {
			snap.HistoricalCrises[k] = v
		}
	}
	for _, o := range st.Objectives {
		if o.Completed {
			snap.CompletedObjectives = append(snap.CompletedObjectives, o.ID)
		}
	}
	return snap
}

func (s Snapshot) validate() error {
	if s.Version == "" || s.Version[0] != SnapshotVersion[0] {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}
	if s.Year < 1 || s.Month < 1 || s.Month > MonthsPerYear {
		return fmt.Errorf("%w: bad date %d/%d", ErrInvalidSnapshot, s.Year, s.Month)
	}
	for _, v := range []float64{s.Cash, s.Deposits, s.TotalProfit, s.Trust,
		s.Investments.Bonds, s.Investments.Stocks, s.Investments.Speculative} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite amount", ErrInvalidSnapshot)
		}
	}
	return nil
}

// Restore builds a fresh game and lays the snapshot over it. The snapshot is
// validated first, so a bad save never yields a half-restored state.
func (e *Engine) Restore(snap Snapshot) (*BankState, error) {
	if err := snap.validate(); err != nil {
		return nil, err
	}
	st := e.NewState()

	st.Cash = snap.Cash
	st.Deposits = snap.Deposits
	st.Investments = Investments{
		Bonds:       math.Max(0, snap.Investments.Bonds),
		Stocks:      math.Max(0, snap.Investments.Stocks),
		Speculative: math.Max(0, snap.Investments.Speculative),
	}
	st.TotalProfit = snap.TotalProfit
	st.ActiveAccounts = snap.ActiveAccounts
	st.Trust = snap.Trust
	st.Date = Date{Year: snap.Year, Month: snap.Month, Day: 1}
	if snap.Day >= 1 && snap.Day <= DaysPerMonth {
		st.Date.Day = snap.Day
	}
	st.Era = EraFor(st.Date.Year)
	st.LastThiefAttemptYear = snap.LastThiefAttemptYear
	st.Tick = max(0, snap.Tick)

	for cat, levels := range snap.Tech {
		for _, saved := range levels {
			n, err := st.FindTech(cat, saved.ID)
			if err != nil {
				continue
			}
			n.Level = max(0, min(saved.Level, n.MaxLevel))
		}
	}

	if snap.BankLevel >= 1 {
		st.BankLevel = min(snap.BankLevel, MaxLevel)
	}
	st.MaxStaff = StaffCapacity(st.BankLevel)
	if snap.Staff != nil {
		for _, role := range Roles {
			*st.Staff.ptr(role) = max(0, min(snap.Staff.Count(role), st.MaxStaff.Count(role)))
		}
	}
	if snap.Rates != nil {
		st.DepositRate = clamp(snap.Rates.Deposit, 0, maxPlayerRate)
		st.LoanBaseRate = clamp(snap.Rates.Loan, 0, maxPlayerRate)
	}
	if snap.Automation != nil && validateAutomation(*snap.Automation) == nil {
		st.Automation = *snap.Automation
	}
	if snap.Segments != nil {
		st.Segments = *snap.Segments
	}
	st.Loans = append(st.Loans[:0], snap.Loans...)
	done := make(map[string]bool, len(snap.CompletedObjectives))
	for _, id := range snap.CompletedObjectives {
		done[id] = true
	}
	for i := range st.Objectives {
		st.Objectives[i].Completed = done[st.Objectives[i].ID]
	}
	// Crises dated before the restored month can no longer fire; the current
	// month's crisis has fired unless the save says otherwise.
	now := monthIndex(st.Date.Year, st.Date.Month)
	// A missing cooldown clock leaves random events eligible, as in a new game.
	st.LastEventMonth = max(0, min(snap.LastEventMonth, now))
	for _, d := range crisisEvents {
		fired, known := snap.HistoricalCrises[d.id]
		switch at := monthIndex(d.year, d.month); {
		case at < now:
			st.HistoricalCrises[d.id] = true
		case at == now:
			st.HistoricalCrises[d.id] = fired || !known
		default:
			st.HistoricalCrises[d.id] = fired
		}
	}

	st.TellerCapacity = st.Staff.Tellers * 10
	st.Products = defaultProducts()
	e.unlockProducts(st)
	assignProducts(st)
	st.clampInvariants()
	recalcDerived(st)
	updateMarketShare(st)
	st.Log = nil
	return st, nil
}

// Export is the portable form of a save: the snapshot plus a checksum over
// its compact bytes.
type Export struct {
	Snapshot json.RawMessage `json:"snapshot"`
	Checksum string          `json:"checksum"`
}

// Checksum is the hex blake2b-256 of raw.
func Checksum(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func compactJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return buf.Bytes(), nil
}

// EncodeExport checksums the compact form of the snapshot, so indenting the
// envelope does not invalidate it.
func EncodeExport(snapshotJSON []byte) ([]byte, error) {
	compact, err := compactJSON(snapshotJSON)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(Export{
		Snapshot: json.RawMessage(compact),
		Checksum: Checksum(compact),
	}, "", "  ")
}

// DecodeExport verifies an export envelope and returns the snapshot it
// carries along with its raw bytes.
func DecodeExport(data []byte) (Snapshot, []byte, error) {
	var env Export
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if len(env.Snapshot) == 0 {
		return Snapshot{}, nil, fmt.Errorf("%w: missing snapshot", ErrInvalidSnapshot)
	}
	compact, err := compactJSON(env.Snapshot)
	if err != nil {
		return Snapshot{}, nil, err
	}
	if env.Checksum != Checksum(compact) {
		return Snapshot{}, nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidSnapshot)
	}
	snap, err := DecodeSnapshot(compact)
	if err != nil {
		return Snapshot{}, nil, err
	}
	return snap, compact, nil
}

func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := snap.validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
