package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// SnapshotStore is a key-value blob store for saves. Get returns
// ErrNoSnapshot when key is absent.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// HistoryRecorder receives closed months and resolved events.
type HistoryRecorder interface {
	RecordMonth(ctx context.Context, saveKey string, pnl MonthlyPnL) error
	RecordEvent(ctx context.Context, saveKey string, rec EventRecord) error
}

type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// TickObserver sees every tick while the state is locked. It must not keep
// st or mutate it.
type TickObserver interface {
	ObserveTick(rep TickReport, st *BankState)
}

type Options struct {
	Store    SnapshotStore
	Recorder HistoryRecorder
	Notifier Notifier
	Observer TickObserver
	SaveKey  string
	Balance  Balance
	Rand     Rand
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service owns the one BankState and serializes every read and write of it.
// Store, recorder and notifier I/O happens outside the lock.
type Service struct {
	mu   sync.Mutex
	eng  *Engine
	st   *BankState
	seen map[string]struct{}

	store    SnapshotStore
	recorder HistoryRecorder
	notifier Notifier
	observer TickObserver
	saveKey  string
	log      *slog.Logger
	now      func() time.Time
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	key := strings.TrimSpace(opts.SaveKey)
	if key == "" {
		key = DefaultSaveKey
	}
	eng := NewEngine(opts.Rand, opts.Balance)
	return &Service{
		eng:      eng,
		st:       eng.NewState(),
		seen:     map[string]struct{}{},
		store:    opts.Store,
		recorder: opts.Recorder,
		notifier: opts.Notifier,
		observer: opts.Observer,
		saveKey:  key,
		log:      logger,
		now:      now,
	}
}

func (s *Service) SaveKey() string { return s.saveKey }

func (s *Service) Balance() Balance { return s.eng.Balance() }

// followUp is the I/O a tick or command leaves behind, run after unlock.
type followUp struct {
	months     []MonthlyPnL
	events     []EventRecord
	triggered  []ActiveEvent
	objectives []Objective
	autosave   []byte
}

func (f *followUp) absorb(rep TickReport) {
	if rep.MonthClosed != nil {
		f.months = append(f.months, *rep.MonthClosed)
	}
	f.events = append(f.events, rep.EventsResolved...)
	if rep.EventTriggered != nil {
		f.triggered = append(f.triggered, *rep.EventTriggered)
	}
	f.objectives = append(f.objectives, rep.ObjectivesCompleted...)
}

// Tick advances one day.
func (s *Service) Tick(ctx context.Context) TickReport {
	s.mu.Lock()
	var f followUp
	rep := s.tickLocked(&f)
	s.mu.Unlock()

	s.flush(ctx, f)
	return rep
}

// Advance runs n ticks back to back and returns the last report. It stops
// early when ctx is done.
func (s *Service) Advance(ctx context.Context, n int) (TickReport, error) {
	if n <= 0 {
		return TickReport{}, fmt.Errorf("advance %d days: %w", n, ErrInvalidAmount)
	}
	var (
		f   followUp
		rep TickReport
	)
	s.mu.Lock()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			s.mu.Unlock()
			s.flush(context.WithoutCancel(ctx), f)
			return rep, err
		}
		rep = s.tickLocked(&f)
	}
	s.mu.Unlock()

	s.flush(ctx, f)
	return rep, nil
}

func (s *Service) tickLocked(f *followUp) TickReport {
	rep := s.eng.Tick(s.st)
	f.absorb(rep)
	if rep.YearRolled && s.store != nil {
		if raw, err := json.Marshal(TakeSnapshot(s.st, s.now())); err == nil {
			f.autosave = raw
		}
	}
	if rep.MonthClosed != nil {
		s.log.Info("month closed",
			"year", rep.MonthClosed.Year,
			"month", rep.MonthClosed.Month,
			"cash", s.st.Cash,
			"net_income", rep.MonthClosed.NetIncome,
		)
	}
	if s.observer != nil {
		s.observer.ObserveTick(rep, s.st)
	}
	return rep
}

func (s *Service) flush(ctx context.Context, f followUp) {
	if s.recorder != nil {
		for _, m := range f.months {
			if err := s.recorder.RecordMonth(ctx, s.saveKey, m); err != nil {
				s.log.Error("record month", "year", m.Year, "month", m.Month, "err", err)
			}
		}
		for _, rec := range f.events {
			if err := s.recorder.RecordEvent(ctx, s.saveKey, rec); err != nil {
				s.log.Error("record event", "event", rec.ID, "err", err)
			}
		}
	}
	if s.notifier != nil {
		for _, ev := range f.triggered {
			if !ev.Crisis {
				continue
			}
			if err := s.notifier.Notify(ctx, ev.Title, ev.Description); err != nil {
				s.log.Warn("notify crisis", "event", ev.ID, "err", err)
			}
		}
		for _, o := range f.objectives {
			body := fmt.Sprintf("%s (+$%.0f)", o.Description, o.Reward)
			if err := s.notifier.Notify(ctx, "Objective complete: "+o.Name, body); err != nil {
				s.log.Warn("notify objective", "objective", o.ID, "err", err)
			}
		}
	}
	if f.autosave != nil {
		if err := s.store.Put(ctx, s.saveKey, f.autosave); err != nil {
			s.log.Error("autosave", "err", err)
			s.gameLog(LogDanger, "Autosave failed: %v", err)
		} else {
			s.log.Info("autosaved", "key", s.saveKey)
		}
	}
}

func (s *Service) gameLog(kind LogKind, format string, args ...any) {
	s.mu.Lock()
	s.eng.logf(s.st, kind, format, args...)
	s.mu.Unlock()
}

// State returns a deep copy of the game for reading.
func (s *Service) State() (*BankState, error) {
	s.mu.Lock()
	raw, err := json.Marshal(s.st)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("copy state: %w", err)
	}
	var out BankState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("copy state: %w", err)
	}
	return &out, nil
}

func (s *Service) Analytics() Analytics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Analyze(s.st)
}

// exec runs one command under the lock. A non-empty idem key is claimed
// only when the command succeeds, so a failed command can be retried.
func (s *Service) exec(idem string, fn func(st *BankState) error) error {
	idem = strings.TrimSpace(idem)
	s.mu.Lock()
	defer s.mu.Unlock()
	if idem != "" {
		if _, dup := s.seen[idem]; dup {
			return ErrDuplicateIdempotency
		}
	}
	if err := fn(s.st); err != nil {
		return err
	}
	s.st.clampInvariants()
	if idem != "" {
		s.seen[idem] = struct{}{}
	}
	return nil
}

func (s *Service) ApproveCustomer(idem, id string) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.ApproveCustomer(st, id) })
}

func (s *Service) DenyCustomer(idem, id string) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.DenyCustomer(st, id) })
}

func (s *Service) ApproveLoan(idem, id string) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.ApproveLoan(st, id) })
}

func (s *Service) DenyLoan(idem, id string) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.DenyLoan(st, id) })
}

func (s *Service) Hire(idem string, role Role) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.Hire(st, role) })
}

func (s *Service) Fire(idem string, role Role) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.Fire(st, role) })
}

func (s *Service) UpgradeBank(idem string) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.UpgradeBank(st) })
}

func (s *Service) Invest(idem string, bucket Bucket, amount float64) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.Invest(st, bucket, amount) })
}

func (s *Service) ResearchTech(idem string, cat TechCategory, id string) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.ResearchTech(st, cat, id) })
}

func (s *Service) SetRates(idem string, deposit, loan float64) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.SetRates(st, deposit, loan) })
}

func (s *Service) SetAutomation(idem string, cfg AutomationConfig) error {
	return s.exec(idem, func(st *BankState) error { return s.eng.SetAutomation(st, cfg) })
}

func (s *Service) ResolveEvent(ctx context.Context, idem string, choice int) (EventRecord, error) {
	var rec EventRecord
	err := s.exec(idem, func(st *BankState) error {
		var err error
		rec, err = s.eng.ResolveEvent(st, choice)
		return err
	})
	if err != nil {
		return EventRecord{}, err
	}
	s.flush(ctx, followUp{events: []EventRecord{rec}})
	return rec, nil
}

func (s *Service) snapshotJSON() ([]byte, error) {
	s.mu.Lock()
	snap := TakeSnapshot(s.st, s.now())
	s.mu.Unlock()
	return json.Marshal(snap)
}

func (s *Service) requireStore() error {
	if s.store == nil {
		return errors.New("no snapshot store configured")
	}
	return nil
}

func (s *Service) Save(ctx context.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	raw, err := s.snapshotJSON()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.store.Put(ctx, s.saveKey, raw); err != nil {
		s.gameLog(LogDanger, "Failed to save game: %v", err)
		return fmt.Errorf("save %s: %w", s.saveKey, err)
	}
	s.gameLog(LogSuccess, "Game saved successfully")
	return nil
}

// Load replaces the running game with the stored save. On any failure the
// running game is left as it was.
func (s *Service) Load(ctx context.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	raw, err := s.store.Get(ctx, s.saveKey)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			s.gameLog(LogWarning, "No saved game found")
		} else {
			s.gameLog(LogDanger, "Failed to load game: %v", err)
		}
		return fmt.Errorf("load %s: %w", s.saveKey, err)
	}
	return s.loadRaw(raw)
}

func (s *Service) loadRaw(raw []byte) error {
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		s.gameLog(LogDanger, "Failed to load game: %v", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.eng.Restore(snap)
	if err != nil {
		s.eng.logf(s.st, LogDanger, "Failed to load game: %v", err)
		return err
	}
	s.st = st
	s.seen = map[string]struct{}{}
	s.eng.logf(s.st, LogSuccess, "Game loaded successfully")
	return nil
}

func (s *Service) DeleteSave(ctx context.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.saveKey); err != nil {
		return fmt.Errorf("delete %s: %w", s.saveKey, err)
	}
	s.gameLog(LogWarning, "Save deleted")
	return nil
}

// Export returns the stored save wrapped in a checksummed envelope.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	raw, err := s.store.Get(ctx, s.saveKey)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			s.gameLog(LogWarning, "No saved game to export")
		}
		return nil, fmt.Errorf("export %s: %w", s.saveKey, err)
	}
	return EncodeExport(raw)
}

// Import verifies an export, stores it as the save and loads it.
func (s *Service) Import(ctx context.Context, data []byte) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	_, raw, err := DecodeExport(data)
	if err != nil {
		s.gameLog(LogDanger, "Failed to import save: %v", err)
		return err
	}
	if err := s.store.Put(ctx, s.saveKey, raw); err != nil {
		return fmt.Errorf("import %s: %w", s.saveKey, err)
	}
	if err := s.loadRaw(raw); err != nil {
		return err
	}
	s.gameLog(LogSuccess, "Save imported and loaded")
	return nil
}

// NewGame discards the running game and the stored save.
func (s *Service) NewGame(ctx context.Context) error {
	if s.store != nil {
		if err := s.store.Delete(ctx, s.saveKey); err != nil && !errors.Is(err, ErrNoSnapshot) {
			return fmt.Errorf("new game: %w", err)
		}
	}
	s.mu.Lock()
	s.st = s.eng.NewState()
	s.seen = map[string]struct{}{}
	s.mu.Unlock()
	s.log.Info("new game started", "key", s.saveKey)
	return nil
}
