package game

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return append([]byte(nil), v...), nil
}

func (m *memStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type countingRecorder struct {
	months, events int
}

func (r *countingRecorder) RecordMonth(context.Context, string, MonthlyPnL) error {
	r.months++
	return nil
}

func (r *countingRecorder) RecordEvent(context.Context, string, EventRecord) error {
	r.events++
	return nil
}

func newTestService(store SnapshotStore) *Service {
	return NewService(Options{Store: store, Rand: fixedRand{f: 0.99}})
}

func TestServiceSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	if err := svc.Invest("", BucketBonds, 400); err != nil {
		t.Fatalf("invest: %v", err)
	}
	if err := svc.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.Invest("", BucketBonds, 100); err != nil {
		t.Fatalf("invest: %v", err)
	}
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	st, err := svc.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Investments.Bonds != 400 || st.Cash != 600 {
		t.Fatalf("loaded bonds=%v cash=%v", st.Investments.Bonds, st.Cash)
	}
}

func TestServiceLoadFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)
	if err := svc.Invest("", BucketStocks, 250); err != nil {
		t.Fatalf("invest: %v", err)
	}

	if err := svc.Load(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	_ = store.Put(ctx, svc.SaveKey(), []byte(`{"version":"2.0","year":1920,"month":99}`))
	if err := svc.Load(ctx); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}

	st, _ := svc.State()
	if st.Investments.Stocks != 250 {
		t.Fatalf("failed load replaced the game")
	}
	if last := st.Log[len(st.Log)-1]; last.Kind != LogDanger {
		t.Fatalf("failure not in the game log: %+v", last)
	}
}

func TestServiceExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestService(newMemStore())
	_ = src.Invest("", BucketSpeculative, 300)
	if err := src.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := newTestService(newMemStore())
	if err := dst.Import(ctx, data); err != nil {
		t.Fatalf("import: %v", err)
	}
	st, _ := dst.State()
	if st.Investments.Speculative != 300 {
		t.Fatalf("imported speculative=%v", st.Investments.Speculative)
	}
	if err := dst.Import(ctx, []byte(`{"snapshot":{},"checksum":"00"}`)); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestServiceIdempotency(t *testing.T) {
	svc := newTestService(nil)
	if err := svc.Invest("k1", BucketBonds, 5000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	// the failed attempt did not claim the key
	if err := svc.Invest("k1", BucketBonds, 100); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if err := svc.Invest("k1", BucketBonds, 100); !errors.Is(err, ErrDuplicateIdempotency) {
		t.Fatalf("expected ErrDuplicateIdempotency, got %v", err)
	}
	st, _ := svc.State()
	if st.Investments.Bonds != 100 {
		t.Fatalf("bonds=%v want 100", st.Investments.Bonds)
	}
}

func TestServiceAdvanceRecordsMonthsAndAutosaves(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	rec := &countingRecorder{}
	svc := NewService(Options{Store: store, Recorder: rec, Rand: fixedRand{f: 0.99}})

	rep, err := svc.Advance(ctx, DaysPerMonth*MonthsPerYear)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if rep.Tick != DaysPerMonth*MonthsPerYear || rec.months != MonthsPerYear {
		t.Fatalf("tick=%d months recorded=%d", rep.Tick, rec.months)
	}
	if _, err := store.Get(ctx, svc.SaveKey()); err != nil {
		t.Fatalf("year rollover should autosave: %v", err)
	}

	if _, err := svc.Advance(ctx, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestServiceNewGameDropsSave(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)
	_ = svc.Invest("", BucketBonds, 100)
	_ = svc.Save(ctx)

	if err := svc.NewGame(ctx); err != nil {
		t.Fatalf("new game: %v", err)
	}
	if _, err := store.Get(ctx, svc.SaveKey()); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("save survived a new game")
	}
	st, _ := svc.State()
	if st.Cash != StartCash || st.Investments.Bonds != 0 {
		t.Fatalf("state not reset")
	}
}
