package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"banktycoon/internal/game"
)

func exerciseStore(t *testing.T, s game.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "slot"); !errors.Is(err, game.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot on empty store, got %v", err)
	}
	if err := s.Put(ctx, "slot", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "slot", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, "slot")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("got %s", got)
	}
	if err := s.Delete(ctx, "slot"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "slot"); !errors.Is(err, game.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot after delete, got %v", err)
	}
	if err := s.Delete(ctx, "slot"); err != nil {
		t.Fatalf("deleting a missing save should be a no-op: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	_ = m.Put(ctx, "k", buf)
	buf[0] = 'z'
	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("store aliased the caller's buffer: %s", got)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseStore(t, s)

	if err := s.Put(context.Background(), "../escape", []byte("x")); err == nil {
		t.Fatalf("path traversal in save key accepted")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "saves", "bank.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{Driver: "memory"}},
		{name: "default is file", cfg: Config{Path: t.TempDir()}},
		{name: "sqlite", cfg: Config{Driver: "SQLite", Path: filepath.Join(t.TempDir(), "b.db")}},
		{name: "postgres needs url", cfg: Config{Driver: "postgres"}, wantErr: true},
		{name: "s3 needs bucket", cfg: Config{Driver: "s3"}, wantErr: true},
		{name: "unknown", cfg: Config{Driver: "redis"}, wantErr: true},
	}
	for _, tc := range tests {
		s, err := Open(ctx, tc.cfg)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		_ = s.Close()
	}
}
