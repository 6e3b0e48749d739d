package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"banktycoon/internal/store"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("BANK_API_ADDR", "")
	t.Setenv("BANK_STORE_DRIVER", "")
	t.Setenv("BANK_SPEED", "")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Speed != "normal" || !cfg.AutoAdvance || cfg.Store.Driver != store.DriverFile {
		t.Fatalf("defaults=%+v", cfg)
	}
	if cfg.SaveKey != "bankTycoonSave" {
		t.Fatalf("save key=%q", cfg.SaveKey)
	}
}

func TestLoadAPIFromEnvValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad speed", env: map[string]string{"BANK_SPEED": "warp"}},
		{name: "postgres without url", env: map[string]string{"BANK_STORE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{name: "s3 without bucket", env: map[string]string{"BANK_STORE_DRIVER": "s3", "BANK_S3_BUCKET": ""}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadAPIFromEnv(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPortOverridesAddr(t *testing.T) {
	t.Setenv("PORT", "9000")
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
}

func TestLoadWorkerFromEnv(t *testing.T) {
	t.Setenv("BANK_WORKER_RUN_ONCE", "true")
	t.Setenv("BANK_WORKER_DAYS", "360")
	t.Setenv("BANK_WORKER_TICK_EVERY", "not-a-duration")
	cfg, err := LoadWorkerFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.RunOnce || cfg.Days != 360 || cfg.TickEvery != time.Second {
		t.Fatalf("worker=%+v", cfg)
	}
	t.Setenv("BANK_WORKER_DAYS", "0")
	if _, err := LoadWorkerFromEnv(); err == nil {
		t.Fatalf("zero days accepted")
	}
}

func TestLoadBalance(t *testing.T) {
	t.Setenv("BANK_START_CASH", "")
	t.Setenv("BANK_EVENT_TIMEOUT_TICKS", "")

	missing, err := LoadBalance(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should be fine: %v", err)
	}
	if missing.StartYear != 1920 || missing.StartCash != 1000 || missing.Speeds.Normal != 10*time.Second {
		t.Fatalf("defaults=%+v", missing)
	}

	path := filepath.Join(t.TempDir(), "balance.yaml")
	body := "start_cash: 2500\nloan_timeout_ticks: 4\nspeeds:\n  fast: 2s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BANK_EVENT_TIMEOUT_TICKS", "60")
	b, err := LoadBalance(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.StartCash != 2500 || b.LoanTimeoutTicks != 4 || b.EventTimeoutTicks != 60 {
		t.Fatalf("balance=%+v", b.Balance)
	}
	if b.Speeds.Fast != 2*time.Second || b.Speeds.Slow != 15*time.Second {
		t.Fatalf("speeds=%+v", b.Speeds)
	}

	if err := os.WriteFile(path, []byte("start_cash: [oops"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadBalance(path); err == nil {
		t.Fatalf("bad yaml accepted")
	}
}
