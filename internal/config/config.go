package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"banktycoon/internal/recorder"
	"banktycoon/internal/store"
)

// Process is what every binary that hosts a game needs.
type Process struct {
	SaveKey        string
	Seed           int64
	BalanceFile    string
	Store          store.Config
	Recorder       recorder.Config
	DiscordWebhook string
}

type APIConfig struct {
	Process
	Addr         string
	APIToken     string
	Speed        string
	AutoAdvance  bool
	AutosaveCron string
}

type WorkerConfig struct {
	Process
	RunOnce      bool
	Days         int
	TickEvery    time.Duration
	AutosaveCron string
}

type CLIConfig struct {
	APIBaseURL string
	APIToken   string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("BANK_API_ADDR", ":8080")
	}
	proc, err := loadProcess()
	if err != nil {
		return APIConfig{}, err
	}
	cfg := APIConfig{
		Process:      proc,
		Addr:         addr,
		APIToken:     strings.TrimSpace(os.Getenv("BANK_API_TOKEN")),
		Speed:        strings.ToLower(envDefault("BANK_SPEED", "normal")),
		AutoAdvance:  envBoolDefault("BANK_AUTO_ADVANCE", true),
		AutosaveCron: envDefault("BANK_AUTOSAVE_CRON", "0 */5 * * * *"),
	}
	switch cfg.Speed {
	case "fast", "normal", "slow":
	default:
		return cfg, fmt.Errorf("BANK_SPEED must be fast, normal or slow, got %q", cfg.Speed)
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	proc, err := loadProcess()
	if err != nil {
		return WorkerConfig{}, err
	}
	cfg := WorkerConfig{
		Process:      proc,
		RunOnce:      envBoolDefault("BANK_WORKER_RUN_ONCE", false),
		Days:         envIntDefault("BANK_WORKER_DAYS", 30),
		TickEvery:    envDurationDefault("BANK_WORKER_TICK_EVERY", time.Second),
		AutosaveCron: envDefault("BANK_AUTOSAVE_CRON", "0 */5 * * * *"),
	}
	if cfg.Days <= 0 {
		return cfg, fmt.Errorf("BANK_WORKER_DAYS must be > 0")
	}
	if cfg.TickEvery <= 0 {
		return cfg, fmt.Errorf("BANK_WORKER_TICK_EVERY must be > 0")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("BANK_API_BASE_URL", "http://localhost:8080"), "/"),
		APIToken:   strings.TrimSpace(os.Getenv("BANK_API_TOKEN")),
	}
}

func loadProcess() (Process, error) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg := Process{
		SaveKey:     envDefault("BANK_SAVE_KEY", "bankTycoonSave"),
		Seed:        int64(envIntDefault("BANK_SEED", 0)),
		BalanceFile: strings.TrimSpace(os.Getenv("BANK_BALANCE_FILE")),
		Store: store.Config{
			Driver:      strings.ToLower(envDefault("BANK_STORE_DRIVER", store.DriverFile)),
			Path:        strings.TrimSpace(os.Getenv("BANK_STORE_PATH")),
			DatabaseURL: databaseURL,
			S3: store.S3Config{
				Bucket:    strings.TrimSpace(os.Getenv("BANK_S3_BUCKET")),
				Region:    strings.TrimSpace(os.Getenv("BANK_S3_REGION")),
				Endpoint:  strings.TrimSpace(os.Getenv("BANK_S3_ENDPOINT")),
				PathStyle: envBoolDefault("BANK_S3_PATH_STYLE", false),
				Prefix:    envDefault("BANK_S3_PREFIX", "saves/"),
			},
		},
		Recorder: recorder.Config{
			Driver:      strings.ToLower(envDefault("BANK_RECORDER_DRIVER", "none")),
			Path:        envDefault("BANK_RECORDER_PATH", "bank_history.db"),
			DatabaseURL: databaseURL,
		},
		DiscordWebhook: strings.TrimSpace(os.Getenv("BANK_DISCORD_WEBHOOK_URL")),
	}
	if cfg.Store.Driver == store.DriverPostgres && databaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required for the postgres store")
	}
	if cfg.Store.Driver == store.DriverS3 && cfg.Store.S3.Bucket == "" {
		return cfg, fmt.Errorf("BANK_S3_BUCKET is required for the s3 store")
	}
	if cfg.Recorder.Driver == "postgres" && databaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required for the postgres recorder")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
