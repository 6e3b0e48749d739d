package config

import (
	"fmt"
	"os"
	"strings"

	"banktycoon/internal/game"
	"banktycoon/internal/runner"

	"gopkg.in/yaml.v3"
)

// Balance is the tunable side of the game, read from an optional YAML file:
//
//	start_year: 1920
//	start_cash: 1000
//	customer_timeout_ticks: 1
//	loan_timeout_ticks: 2
//	event_timeout_ticks: 30
//	log_size: 50
//	history_cap: 120
//	speeds:
//	  fast: 5s
//	  normal: 10s
//	  slow: 15s
type Balance struct {
	game.Balance `yaml:",inline"`
	Speeds       runner.Cadence `yaml:"speeds"`
}

// LoadBalance reads path if it exists, then applies BANK_* overrides, then
// defaults. An empty path or a missing file is not an error.
func LoadBalance(path string) (Balance, error) {
	var b Balance
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Balance{}, fmt.Errorf("read balance file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &b); err != nil {
				return Balance{}, fmt.Errorf("parse balance file: %w", err)
			}
		}
	}

	b.StartYear = envIntDefault("BANK_START_YEAR", b.StartYear)
	b.StartCash = envFloatDefault("BANK_START_CASH", b.StartCash)
	b.CustomerTimeoutTicks = envIntDefault("BANK_CUSTOMER_TIMEOUT_TICKS", b.CustomerTimeoutTicks)
	b.LoanTimeoutTicks = envIntDefault("BANK_LOAN_TIMEOUT_TICKS", b.LoanTimeoutTicks)
	b.EventTimeoutTicks = envIntDefault("BANK_EVENT_TIMEOUT_TICKS", b.EventTimeoutTicks)

	b.Balance = b.Balance.Normalized()
	b.Speeds = runner.Cadence{
		Fast:   b.Speeds.For(runner.SpeedFast),
		Normal: b.Speeds.For(runner.SpeedNormal),
		Slow:   b.Speeds.For(runner.SpeedSlow),
	}
	if b.Speeds.Fast > b.Speeds.Slow {
		return Balance{}, fmt.Errorf("speeds: fast (%s) is slower than slow (%s)", b.Speeds.Fast, b.Speeds.Slow)
	}
	return b, nil
}
