package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"banktycoon/internal/game"

	"github.com/robfig/cron/v3"
)

type Speed string

const (
	SpeedFast   Speed = "fast"
	SpeedNormal Speed = "normal"
	SpeedSlow   Speed = "slow"
)

func ParseSpeed(s string) (Speed, error) {
	switch Speed(strings.ToLower(strings.TrimSpace(s))) {
	case SpeedFast:
		return SpeedFast, nil
	case SpeedNormal, "":
		return SpeedNormal, nil
	case SpeedSlow:
		return SpeedSlow, nil
	}
	return "", fmt.Errorf("unknown speed %q (want fast, normal or slow)", s)
}

// Cadence is the wall-clock length of one simulated day at each speed.
type Cadence struct {
	Fast   time.Duration `yaml:"fast" json:"fast"`
	Normal time.Duration `yaml:"normal" json:"normal"`
	Slow   time.Duration `yaml:"slow" json:"slow"`
}

func DefaultCadence() Cadence {
	return Cadence{Fast: 5 * time.Second, Normal: 10 * time.Second, Slow: 15 * time.Second}
}

func (c Cadence) For(s Speed) time.Duration {
	def := DefaultCadence()
	pick := func(v, fallback time.Duration) time.Duration {
		if v <= 0 {
			return fallback
		}
		return v
	}
	switch s {
	case SpeedFast:
		return pick(c.Fast, def.Fast)
	case SpeedSlow:
		return pick(c.Slow, def.Slow)
	default:
		return pick(c.Normal, def.Normal)
	}
}

// Game is the part of game.Service the runner drives.
type Game interface {
	Tick(ctx context.Context) game.TickReport
	Save(ctx context.Context) error
}

type Options struct {
	Cadence      Cadence
	Speed        Speed
	AutoAdvance  bool
	AutosaveCron string // six fields, seconds first; empty disables
	Logger       *slog.Logger
}

type Status struct {
	Speed       Speed         `json:"speed"`
	AutoAdvance bool          `json:"auto_advance"`
	Every       time.Duration `json:"every"`
}

// Runner owns the single repeating ticker that advances the game. Speed
// changes reset that ticker in place, so two tick sources never coexist.
type Runner struct {
	game    Game
	log     *slog.Logger
	cadence Cadence
	cron    *cron.Cron

	mu      sync.Mutex
	speed   Speed
	running bool
	ticker  *time.Ticker
}

func New(g Game, opts Options) (*Runner, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	speed := opts.Speed
	if speed == "" {
		speed = SpeedNormal
	}
	r := &Runner{
		game:    g,
		log:     logger,
		cadence: opts.Cadence,
		speed:   speed,
		running: opts.AutoAdvance,
		ticker:  time.NewTicker(opts.Cadence.For(speed)),
	}
	if !r.running {
		r.ticker.Stop()
	}
	if spec := strings.TrimSpace(opts.AutosaveCron); spec != "" {
		r.cron = cron.New(cron.WithSeconds())
		if _, err := r.cron.AddFunc(spec, r.autosave); err != nil {
			r.ticker.Stop()
			return nil, fmt.Errorf("register autosave %q: %w", spec, err)
		}
	}
	return r, nil
}

// Run ticks the game until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	if r.cron != nil {
		r.cron.Start()
		defer func() { <-r.cron.Stop().Done() }()
	}
	defer r.ticker.Stop()

	st := r.Status()
	r.log.Info("runner started", "speed", st.Speed, "every", st.Every.String(), "auto_advance", st.AutoAdvance)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopped")
			return
		case <-r.ticker.C:
			// a tick already queued when the player paused is dropped
			if !r.Running() {
				continue
			}
			r.game.Tick(ctx)
		}
	}
}

func (r *Runner) autosave() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.game.Save(ctx); err != nil {
		r.log.Error("scheduled autosave", "err", err)
		return
	}
	r.log.Info("scheduled autosave complete")
}

func (r *Runner) SetSpeed(s Speed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speed = s
	if r.running {
		r.ticker.Reset(r.cadence.For(s))
	}
}

func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.ticker.Stop()
}

func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.ticker.Reset(r.cadence.For(r.speed))
}

// Toggle flips auto-advance and reports the new value.
func (r *Runner) Toggle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = !r.running
	if r.running {
		r.ticker.Reset(r.cadence.For(r.speed))
	} else {
		r.ticker.Stop()
	}
	return r.running
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{Speed: r.speed, AutoAdvance: r.running, Every: r.cadence.For(r.speed)}
}
