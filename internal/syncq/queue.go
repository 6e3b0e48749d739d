package syncq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Command is a write that could not reach the server. Replaying it with the
// same idempotency key is safe.
type Command struct {
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Body           map[string]any `json:"body,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
}

// Queue is an ordered list of pending commands kept in one JSON file.
type Queue struct {
	path string
}

// Open uses ~/.bank/queue.json.
func Open() (*Queue, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".bank")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return At(filepath.Join(dir, "queue.json")), nil
}

func At(path string) *Queue {
	return &Queue{path: path}
}

func (q *Queue) Load() ([]Command, error) {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	return out, nil
}

func (q *Queue) Save(commands []Command) error {
	if len(commands) == 0 {
		if err := os.Remove(q.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}

// Push appends cmd unless a command with the same idempotency key is
// already queued.
func (q *Queue) Push(cmd Command) error {
	commands, err := q.Load()
	if err != nil {
		return err
	}
	for _, c := range commands {
		if cmd.IdempotencyKey != "" && c.IdempotencyKey == cmd.IdempotencyKey {
			return nil
		}
	}
	return q.Save(append(commands, cmd))
}

type Rejection struct {
	Command Command
	Err     error
}

type Result struct {
	Replayed  int
	Rejected  []Rejection
	Remaining int
}

// Replay sends queued commands in order. A command the server refuses is
// dropped and reported; the first retryable failure stops the replay and
// keeps that command and everything after it queued, so order is preserved.
func (q *Queue) Replay(ctx context.Context, send func(context.Context, Command) error, retryable func(error) bool) (Result, error) {
	commands, err := q.Load()
	if err != nil {
		return Result{}, err
	}
	var res Result
	i := 0
	for ; i < len(commands); i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		err := send(ctx, commands[i])
		if err == nil {
			res.Replayed++
			continue
		}
		if retryable(err) {
			break
		}
		res.Rejected = append(res.Rejected, Rejection{Command: commands[i], Err: err})
	}
	remaining := commands[i:]
	res.Remaining = len(remaining)
	if err := q.Save(remaining); err != nil {
		return res, err
	}
	return res, nil
}
