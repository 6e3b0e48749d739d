package syncq

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

var (
	errOffline = errors.New("connection refused")
	errRefused = errors.New("insufficient funds")
)

func TestPushSkipsDuplicateKeys(t *testing.T) {
	q := At(filepath.Join(t.TempDir(), "queue.json"))
	for _, key := range []string{"a", "b", "a"} {
		if err := q.Push(Command{Method: "POST", Path: "/v1/bank/upgrade", IdempotencyKey: key}); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	got, err := q.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("queued %d, want 2", len(got))
	}
}

func TestReplayKeepsOrderOnNetworkFailure(t *testing.T) {
	q := At(filepath.Join(t.TempDir(), "queue.json"))
	for _, key := range []string{"1", "2", "3", "4"} {
		_ = q.Push(Command{Method: "POST", Path: "/v1/x", IdempotencyKey: key})
	}
	outcomes := map[string]error{"2": errRefused, "3": errOffline}
	send := func(_ context.Context, c Command) error { return outcomes[c.IdempotencyKey] }
	retryable := func(err error) bool { return errors.Is(err, errOffline) }

	res, err := q.Replay(context.Background(), send, retryable)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Replayed != 1 || len(res.Rejected) != 1 || res.Remaining != 2 {
		t.Fatalf("result=%+v", res)
	}
	left, _ := q.Load()
	if len(left) != 2 || left[0].IdempotencyKey != "3" || left[1].IdempotencyKey != "4" {
		t.Fatalf("remaining=%+v", left)
	}

	outcomes = nil
	res, _ = q.Replay(context.Background(), send, retryable)
	if res.Replayed != 2 || res.Remaining != 0 {
		t.Fatalf("second replay=%+v", res)
	}
	if left, _ := q.Load(); len(left) != 0 {
		t.Fatalf("queue not drained: %+v", left)
	}
}
