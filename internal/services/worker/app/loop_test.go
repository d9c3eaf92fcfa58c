package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitedb"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
	workersqlite "github.com/inkhorn/inkhorn/internal/services/worker/storage/sqlite"
)

func openTestStore(t *testing.T) *workersqlite.Store {
	t.Helper()
	sqlDB, err := sqlitedb.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	store, err := workersqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return store
}

func newTestLoop(store *workersqlite.Store, handlers map[string]queue.Handler) *Loop {
	return New(store, handlers, Config{
		Consumer:     "test-worker",
		RetryBackoff: time.Second,
	}, func(string, ...any) {})
}

func TestProcessOneSucceeds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var handled queue.Task
	loop := newTestLoop(store, map[string]queue.Handler{
		"content.outline": queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
			handled = task
			return nil
		}),
	})

	taskID, err := store.Enqueue(ctx, queue.EnqueueInput{
		Type:    "content.outline",
		Payload: map[string]string{"post_id": "p1"},
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	processed, err := loop.ProcessOne(ctx)
	if err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}
	if !processed {
		t.Fatal("ProcessOne() processed = false, want true")
	}
	if handled.ID != taskID {
		t.Fatalf("handled.ID = %q, want %q", handled.ID, taskID)
	}

	task, err := store.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status != queue.StatusSucceeded {
		t.Fatalf("task.Status = %q, want %q", task.Status, queue.StatusSucceeded)
	}

	attempts, err := store.ListAttempts(ctx, 10)
	if err != nil {
		t.Fatalf("ListAttempts() error = %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("len(attempts) = %d, want 1", len(attempts))
	}
	if attempts[0].Outcome != "succeeded" {
		t.Fatalf("attempts[0].Outcome = %q, want %q", attempts[0].Outcome, "succeeded")
	}
	if attempts[0].Consumer != "test-worker" {
		t.Fatalf("attempts[0].Consumer = %q, want %q", attempts[0].Consumer, "test-worker")
	}
}

func TestProcessOneNoRunnableTask(t *testing.T) {
	store := openTestStore(t)
	loop := newTestLoop(store, nil)

	processed, err := loop.ProcessOne(context.Background())
	if err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}
	if processed {
		t.Fatal("ProcessOne() processed = true, want false on empty queue")
	}
}

func TestProcessOneRetriesFailedTask(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	loop := newTestLoop(store, map[string]queue.Handler{
		"content.outline": queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
			return errors.New("provider timeout")
		}),
	})
	loop.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	taskID, err := store.Enqueue(ctx, queue.EnqueueInput{Type: "content.outline"})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := loop.ProcessOne(ctx); err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}

	task, err := store.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status != queue.StatusPending {
		t.Fatalf("task.Status = %q, want %q", task.Status, queue.StatusPending)
	}
	if task.LastError != "provider timeout" {
		t.Fatalf("task.LastError = %q, want %q", task.LastError, "provider timeout")
	}
	wantNotBefore := time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)
	if !task.NotBefore.Equal(wantNotBefore) {
		t.Fatalf("task.NotBefore = %v, want %v", task.NotBefore, wantNotBefore)
	}
}

func TestProcessOneDeadLettersTerminalError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	loop := newTestLoop(store, map[string]queue.Handler{
		"content.outline": queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
			return queue.Terminal(errors.New("post was deleted"))
		}),
	})

	taskID, err := store.Enqueue(ctx, queue.EnqueueInput{Type: "content.outline"})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := loop.ProcessOne(ctx); err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}

	task, err := store.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status != queue.StatusDead {
		t.Fatalf("task.Status = %q, want %q", task.Status, queue.StatusDead)
	}
	if task.Attempts != 1 {
		t.Fatalf("task.Attempts = %d, want 1 for terminal errors", task.Attempts)
	}
}

func TestProcessOneDeadLettersAfterMaxAttempts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	loop := newTestLoop(store, map[string]queue.Handler{
		"content.outline": queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
			return errors.New("still failing")
		}),
	})

	taskID, err := store.Enqueue(ctx, queue.EnqueueInput{
		Type:        "content.outline",
		MaxAttempts: 2,
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	// First failure reschedules with a backoff, second exhausts attempts.
	if _, err := loop.ProcessOne(ctx); err != nil {
		t.Fatalf("first ProcessOne() error = %v", err)
	}
	loop.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	if _, err := loop.ProcessOne(ctx); err != nil {
		t.Fatalf("second ProcessOne() error = %v", err)
	}

	task, err := store.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status != queue.StatusDead {
		t.Fatalf("task.Status = %q, want %q", task.Status, queue.StatusDead)
	}
	if task.Attempts != 2 {
		t.Fatalf("task.Attempts = %d, want 2", task.Attempts)
	}

	attempts, err := store.ListAttempts(ctx, 10)
	if err != nil {
		t.Fatalf("ListAttempts() error = %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("len(attempts) = %d, want 2", len(attempts))
	}
	if attempts[0].Outcome != "dead" {
		t.Fatalf("attempts[0].Outcome = %q, want %q", attempts[0].Outcome, "dead")
	}
}

func TestProcessOneDeadLettersUnknownTaskType(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	loop := newTestLoop(store, map[string]queue.Handler{})

	taskID, err := store.Enqueue(ctx, queue.EnqueueInput{Type: "mystery.task"})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := loop.ProcessOne(ctx); err != nil {
		t.Fatalf("ProcessOne() error = %v", err)
	}

	task, err := store.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status != queue.StatusDead {
		t.Fatalf("task.Status = %q, want %q", task.Status, queue.StatusDead)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := openTestStore(t)
	loop := newTestLoop(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := loop.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
