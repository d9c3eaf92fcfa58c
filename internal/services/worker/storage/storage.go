// Package storage defines persistence contracts for the task queue.
package storage

import (
	"context"
	"time"

	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
)

// AttemptRecord is one durable worker processing outcome record.
type AttemptRecord struct {
	ID           int64
	TaskID       string
	TaskType     string
	Consumer     string
	Outcome      string
	AttemptCount int
	LastError    string
	CreatedAt    time.Time
}

// TaskStore persists queue tasks.
type TaskStore interface {
	// Enqueue inserts a pending task. When the input carries a dedupe key that
	// matches a pending or leased task, the existing task id is returned.
	Enqueue(ctx context.Context, input queue.EnqueueInput) (string, error)
	// Claim leases the oldest runnable task for a consumer. The second return
	// is false when no task is runnable.
	Claim(ctx context.Context, consumer string, leaseTTL time.Duration, now time.Time) (queue.Task, bool, error)
	// Succeed marks a leased task as completed.
	Succeed(ctx context.Context, taskID string, now time.Time) error
	// Retry returns a leased task to pending with a backoff delay.
	Retry(ctx context.Context, taskID string, lastError string, notBefore time.Time, now time.Time) error
	// MarkDead dead-letters a leased task.
	MarkDead(ctx context.Context, taskID string, lastError string, now time.Time) error
	// GetTask loads one task by id.
	GetTask(ctx context.Context, taskID string) (queue.Task, error)
	// CountByTypeAndStatus counts tasks for observability and pipeline gates.
	CountByTypeAndStatus(ctx context.Context, taskType string, status queue.Status) (int, error)
}

// AttemptStore persists worker processing attempt records.
type AttemptStore interface {
	RecordAttempt(ctx context.Context, attempt AttemptRecord) error
	ListAttempts(ctx context.Context, limit int) ([]AttemptRecord, error)
}

// Store is the combined worker persistence contract.
type Store interface {
	TaskStore
	AttemptStore
}
