// Package queue defines the durable task contract shared by the server and worker.
//
// The server process enqueues tasks; the worker process claims and executes
// them. Both sides talk to the same SQLite table, so the contract lives apart
// from either runtime.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Status is the lifecycle state of one task.
type Status string

const (
	// StatusPending means the task awaits a consumer.
	StatusPending Status = "pending"
	// StatusLeased means a consumer holds the task under a lease.
	StatusLeased Status = "leased"
	// StatusSucceeded means the task completed.
	StatusSucceeded Status = "succeeded"
	// StatusDead means the task exhausted its attempts.
	StatusDead Status = "dead"
)

// Task is one durable unit of background work.
type Task struct {
	ID          string
	Type        string
	Payload     json.RawMessage
	Status      Status
	Attempts    int
	MaxAttempts int
	// NotBefore delays execution, for retry backoff and scheduled work.
	NotBefore time.Time
	// DedupeKey suppresses duplicate enqueues of the same logical task.
	DedupeKey      string
	LeaseConsumer  string
	LeaseExpiresAt time.Time
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EnqueueInput captures a new task submission.
type EnqueueInput struct {
	Type        string
	Payload     any
	MaxAttempts int
	NotBefore   time.Time
	DedupeKey   string
}

// Enqueuer submits background tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, input EnqueueInput) (string, error)
}

// Handler executes one claimed task.
type Handler interface {
	Handle(ctx context.Context, task Task) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, task Task) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, task Task) error {
	return f(ctx, task)
}

// TerminalError marks a handler failure that must not be retried.
type TerminalError struct {
	Cause error
}

func (e *TerminalError) Error() string {
	return "terminal task error: " + e.Cause.Error()
}

func (e *TerminalError) Unwrap() error {
	return e.Cause
}

// Terminal wraps an error so the loop dead-letters the task immediately.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &TerminalError{Cause: err}
}

// IsTerminal reports whether err should skip retries.
func IsTerminal(err error) bool {
	var terminal *TerminalError
	return errors.As(err, &terminal)
}

// Backoff computes the retry delay after a given attempt count.
// The delay doubles per attempt and is capped at maxDelay.
func Backoff(base time.Duration, attempt int, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if maxDelay > 0 && delay >= maxDelay {
			return maxDelay
		}
	}
	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}
	return delay
}

// MarshalPayload encodes a payload value for storage.
func MarshalPayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return json.RawMessage("{}"), nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}
