// Package app runs the background task processing loop.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
	"github.com/inkhorn/inkhorn/internal/services/worker/storage"
)

const (
	defaultConsumer      = "inkhorn-worker"
	defaultPollInterval  = 2 * time.Second
	defaultLeaseTTL      = 2 * time.Minute
	defaultRetryBackoff  = 5 * time.Second
	defaultRetryMaxDelay = 10 * time.Minute
)

// Config controls loop cadence and retry behavior.
type Config struct {
	Consumer      string
	PollInterval  time.Duration
	LeaseTTL      time.Duration
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
}

func (c Config) normalized() Config {
	normalized := c
	normalized.Consumer = strings.TrimSpace(normalized.Consumer)
	if normalized.Consumer == "" {
		normalized.Consumer = defaultConsumer
	}
	if normalized.PollInterval <= 0 {
		normalized.PollInterval = defaultPollInterval
	}
	if normalized.LeaseTTL <= 0 {
		normalized.LeaseTTL = defaultLeaseTTL
	}
	if normalized.RetryBackoff <= 0 {
		normalized.RetryBackoff = defaultRetryBackoff
	}
	if normalized.RetryMaxDelay <= 0 {
		normalized.RetryMaxDelay = defaultRetryMaxDelay
	}
	return normalized
}

// Loop claims tasks from the queue and dispatches them to registered handlers.
type Loop struct {
	store    storage.Store
	handlers map[string]queue.Handler
	cfg      Config
	now      func() time.Time
	logf     func(format string, args ...any)
}

// New builds a task processing loop over the given store and handler map.
func New(store storage.Store, handlers map[string]queue.Handler, cfg Config, logf func(format string, args ...any)) *Loop {
	if logf == nil {
		logf = log.Printf
	}
	return &Loop{
		store:    store,
		handlers: handlers,
		cfg:      cfg.normalized(),
		now:      func() time.Time { return time.Now().UTC() },
		logf:     logf,
	}
}

// Run processes tasks until the context is canceled.
func (l *Loop) Run(ctx context.Context) error {
	if l.store == nil {
		return fmt.Errorf("task store is required")
	}
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// Drain runnable tasks before sleeping so bursts clear quickly.
		for {
			processed, err := l.ProcessOne(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logf("worker: process task: %v", err)
				break
			}
			if !processed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessOne claims and handles a single task. It reports whether a task was
// claimed.
func (l *Loop) ProcessOne(ctx context.Context) (bool, error) {
	now := l.now()
	task, ok, err := l.store.Claim(ctx, l.cfg.Consumer, l.cfg.LeaseTTL, now)
	if err != nil {
		return false, fmt.Errorf("claim task: %w", err)
	}
	if !ok {
		return false, nil
	}

	handler, found := l.handlers[task.Type]
	if !found {
		return true, l.settle(ctx, task, outcomeDead, fmt.Sprintf("no handler registered for task type %q", task.Type))
	}

	handleErr := handler.Handle(ctx, task)
	if handleErr == nil {
		return true, l.settle(ctx, task, outcomeSucceeded, "")
	}
	if queue.IsTerminal(handleErr) || task.Attempts >= task.MaxAttempts {
		return true, l.settle(ctx, task, outcomeDead, handleErr.Error())
	}
	return true, l.settle(ctx, task, outcomeRetry, handleErr.Error())
}

const (
	outcomeSucceeded = "succeeded"
	outcomeRetry     = "retry"
	outcomeDead      = "dead"
)

func (l *Loop) settle(ctx context.Context, task queue.Task, outcome string, lastError string) error {
	now := l.now()
	var err error
	switch outcome {
	case outcomeSucceeded:
		err = l.store.Succeed(ctx, task.ID, now)
	case outcomeRetry:
		delay := queue.Backoff(l.cfg.RetryBackoff, task.Attempts, l.cfg.RetryMaxDelay)
		err = l.store.Retry(ctx, task.ID, lastError, now.Add(delay), now)
	case outcomeDead:
		l.logf("worker: task %s (%s) dead after %d attempts: %s", task.ID, task.Type, task.Attempts, lastError)
		err = l.store.MarkDead(ctx, task.ID, lastError, now)
	default:
		return fmt.Errorf("unknown task outcome %q", outcome)
	}
	if err != nil {
		return fmt.Errorf("settle task %s as %s: %w", task.ID, outcome, err)
	}

	recordErr := l.store.RecordAttempt(ctx, storage.AttemptRecord{
		TaskID:       task.ID,
		TaskType:     task.Type,
		Consumer:     l.cfg.Consumer,
		Outcome:      outcome,
		AttemptCount: task.Attempts,
		LastError:    lastError,
		CreatedAt:    now,
	})
	if recordErr != nil {
		l.logf("worker: record attempt for task %s: %v", task.ID, recordErr)
	}
	return nil
}
