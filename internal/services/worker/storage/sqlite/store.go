// Package sqlite provides SQLite-backed task queue persistence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitemigrate"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
	"github.com/inkhorn/inkhorn/internal/services/worker/storage"
	"github.com/inkhorn/inkhorn/internal/services/worker/storage/sqlite/migrations"
)

// defaultMaxAttempts bounds task retries when the enqueue input does not.
const defaultMaxAttempts = 8

// Store provides SQLite-backed task and attempt persistence.
type Store struct {
	sqlDB *sql.DB
}

// New wraps a shared database handle and applies worker migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run worker migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Enqueue inserts a pending task, honoring dedupe keys for in-flight tasks.
func (s *Store) Enqueue(ctx context.Context, input queue.EnqueueInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	taskType := strings.TrimSpace(input.Type)
	if taskType == "" {
		return "", apperrors.New(apperrors.CodeTaskTypeUnknown, "task type is required")
	}
	payload, err := queue.MarshalPayload(input.Payload)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeTaskPayloadBad, "marshal task payload", err)
	}
	maxAttempts := input.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	taskID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate task id: %w", err)
	}

	now := time.Now().UTC()
	notBefore := input.NotBefore
	if notBefore.IsZero() {
		notBefore = now
	}
	var dedupeKey any
	if key := strings.TrimSpace(input.DedupeKey); key != "" {
		dedupeKey = key
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO tasks (id, type, payload, status, attempts, max_attempts, not_before, dedupe_key, created_at, updated_at)
VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?, ?)
`,
		taskID,
		taskType,
		string(payload),
		string(queue.StatusPending),
		maxAttempts,
		notBefore.UTC().UnixMilli(),
		dedupeKey,
		now.UnixMilli(),
		now.UnixMilli(),
	)
	if err != nil {
		if dedupeKey != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
			return s.findInflightByDedupeKey(ctx, dedupeKey.(string))
		}
		return "", fmt.Errorf("enqueue task: %w", err)
	}
	return taskID, nil
}

func (s *Store) findInflightByDedupeKey(ctx context.Context, key string) (string, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id FROM tasks
WHERE dedupe_key = ? AND status IN (?, ?)
LIMIT 1
`, key, string(queue.StatusPending), string(queue.StatusLeased))
	var existingID string
	if err := row.Scan(&existingID); err != nil {
		return "", fmt.Errorf("find task by dedupe key: %w", err)
	}
	return existingID, nil
}

// Claim leases the oldest runnable task for a consumer.
//
// A task is runnable when it is pending past its not-before time, or leased
// with an expired lease. The guarded UPDATE makes the claim exclusive under
// concurrent consumers.
func (s *Store) Claim(ctx context.Context, consumer string, leaseTTL time.Duration, now time.Time) (queue.Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return queue.Task{}, false, err
	}
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return queue.Task{}, false, fmt.Errorf("consumer is required")
	}
	if leaseTTL <= 0 {
		leaseTTL = 30 * time.Second
	}
	nowMs := now.UTC().UnixMilli()
	leaseExpiry := now.UTC().Add(leaseTTL).UnixMilli()

	row := s.sqlDB.QueryRowContext(ctx, `
UPDATE tasks
SET status = ?, attempts = attempts + 1, lease_consumer = ?, lease_expires_at = ?, updated_at = ?
WHERE id = (
	SELECT id FROM tasks
	WHERE (status = ? AND not_before <= ?)
	   OR (status = ? AND lease_expires_at <= ?)
	ORDER BY created_at ASC, id ASC
	LIMIT 1
)
RETURNING id, type, payload, status, attempts, max_attempts, not_before, COALESCE(dedupe_key, ''), lease_consumer, lease_expires_at, last_error, created_at, updated_at
`,
		string(queue.StatusLeased), consumer, leaseExpiry, nowMs,
		string(queue.StatusPending), nowMs,
		string(queue.StatusLeased), nowMs,
	)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return queue.Task{}, false, nil
	}
	if err != nil {
		return queue.Task{}, false, fmt.Errorf("claim task: %w", err)
	}
	return task, true, nil
}

// Succeed marks a leased task as completed.
func (s *Store) Succeed(ctx context.Context, taskID string, now time.Time) error {
	return s.finish(ctx, taskID, queue.StatusSucceeded, "", 0, now)
}

// Retry returns a leased task to pending with a backoff delay.
func (s *Store) Retry(ctx context.Context, taskID string, lastError string, notBefore time.Time, now time.Time) error {
	return s.finish(ctx, taskID, queue.StatusPending, lastError, notBefore.UTC().UnixMilli(), now)
}

// MarkDead dead-letters a leased task.
func (s *Store) MarkDead(ctx context.Context, taskID string, lastError string, now time.Time) error {
	return s.finish(ctx, taskID, queue.StatusDead, lastError, 0, now)
}

func (s *Store) finish(ctx context.Context, taskID string, status queue.Status, lastError string, notBefore int64, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	query := `
UPDATE tasks
SET status = ?, last_error = ?, lease_consumer = '', lease_expires_at = 0, updated_at = ?
WHERE id = ? AND status = ?`
	args := []any{string(status), strings.TrimSpace(lastError), now.UTC().UnixMilli(), taskID, string(queue.StatusLeased)}
	if status == queue.StatusPending {
		query = `
UPDATE tasks
SET status = ?, last_error = ?, not_before = ?, lease_consumer = '', lease_expires_at = 0, updated_at = ?
WHERE id = ? AND status = ?`
		args = []any{string(status), strings.TrimSpace(lastError), notBefore, now.UTC().UnixMilli(), taskID, string(queue.StatusLeased)}
	}

	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows: %w", err)
	}
	if affected == 0 {
		return apperrors.New(apperrors.CodeTaskNotFound, "task is not leased")
	}
	return nil
}

// GetTask loads one task by id.
func (s *Store) GetTask(ctx context.Context, taskID string) (queue.Task, error) {
	if err := ctx.Err(); err != nil {
		return queue.Task{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, type, payload, status, attempts, max_attempts, not_before, COALESCE(dedupe_key, ''), lease_consumer, lease_expires_at, last_error, created_at, updated_at
FROM tasks WHERE id = ?
`, taskID)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return queue.Task{}, apperrors.New(apperrors.CodeTaskNotFound, "task not found")
	}
	if err != nil {
		return queue.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// CountByTypeAndStatus counts tasks for observability and pipeline gates.
func (s *Store) CountByTypeAndStatus(ctx context.Context, taskType string, status queue.Status) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*) FROM tasks WHERE type = ? AND status = ?
`, taskType, string(status))
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// RecordAttempt persists one worker processing attempt.
func (s *Store) RecordAttempt(ctx context.Context, attempt storage.AttemptRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	attempt.TaskID = strings.TrimSpace(attempt.TaskID)
	attempt.TaskType = strings.TrimSpace(attempt.TaskType)
	attempt.Consumer = strings.TrimSpace(attempt.Consumer)
	attempt.Outcome = strings.TrimSpace(attempt.Outcome)
	if attempt.TaskID == "" {
		return fmt.Errorf("task id is required")
	}
	if attempt.TaskType == "" {
		return fmt.Errorf("task type is required")
	}
	if attempt.Consumer == "" {
		return fmt.Errorf("consumer is required")
	}
	if attempt.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO worker_attempts (task_id, task_type, consumer, outcome, attempt_count, last_error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		attempt.TaskID,
		attempt.TaskType,
		attempt.Consumer,
		attempt.Outcome,
		attempt.AttemptCount,
		strings.TrimSpace(attempt.LastError),
		attempt.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// ListAttempts lists newest-first attempt records.
func (s *Store) ListAttempts(ctx context.Context, limit int) ([]storage.AttemptRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, task_id, task_type, consumer, outcome, attempt_count, last_error, created_at
FROM worker_attempts
ORDER BY created_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	records := make([]storage.AttemptRecord, 0, limit)
	for rows.Next() {
		var record storage.AttemptRecord
		var createdAt int64
		if err := rows.Scan(
			&record.ID,
			&record.TaskID,
			&record.TaskType,
			&record.Consumer,
			&record.Outcome,
			&record.AttemptCount,
			&record.LastError,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		record.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (queue.Task, error) {
	var task queue.Task
	var payload, status string
	var notBefore, leaseExpiresAt, createdAt, updatedAt int64
	err := row.Scan(
		&task.ID,
		&task.Type,
		&payload,
		&status,
		&task.Attempts,
		&task.MaxAttempts,
		&notBefore,
		&task.DedupeKey,
		&task.LeaseConsumer,
		&leaseExpiresAt,
		&task.LastError,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return queue.Task{}, err
	}
	task.Payload = []byte(payload)
	task.Status = queue.Status(status)
	task.NotBefore = time.UnixMilli(notBefore).UTC()
	task.LeaseExpiresAt = time.UnixMilli(leaseExpiresAt).UTC()
	task.CreatedAt = time.UnixMilli(createdAt).UTC()
	task.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return task, nil
}

var _ storage.Store = (*Store)(nil)
