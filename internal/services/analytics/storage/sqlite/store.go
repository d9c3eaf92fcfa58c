// Package sqlite provides SQLite-backed analytics persistence.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitemigrate"
	"github.com/inkhorn/inkhorn/internal/services/analytics/domain"
	"github.com/inkhorn/inkhorn/internal/services/analytics/storage"
	"github.com/inkhorn/inkhorn/internal/services/analytics/storage/sqlite/migrations"
)

// Store provides SQLite-backed event and transition persistence.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New wraps a shared database handle and applies analytics migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run analytics migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// RecordEvent persists one captured event.
func (s *Store) RecordEvent(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	properties := event.Properties
	if len(properties) == 0 {
		properties = json.RawMessage("{}")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO analytics_events (id, account_id, name, properties, created_at)
VALUES (?, ?, ?, ?, ?)
`,
		event.ID,
		event.AccountID,
		event.Name,
		string(properties),
		event.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// ListEvents returns an account's events newest first.
func (s *Store) ListEvents(ctx context.Context, accountID string, limit int) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := `
SELECT id, account_id, name, properties, created_at
FROM analytics_events
WHERE account_id = ?
ORDER BY created_at DESC, id DESC
`
	args := []any{accountID}
	if limit > 0 {
		query += "LIMIT ?\n"
		args = append(args, limit)
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			event      domain.Event
			properties string
			createdAt  int64
		)
		if err := rows.Scan(&event.ID, &event.AccountID, &event.Name, &properties, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Properties = json.RawMessage(properties)
		event.CreatedAt = time.UnixMilli(createdAt).UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// RecordTransition persists one account lifecycle change.
func (s *Store) RecordTransition(ctx context.Context, transition domain.Transition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO account_state_transitions (id, account_id, from_state, to_state, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		transition.ID,
		transition.AccountID,
		string(transition.From),
		string(transition.To),
		string(transition.Metadata),
		transition.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// ListTransitions returns an account's transitions newest first.
func (s *Store) ListTransitions(ctx context.Context, accountID string) ([]domain.Transition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, account_id, from_state, to_state, metadata, created_at
FROM account_state_transitions
WHERE account_id = ?
ORDER BY created_at DESC, id DESC
`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var transitions []domain.Transition
	for rows.Next() {
		var (
			transition domain.Transition
			from       string
			to         string
			metadata   string
			createdAt  int64
		)
		if err := rows.Scan(&transition.ID, &transition.AccountID, &from, &to, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		transition.From = domain.State(from)
		transition.To = domain.State(to)
		if metadata != "" {
			transition.Metadata = json.RawMessage(metadata)
		}
		transition.CreatedAt = time.UnixMilli(createdAt).UTC()
		transitions = append(transitions, transition)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return transitions, nil
}

// CurrentState resolves the account's latest recorded state.
func (s *Store) CurrentState(ctx context.Context, accountID string) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var to string
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT to_state
FROM account_state_transitions
WHERE account_id = ?
ORDER BY created_at DESC, id DESC
LIMIT 1
`, accountID).Scan(&to)
	if err == sql.ErrNoRows {
		return domain.StateStranger, nil
	}
	if err != nil {
		return "", fmt.Errorf("current state: %w", err)
	}
	return domain.State(to), nil
}
