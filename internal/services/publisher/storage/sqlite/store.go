// Package sqlite provides SQLite-backed publisher persistence.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitemigrate"
	"github.com/inkhorn/inkhorn/internal/services/publisher/domain"
	"github.com/inkhorn/inkhorn/internal/services/publisher/storage"
	"github.com/inkhorn/inkhorn/internal/services/publisher/storage/sqlite/migrations"
)

// Store provides SQLite-backed setting and submission persistence.
type Store struct {
	sqlDB *sql.DB
}

// New wraps a shared database handle and applies publisher migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run publisher migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// UpsertSetting replaces a project's submission configuration.
func (s *Store) UpsertSetting(ctx context.Context, setting domain.Setting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO auto_submission_settings (project_id, endpoint, header_template, body_template, posts_per_month, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_id) DO UPDATE SET
    endpoint = excluded.endpoint,
    header_template = excluded.header_template,
    body_template = excluded.body_template,
    posts_per_month = excluded.posts_per_month,
    updated_at = excluded.updated_at
`,
		setting.ProjectID,
		setting.Endpoint,
		setting.HeaderTemplate,
		setting.BodyTemplate,
		setting.PostsPerMonth,
		setting.CreatedAt.UTC().UnixMilli(),
		setting.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert submission setting: %w", err)
	}
	return nil
}

// GetSetting loads a project's submission configuration.
func (s *Store) GetSetting(ctx context.Context, projectID string) (domain.Setting, error) {
	if err := ctx.Err(); err != nil {
		return domain.Setting{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT project_id, endpoint, header_template, body_template, posts_per_month, created_at, updated_at
FROM auto_submission_settings WHERE project_id = ?
`, projectID)
	var setting domain.Setting
	var createdAt, updatedAt int64
	err := row.Scan(
		&setting.ProjectID,
		&setting.Endpoint,
		&setting.HeaderTemplate,
		&setting.BodyTemplate,
		&setting.PostsPerMonth,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Setting{}, apperrors.New(apperrors.CodePublishEndpointMissing, "project has no submission endpoint configured")
	}
	if err != nil {
		return domain.Setting{}, fmt.Errorf("get submission setting: %w", err)
	}
	setting.CreatedAt = time.UnixMilli(createdAt).UTC()
	setting.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return setting, nil
}

// DeleteSetting removes a project's submission configuration.
func (s *Store) DeleteSetting(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM auto_submission_settings WHERE project_id = ?
`, projectID)
	if err != nil {
		return fmt.Errorf("delete submission setting: %w", err)
	}
	return nil
}

// RecordSubmission persists one delivery attempt.
func (s *Store) RecordSubmission(ctx context.Context, submission domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO post_submissions (id, project_id, post_id, endpoint, status_code, success, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		submission.ID,
		submission.ProjectID,
		submission.PostID,
		submission.Endpoint,
		submission.StatusCode,
		boolInt(submission.Success),
		submission.Error,
		submission.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// ListSubmissions lists a project's delivery attempts newest first.
func (s *Store) ListSubmissions(ctx context.Context, projectID string) ([]domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, project_id, post_id, endpoint, status_code, success, error, created_at
FROM post_submissions WHERE project_id = ? ORDER BY created_at DESC, id DESC
`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var submissions []domain.Submission
	for rows.Next() {
		var submission domain.Submission
		var success int
		var createdAt int64
		if err := rows.Scan(
			&submission.ID,
			&submission.ProjectID,
			&submission.PostID,
			&submission.Endpoint,
			&submission.StatusCode,
			&success,
			&submission.Error,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		submission.Success = success != 0
		submission.CreatedAt = time.UnixMilli(createdAt).UTC()
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return submissions, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ storage.Store = (*Store)(nil)
