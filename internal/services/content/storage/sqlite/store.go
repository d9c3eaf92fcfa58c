// Package sqlite provides SQLite-backed content persistence.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitemigrate"
	"github.com/inkhorn/inkhorn/internal/services/content/domain"
	"github.com/inkhorn/inkhorn/internal/services/content/storage"
	"github.com/inkhorn/inkhorn/internal/services/content/storage/sqlite/migrations"
)

// Store provides SQLite-backed suggestion, post, and research persistence.
type Store struct {
	sqlDB *sql.DB
}

// New wraps a shared database handle and applies content migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run content migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// CreateSuggestion persists a new title suggestion.
func (s *Store) CreateSuggestion(ctx context.Context, suggestion domain.TitleSuggestion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	keywords, err := json.Marshal(orEmpty(suggestion.TargetKeywords))
	if err != nil {
		return fmt.Errorf("encode target keywords: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO title_suggestions (id, project_id, title, content_type, meta_description, target_keywords, prompt, user_score, archived, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		suggestion.ID,
		suggestion.ProjectID,
		suggestion.Title,
		string(suggestion.ContentType),
		suggestion.MetaDescription,
		string(keywords),
		suggestion.Prompt,
		suggestion.UserScore,
		boolInt(suggestion.Archived),
		suggestion.CreatedAt.UTC().UnixMilli(),
		suggestion.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create suggestion: %w", err)
	}
	return nil
}

// GetSuggestion loads one suggestion by id.
func (s *Store) GetSuggestion(ctx context.Context, suggestionID string) (domain.TitleSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return domain.TitleSuggestion{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, project_id, title, content_type, meta_description, target_keywords, prompt, user_score, archived, created_at, updated_at
FROM title_suggestions WHERE id = ?
`, suggestionID)
	suggestion, err := scanSuggestion(row)
	if err == sql.ErrNoRows {
		return domain.TitleSuggestion{}, apperrors.New(apperrors.CodeSuggestionNotFound, "suggestion not found")
	}
	if err != nil {
		return domain.TitleSuggestion{}, fmt.Errorf("get suggestion: %w", err)
	}
	return suggestion, nil
}

// ListSuggestions lists a project's suggestions newest first.
func (s *Store) ListSuggestions(ctx context.Context, projectID string, includeArchived bool) ([]domain.TitleSuggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := `
SELECT id, project_id, title, content_type, meta_description, target_keywords, prompt, user_score, archived, created_at, updated_at
FROM title_suggestions WHERE project_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.sqlDB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []domain.TitleSuggestion
	for rows.Next() {
		suggestion, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		suggestions = append(suggestions, suggestion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}
	return suggestions, nil
}

// UpdateSuggestion persists suggestion score and archive state.
func (s *Store) UpdateSuggestion(ctx context.Context, suggestion domain.TitleSuggestion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE title_suggestions SET user_score = ?, archived = ?, updated_at = ?
WHERE id = ?
`,
		suggestion.UserScore,
		boolInt(suggestion.Archived),
		suggestion.UpdatedAt.UTC().UnixMilli(),
		suggestion.ID,
	)
	if err != nil {
		return fmt.Errorf("update suggestion: %w", err)
	}
	return requireAffected(result, apperrors.CodeSuggestionNotFound, "suggestion not found")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuggestion(row rowScanner) (domain.TitleSuggestion, error) {
	var suggestion domain.TitleSuggestion
	var contentType, keywords string
	var archived int
	var createdAt, updatedAt int64
	err := row.Scan(
		&suggestion.ID,
		&suggestion.ProjectID,
		&suggestion.Title,
		&contentType,
		&suggestion.MetaDescription,
		&keywords,
		&suggestion.Prompt,
		&suggestion.UserScore,
		&archived,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.TitleSuggestion{}, err
	}
	suggestion.ContentType = domain.ContentType(contentType)
	if err := json.Unmarshal([]byte(keywords), &suggestion.TargetKeywords); err != nil {
		return domain.TitleSuggestion{}, fmt.Errorf("decode target keywords: %w", err)
	}
	suggestion.Archived = archived != 0
	suggestion.CreatedAt = time.UnixMilli(createdAt).UTC()
	suggestion.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return suggestion, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func timeOrZero(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func requireAffected(result sql.Result, code apperrors.Code, message string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.New(code, message)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
