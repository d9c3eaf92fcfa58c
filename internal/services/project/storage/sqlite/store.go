// Package sqlite provides SQLite-backed project persistence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitemigrate"
	"github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/project/storage"
	"github.com/inkhorn/inkhorn/internal/services/project/storage/sqlite/migrations"
)

// Store provides SQLite-backed project, page, competitor, and keyword
// persistence.
type Store struct {
	sqlDB *sql.DB
}

// New wraps a shared database handle and applies project migrations.
func New(sqlDB *sql.DB) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run project migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

const projectColumns = `id, account_id, url, name, type, summary, sitemap_url,
auto_generation, auto_submission,
scraped_title, scraped_description, scraped_markdown, scraped_at,
blog_theme, founders, key_features, language, target_audience, pain_points,
product_usage, links, style, proposed_keywords, location, analyzed_at,
created_at, updated_at`

// CreateProject persists a new project.
func (s *Store) CreateProject(ctx context.Context, project domain.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO projects (`+projectColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, projectArgs(project)...)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return apperrors.Wrap(apperrors.CodeProjectURLTaken, "a project already tracks this url", err)
		}
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetProject loads a project owned by the account.
func (s *Store) GetProject(ctx context.Context, accountID, projectID string) (domain.Project, error) {
	return s.getProject(ctx, "id = ? AND account_id = ?", projectID, accountID)
}

// GetProjectByID loads a project without account scoping.
func (s *Store) GetProjectByID(ctx context.Context, projectID string) (domain.Project, error) {
	return s.getProject(ctx, "id = ?", projectID)
}

func (s *Store) getProject(ctx context.Context, where string, args ...any) (domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return domain.Project{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE `+where, args...)
	project, err := scanProject(row)
	if err == sql.ErrNoRows {
		return domain.Project{}, apperrors.New(apperrors.CodeProjectNotFound, "project not found")
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// ListProjects lists an account's projects oldest first.
func (s *Store) ListProjects(ctx context.Context, accountID string) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+projectColumns+` FROM projects WHERE account_id = ? ORDER BY created_at ASC, id ASC
`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// ListAutoSubmitProjects lists every project with auto-submission enabled,
// across all accounts, for the publish scheduler.
func (s *Store) ListAutoSubmitProjects(ctx context.Context) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+projectColumns+` FROM projects WHERE auto_submission = 1 ORDER BY created_at ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list auto-submit projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// CountProjects counts an account's projects for plan limit checks.
func (s *Store) CountProjects(ctx context.Context, accountID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE account_id = ?`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}

// UpdateProject persists all mutable project fields.
func (s *Store) UpdateProject(ctx context.Context, project domain.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE projects SET
url = ?, name = ?, type = ?, summary = ?, sitemap_url = ?,
auto_generation = ?, auto_submission = ?,
scraped_title = ?, scraped_description = ?, scraped_markdown = ?, scraped_at = ?,
blog_theme = ?, founders = ?, key_features = ?, language = ?, target_audience = ?,
pain_points = ?, product_usage = ?, links = ?, style = ?, proposed_keywords = ?,
location = ?, analyzed_at = ?, updated_at = ?
WHERE id = ? AND account_id = ?
`,
		project.URL,
		project.Name,
		string(project.Type),
		project.Summary,
		project.SitemapURL,
		boolInt(project.AutoGeneration),
		boolInt(project.AutoSubmission),
		project.Scraped.Title,
		project.Scraped.Description,
		project.Scraped.Markdown,
		unixMilliOrZero(project.Scraped.ScrapedAt),
		project.Analysis.BlogTheme,
		project.Analysis.Founders,
		project.Analysis.KeyFeatures,
		project.Analysis.Language,
		project.Analysis.TargetAudience,
		project.Analysis.PainPoints,
		project.Analysis.ProductUsage,
		project.Analysis.Links,
		project.Analysis.Style,
		project.Analysis.ProposedKeywords,
		project.Analysis.Location,
		unixMilliOrZero(project.Analysis.AnalyzedAt),
		project.UpdatedAt.UTC().UnixMilli(),
		project.ID,
		project.AccountID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireAffected(result, apperrors.CodeProjectNotFound, "project not found")
}

// DeleteProject removes a project and its dependent rows.
func (s *Store) DeleteProject(ctx context.Context, accountID, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM projects WHERE id = ? AND account_id = ?
`, projectID, accountID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireAffected(result, apperrors.CodeProjectNotFound, "project not found")
}

var _ storage.Store = (*Store)(nil)
