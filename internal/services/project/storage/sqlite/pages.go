package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/project/domain"
)

const pageColumns = `id, project_id, url, source, type, type_guess, summary,
scraped_title, scraped_description, scraped_markdown, scraped_at,
created_at, updated_at`

// UpsertPage inserts a page or returns the existing one for the same project
// and URL.
func (s *Store) UpsertPage(ctx context.Context, page domain.Page) (domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return domain.Page{}, err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO project_pages (`+pageColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		page.ID,
		page.ProjectID,
		page.URL,
		string(page.Source),
		string(page.Type),
		page.TypeGuess,
		page.Summary,
		page.Scraped.Title,
		page.Scraped.Description,
		page.Scraped.Markdown,
		unixMilliOrZero(page.Scraped.ScrapedAt),
		page.CreatedAt.UTC().UnixMilli(),
		page.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return s.getPageByURL(ctx, page.ProjectID, page.URL)
		}
		return domain.Page{}, fmt.Errorf("upsert page: %w", err)
	}
	return page, nil
}

// GetPage loads one page by id.
func (s *Store) GetPage(ctx context.Context, pageID string) (domain.Page, error) {
	return s.getPage(ctx, "id = ?", pageID)
}

func (s *Store) getPageByURL(ctx context.Context, projectID, pageURL string) (domain.Page, error) {
	return s.getPage(ctx, "project_id = ? AND url = ?", projectID, pageURL)
}

func (s *Store) getPage(ctx context.Context, where string, args ...any) (domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return domain.Page{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM project_pages WHERE `+where, args...)
	page, err := scanPage(row)
	if err == sql.ErrNoRows {
		return domain.Page{}, apperrors.New(apperrors.CodeProjectPageNotFound, "project page not found")
	}
	if err != nil {
		return domain.Page{}, fmt.Errorf("get page: %w", err)
	}
	return page, nil
}

// ListPages lists a project's pages oldest first.
func (s *Store) ListPages(ctx context.Context, projectID string) ([]domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+pageColumns+` FROM project_pages WHERE project_id = ? ORDER BY created_at ASC, id ASC
`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

// UpdatePage persists scraped content and analysis of a page.
func (s *Store) UpdatePage(ctx context.Context, page domain.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE project_pages SET
type = ?, type_guess = ?, summary = ?,
scraped_title = ?, scraped_description = ?, scraped_markdown = ?, scraped_at = ?,
updated_at = ?
WHERE id = ?
`,
		string(page.Type),
		page.TypeGuess,
		page.Summary,
		page.Scraped.Title,
		page.Scraped.Description,
		page.Scraped.Markdown,
		unixMilliOrZero(page.Scraped.ScrapedAt),
		page.UpdatedAt.UTC().UnixMilli(),
		page.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return requireAffected(result, apperrors.CodeProjectPageNotFound, "project page not found")
}

func scanPage(row rowScanner) (domain.Page, error) {
	var page domain.Page
	var source, pageType string
	var scrapedAt, createdAt, updatedAt int64
	err := row.Scan(
		&page.ID,
		&page.ProjectID,
		&page.URL,
		&source,
		&pageType,
		&page.TypeGuess,
		&page.Summary,
		&page.Scraped.Title,
		&page.Scraped.Description,
		&page.Scraped.Markdown,
		&scrapedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Page{}, err
	}
	page.Source = domain.PageSource(source)
	page.Type = domain.PageType(pageType)
	page.Scraped.ScrapedAt = timeOrZero(scrapedAt)
	page.CreatedAt = time.UnixMilli(createdAt).UTC()
	page.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return page, nil
}
