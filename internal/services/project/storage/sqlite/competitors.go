package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/project/domain"
)

const competitorColumns = `id, project_id, name, url, description,
scraped_title, scraped_description, scraped_markdown, scraped_at,
analysis_summary, key_differences, strengths, weaknesses, opportunities,
threats, key_features, key_benefits, key_drawbacks, analyzed_at,
created_at, updated_at`

// CreateCompetitor persists a new competitor.
func (s *Store) CreateCompetitor(ctx context.Context, competitor domain.Competitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO competitors (`+competitorColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, competitorArgs(competitor)...)
	if err != nil {
		return fmt.Errorf("create competitor: %w", err)
	}
	return nil
}

// GetCompetitor loads one competitor by id.
func (s *Store) GetCompetitor(ctx context.Context, competitorID string) (domain.Competitor, error) {
	if err := ctx.Err(); err != nil {
		return domain.Competitor{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+competitorColumns+` FROM competitors WHERE id = ?`, competitorID)
	competitor, err := scanCompetitor(row)
	if err == sql.ErrNoRows {
		return domain.Competitor{}, apperrors.New(apperrors.CodeCompetitorNotFound, "competitor not found")
	}
	if err != nil {
		return domain.Competitor{}, fmt.Errorf("get competitor: %w", err)
	}
	return competitor, nil
}

// ListCompetitors lists a project's competitors oldest first.
func (s *Store) ListCompetitors(ctx context.Context, projectID string) ([]domain.Competitor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+competitorColumns+` FROM competitors WHERE project_id = ? ORDER BY created_at ASC, id ASC
`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	defer rows.Close()

	var competitors []domain.Competitor
	for rows.Next() {
		competitor, err := scanCompetitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}
		competitors = append(competitors, competitor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate competitors: %w", err)
	}
	return competitors, nil
}

// UpdateCompetitor persists scraped content and analysis of a competitor.
func (s *Store) UpdateCompetitor(ctx context.Context, competitor domain.Competitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE competitors SET
name = ?, description = ?,
scraped_title = ?, scraped_description = ?, scraped_markdown = ?, scraped_at = ?,
analysis_summary = ?, key_differences = ?, strengths = ?, weaknesses = ?,
opportunities = ?, threats = ?, key_features = ?, key_benefits = ?,
key_drawbacks = ?, analyzed_at = ?, updated_at = ?
WHERE id = ?
`,
		competitor.Name,
		competitor.Description,
		competitor.Scraped.Title,
		competitor.Scraped.Description,
		competitor.Scraped.Markdown,
		unixMilliOrZero(competitor.Scraped.ScrapedAt),
		competitor.Analysis.Summary,
		competitor.Analysis.KeyDifferences,
		competitor.Analysis.Strengths,
		competitor.Analysis.Weaknesses,
		competitor.Analysis.Opportunities,
		competitor.Analysis.Threats,
		competitor.Analysis.KeyFeatures,
		competitor.Analysis.KeyBenefits,
		competitor.Analysis.KeyDrawbacks,
		unixMilliOrZero(competitor.Analysis.AnalyzedAt),
		competitor.UpdatedAt.UTC().UnixMilli(),
		competitor.ID,
	)
	if err != nil {
		return fmt.Errorf("update competitor: %w", err)
	}
	return requireAffected(result, apperrors.CodeCompetitorNotFound, "competitor not found")
}

// DeleteCompetitor removes one competitor of a project.
func (s *Store) DeleteCompetitor(ctx context.Context, projectID, competitorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM competitors WHERE id = ? AND project_id = ?
`, competitorID, projectID)
	if err != nil {
		return fmt.Errorf("delete competitor: %w", err)
	}
	return requireAffected(result, apperrors.CodeCompetitorNotFound, "competitor not found")
}

func competitorArgs(competitor domain.Competitor) []any {
	return []any{
		competitor.ID,
		competitor.ProjectID,
		competitor.Name,
		competitor.URL,
		competitor.Description,
		competitor.Scraped.Title,
		competitor.Scraped.Description,
		competitor.Scraped.Markdown,
		unixMilliOrZero(competitor.Scraped.ScrapedAt),
		competitor.Analysis.Summary,
		competitor.Analysis.KeyDifferences,
		competitor.Analysis.Strengths,
		competitor.Analysis.Weaknesses,
		competitor.Analysis.Opportunities,
		competitor.Analysis.Threats,
		competitor.Analysis.KeyFeatures,
		competitor.Analysis.KeyBenefits,
		competitor.Analysis.KeyDrawbacks,
		unixMilliOrZero(competitor.Analysis.AnalyzedAt),
		competitor.CreatedAt.UTC().UnixMilli(),
		competitor.UpdatedAt.UTC().UnixMilli(),
	}
}

func scanCompetitor(row rowScanner) (domain.Competitor, error) {
	var competitor domain.Competitor
	var scrapedAt, analyzedAt, createdAt, updatedAt int64
	err := row.Scan(
		&competitor.ID,
		&competitor.ProjectID,
		&competitor.Name,
		&competitor.URL,
		&competitor.Description,
		&competitor.Scraped.Title,
		&competitor.Scraped.Description,
		&competitor.Scraped.Markdown,
		&scrapedAt,
		&competitor.Analysis.Summary,
		&competitor.Analysis.KeyDifferences,
		&competitor.Analysis.Strengths,
		&competitor.Analysis.Weaknesses,
		&competitor.Analysis.Opportunities,
		&competitor.Analysis.Threats,
		&competitor.Analysis.KeyFeatures,
		&competitor.Analysis.KeyBenefits,
		&competitor.Analysis.KeyDrawbacks,
		&analyzedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Competitor{}, err
	}
	competitor.Scraped.ScrapedAt = timeOrZero(scrapedAt)
	competitor.Analysis.AnalyzedAt = timeOrZero(analyzedAt)
	competitor.CreatedAt = time.UnixMilli(createdAt).UTC()
	competitor.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return competitor, nil
}
