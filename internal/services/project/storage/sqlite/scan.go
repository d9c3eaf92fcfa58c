package sqlite

import (
	"database/sql"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/project/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func projectArgs(project domain.Project) []any {
	return []any{
		project.ID,
		project.AccountID,
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
		project.CreatedAt.UTC().UnixMilli(),
		project.UpdatedAt.UTC().UnixMilli(),
	}
}

func scanProject(row rowScanner) (domain.Project, error) {
	var project domain.Project
	var projectType string
	var autoGeneration, autoSubmission int
	var scrapedAt, analyzedAt, createdAt, updatedAt int64
	err := row.Scan(
		&project.ID,
		&project.AccountID,
		&project.URL,
		&project.Name,
		&projectType,
		&project.Summary,
		&project.SitemapURL,
		&autoGeneration,
		&autoSubmission,
		&project.Scraped.Title,
		&project.Scraped.Description,
		&project.Scraped.Markdown,
		&scrapedAt,
		&project.Analysis.BlogTheme,
		&project.Analysis.Founders,
		&project.Analysis.KeyFeatures,
		&project.Analysis.Language,
		&project.Analysis.TargetAudience,
		&project.Analysis.PainPoints,
		&project.Analysis.ProductUsage,
		&project.Analysis.Links,
		&project.Analysis.Style,
		&project.Analysis.ProposedKeywords,
		&project.Analysis.Location,
		&analyzedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Project{}, err
	}
	project.Type = domain.Type(projectType)
	project.AutoGeneration = autoGeneration != 0
	project.AutoSubmission = autoSubmission != 0
	project.Scraped.ScrapedAt = timeOrZero(scrapedAt)
	project.Analysis.AnalyzedAt = timeOrZero(analyzedAt)
	project.CreatedAt = time.UnixMilli(createdAt).UTC()
	project.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return project, nil
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
