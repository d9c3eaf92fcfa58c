package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/project/domain"
)

const keywordColumns = `id, text, country, data_source, volume, cpc_currency,
cpc_value, competition, trend, fetched_at, created_at, updated_at`

// UpsertKeyword inserts a keyword or returns the existing row keyed by text,
// country, and data source.
func (s *Store) UpsertKeyword(ctx context.Context, keyword domain.Keyword) (domain.Keyword, error) {
	if err := ctx.Err(); err != nil {
		return domain.Keyword{}, err
	}
	trend, err := marshalTrend(keyword.Trend)
	if err != nil {
		return domain.Keyword{}, err
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO keywords (`+keywordColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		keyword.ID,
		keyword.Text,
		keyword.Country,
		string(keyword.DataSource),
		keyword.Volume,
		keyword.CPCCurrency,
		keyword.CPCValue,
		keyword.Competition,
		trend,
		unixMilliOrZero(keyword.FetchedAt),
		keyword.CreatedAt.UTC().UnixMilli(),
		keyword.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return s.getKeyword(ctx, "text = ? AND country = ? AND data_source = ?",
				keyword.Text, keyword.Country, string(keyword.DataSource))
		}
		return domain.Keyword{}, fmt.Errorf("upsert keyword: %w", err)
	}
	return keyword, nil
}

// UpdateKeywordMetrics persists freshly fetched keyword metrics.
func (s *Store) UpdateKeywordMetrics(ctx context.Context, keyword domain.Keyword) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	trend, err := marshalTrend(keyword.Trend)
	if err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE keywords SET
volume = ?, cpc_currency = ?, cpc_value = ?, competition = ?, trend = ?,
fetched_at = ?, updated_at = ?
WHERE id = ?
`,
		keyword.Volume,
		keyword.CPCCurrency,
		keyword.CPCValue,
		keyword.Competition,
		trend,
		unixMilliOrZero(keyword.FetchedAt),
		keyword.UpdatedAt.UTC().UnixMilli(),
		keyword.ID,
	)
	if err != nil {
		return fmt.Errorf("update keyword metrics: %w", err)
	}
	return requireAffected(result, apperrors.CodeKeywordNotFound, "keyword not found")
}

// GetKeyword loads one keyword by id.
func (s *Store) GetKeyword(ctx context.Context, keywordID string) (domain.Keyword, error) {
	return s.getKeyword(ctx, "id = ?", keywordID)
}

func (s *Store) getKeyword(ctx context.Context, where string, args ...any) (domain.Keyword, error) {
	if err := ctx.Err(); err != nil {
		return domain.Keyword{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+keywordColumns+` FROM keywords WHERE `+where, args...)
	keyword, err := scanKeyword(row)
	if err == sql.ErrNoRows {
		return domain.Keyword{}, apperrors.New(apperrors.CodeKeywordNotFound, "keyword not found")
	}
	if err != nil {
		return domain.Keyword{}, fmt.Errorf("get keyword: %w", err)
	}
	return keyword, nil
}

// AssociateKeyword links a keyword to a project. Re-association is a no-op.
func (s *Store) AssociateKeyword(ctx context.Context, association domain.ProjectKeyword) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO project_keywords (project_id, keyword_id, use, associated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (project_id, keyword_id) DO NOTHING
`,
		association.ProjectID,
		association.KeywordID,
		boolInt(association.Use),
		association.AssociatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("associate keyword: %w", err)
	}
	return nil
}

// ListProjectKeywords lists a project's keywords with their associations,
// oldest association first.
func (s *Store) ListProjectKeywords(ctx context.Context, projectID string) ([]domain.Keyword, []domain.ProjectKeyword, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT k.id, k.text, k.country, k.data_source, k.volume, k.cpc_currency,
k.cpc_value, k.competition, k.trend, k.fetched_at, k.created_at, k.updated_at,
pk.use, pk.associated_at
FROM keywords k
JOIN project_keywords pk ON pk.keyword_id = k.id
WHERE pk.project_id = ?
ORDER BY pk.associated_at ASC, k.id ASC
`, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("list project keywords: %w", err)
	}
	defer rows.Close()

	var keywords []domain.Keyword
	var associations []domain.ProjectKeyword
	for rows.Next() {
		var keyword domain.Keyword
		var dataSource, trend string
		var fetchedAt, createdAt, updatedAt, associatedAt int64
		var use int
		err := rows.Scan(
			&keyword.ID,
			&keyword.Text,
			&keyword.Country,
			&dataSource,
			&keyword.Volume,
			&keyword.CPCCurrency,
			&keyword.CPCValue,
			&keyword.Competition,
			&trend,
			&fetchedAt,
			&createdAt,
			&updatedAt,
			&use,
			&associatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("scan project keyword: %w", err)
		}
		keyword.DataSource = domain.KeywordDataSource(dataSource)
		if err := json.Unmarshal([]byte(trend), &keyword.Trend); err != nil {
			return nil, nil, fmt.Errorf("decode keyword trend: %w", err)
		}
		keyword.FetchedAt = timeOrZero(fetchedAt)
		keyword.CreatedAt = time.UnixMilli(createdAt).UTC()
		keyword.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		keywords = append(keywords, keyword)
		associations = append(associations, domain.ProjectKeyword{
			ProjectID:    projectID,
			KeywordID:    keyword.ID,
			Use:          use != 0,
			AssociatedAt: time.UnixMilli(associatedAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate project keywords: %w", err)
	}
	return keywords, associations, nil
}

// SetKeywordUse toggles whether generation targets a project keyword.
func (s *Store) SetKeywordUse(ctx context.Context, projectID, keywordID string, use bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE project_keywords SET use = ? WHERE project_id = ? AND keyword_id = ?
`, boolInt(use), projectID, keywordID)
	if err != nil {
		return fmt.Errorf("set keyword use: %w", err)
	}
	return requireAffected(result, apperrors.CodeKeywordNotFound, "keyword is not associated with the project")
}

// RemoveKeyword detaches a keyword from a project.
func (s *Store) RemoveKeyword(ctx context.Context, projectID, keywordID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM project_keywords WHERE project_id = ? AND keyword_id = ?
`, projectID, keywordID)
	if err != nil {
		return fmt.Errorf("remove keyword: %w", err)
	}
	return requireAffected(result, apperrors.CodeKeywordNotFound, "keyword is not associated with the project")
}

func marshalTrend(trend []domain.TrendPoint) (string, error) {
	if len(trend) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(trend)
	if err != nil {
		return "", fmt.Errorf("encode keyword trend: %w", err)
	}
	return string(encoded), nil
}

func scanKeyword(row rowScanner) (domain.Keyword, error) {
	var keyword domain.Keyword
	var dataSource, trend string
	var fetchedAt, createdAt, updatedAt int64
	err := row.Scan(
		&keyword.ID,
		&keyword.Text,
		&keyword.Country,
		&dataSource,
		&keyword.Volume,
		&keyword.CPCCurrency,
		&keyword.CPCValue,
		&keyword.Competition,
		&trend,
		&fetchedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Keyword{}, err
	}
	keyword.DataSource = domain.KeywordDataSource(dataSource)
	if err := json.Unmarshal([]byte(trend), &keyword.Trend); err != nil {
		return domain.Keyword{}, fmt.Errorf("decode keyword trend: %w", err)
	}
	keyword.FetchedAt = timeOrZero(fetchedAt)
	keyword.CreatedAt = time.UnixMilli(createdAt).UTC()
	keyword.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return keyword, nil
}
