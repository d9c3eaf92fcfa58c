package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/content/domain"
)

// CreateQuestions inserts a section's research questions. A section that
// already has questions keeps them; re-running the step is a no-op.
func (s *Store) CreateQuestions(ctx context.Context, sectionID string, questions []domain.ResearchQuestion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin questions tx: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM research_questions WHERE section_id = ?`, sectionID).Scan(&existing); err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if existing > 0 {
		return tx.Commit()
	}

	for _, question := range questions {
		_, err := tx.ExecContext(ctx, `
INSERT INTO research_questions (id, section_id, text, searched, created_at)
VALUES (?, ?, ?, ?, ?)
`,
			question.ID,
			sectionID,
			question.Text,
			boolInt(question.Searched),
			question.CreatedAt.UTC().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit questions: %w", err)
	}
	return nil
}

// GetQuestion loads one research question.
func (s *Store) GetQuestion(ctx context.Context, questionID string) (domain.ResearchQuestion, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResearchQuestion{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, section_id, text, searched, created_at
FROM research_questions WHERE id = ?
`, questionID)
	var question domain.ResearchQuestion
	var searched int
	var createdAt int64
	err := row.Scan(&question.ID, &question.SectionID, &question.Text, &searched, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ResearchQuestion{}, apperrors.New(apperrors.CodeResearchLinkNotFound, "research question not found")
	}
	if err != nil {
		return domain.ResearchQuestion{}, fmt.Errorf("get question: %w", err)
	}
	question.Searched = searched != 0
	question.CreatedAt = time.UnixMilli(createdAt).UTC()
	return question, nil
}

// ListQuestions lists a section's questions oldest first.
func (s *Store) ListQuestions(ctx context.Context, sectionID string) ([]domain.ResearchQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, section_id, text, searched, created_at
FROM research_questions WHERE section_id = ? ORDER BY created_at ASC, id ASC
`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.ResearchQuestion
	for rows.Next() {
		var question domain.ResearchQuestion
		var searched int
		var createdAt int64
		if err := rows.Scan(&question.ID, &question.SectionID, &question.Text, &searched, &createdAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		question.Searched = searched != 0
		question.CreatedAt = time.UnixMilli(createdAt).UTC()
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

// MarkQuestionSearched marks a question's search step as done.
func (s *Store) MarkQuestionSearched(ctx context.Context, questionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE research_questions SET searched = 1 WHERE id = ?
`, questionID)
	if err != nil {
		return fmt.Errorf("mark question searched: %w", err)
	}
	return requireAffected(result, apperrors.CodeResearchLinkNotFound, "research question not found")
}

const linkColumns = `id, question_id, url, title, author, published_at,
content, scraped_at, summary, contextual_summary, answer_snippet, analyzed_at,
created_at`

// UpsertLink inserts a link or returns the existing one for the same
// question and URL.
func (s *Store) UpsertLink(ctx context.Context, link domain.ResearchLink) (domain.ResearchLink, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResearchLink{}, err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO research_links (`+linkColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		link.ID,
		link.QuestionID,
		link.URL,
		link.Title,
		link.Author,
		unixMilliOrZero(link.PublishedAt),
		link.Content,
		unixMilliOrZero(link.ScrapedAt),
		link.Summary,
		link.ContextualSummary,
		link.AnswerSnippet,
		unixMilliOrZero(link.AnalyzedAt),
		link.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return s.getLink(ctx, "question_id = ? AND url = ?", link.QuestionID, link.URL)
		}
		return domain.ResearchLink{}, fmt.Errorf("upsert link: %w", err)
	}
	return link, nil
}

// GetLink loads one link by id.
func (s *Store) GetLink(ctx context.Context, linkID string) (domain.ResearchLink, error) {
	return s.getLink(ctx, "id = ?", linkID)
}

func (s *Store) getLink(ctx context.Context, where string, args ...any) (domain.ResearchLink, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResearchLink{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM research_links WHERE `+where, args...)
	link, err := scanLink(row)
	if err == sql.ErrNoRows {
		return domain.ResearchLink{}, apperrors.New(apperrors.CodeResearchLinkNotFound, "research link not found")
	}
	if err != nil {
		return domain.ResearchLink{}, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

// ListLinks lists a question's links oldest first.
func (s *Store) ListLinks(ctx context.Context, questionID string) ([]domain.ResearchLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+linkColumns+` FROM research_links WHERE question_id = ? ORDER BY created_at ASC, id ASC
`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []domain.ResearchLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

// UpdateLink persists scraped content and analysis of a link.
func (s *Store) UpdateLink(ctx context.Context, link domain.ResearchLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE research_links SET
content = ?, scraped_at = ?, summary = ?, contextual_summary = ?,
answer_snippet = ?, analyzed_at = ?
WHERE id = ?
`,
		link.Content,
		unixMilliOrZero(link.ScrapedAt),
		link.Summary,
		link.ContextualSummary,
		link.AnswerSnippet,
		unixMilliOrZero(link.AnalyzedAt),
		link.ID,
	)
	if err != nil {
		return fmt.Errorf("update link: %w", err)
	}
	return requireAffected(result, apperrors.CodeResearchLinkNotFound, "research link not found")
}

// CountUnprocessedLinks counts a post's links that have not finished analysis
// plus its questions that have not been searched yet.
func (s *Store) CountUnprocessedLinks(ctx context.Context, postID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var pendingLinks int
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM research_links l
JOIN research_questions q ON q.id = l.question_id
JOIN post_sections s ON s.id = q.section_id
WHERE s.post_id = ? AND l.analyzed_at = 0
`, postID).Scan(&pendingLinks)
	if err != nil {
		return 0, fmt.Errorf("count unprocessed links: %w", err)
	}

	var unsearched int
	err = s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM research_questions q
JOIN post_sections s ON s.id = q.section_id
WHERE s.post_id = ? AND q.searched = 0
`, postID).Scan(&unsearched)
	if err != nil {
		return 0, fmt.Errorf("count unsearched questions: %w", err)
	}
	return pendingLinks + unsearched, nil
}

// AcquireGuard claims the named guard until expiry.
func (s *Store) AcquireGuard(ctx context.Context, name string, holder string, expiresAt time.Time, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO content_guards (name, holder, expires_at)
VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET holder = excluded.holder, expires_at = excluded.expires_at
WHERE content_guards.expires_at <= ?
`,
		name,
		holder,
		expiresAt.UTC().UnixMilli(),
		now.UTC().UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("acquire guard: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire guard rows: %w", err)
	}
	return affected > 0, nil
}

// ReleaseGuard drops a guard claim held by holder.
func (s *Store) ReleaseGuard(ctx context.Context, name string, holder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM content_guards WHERE name = ? AND holder = ?
`, name, holder)
	if err != nil {
		return fmt.Errorf("release guard: %w", err)
	}
	return nil
}

func scanLink(row rowScanner) (domain.ResearchLink, error) {
	var link domain.ResearchLink
	var publishedAt, scrapedAt, analyzedAt, createdAt int64
	err := row.Scan(
		&link.ID,
		&link.QuestionID,
		&link.URL,
		&link.Title,
		&link.Author,
		&publishedAt,
		&link.Content,
		&scrapedAt,
		&link.Summary,
		&link.ContextualSummary,
		&link.AnswerSnippet,
		&analyzedAt,
		&createdAt,
	)
	if err != nil {
		return domain.ResearchLink{}, err
	}
	link.PublishedAt = timeOrZero(publishedAt)
	link.ScrapedAt = timeOrZero(scrapedAt)
	link.AnalyzedAt = timeOrZero(analyzedAt)
	link.CreatedAt = time.UnixMilli(createdAt).UTC()
	return link, nil
}
