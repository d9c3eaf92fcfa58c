package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/content/domain"
)

const postColumns = `id, project_id, suggestion_id, title, description, slug,
tags, content, posted, posted_at, created_at, updated_at`

// CreatePost persists a new post shell.
func (s *Store) CreatePost(ctx context.Context, post domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO posts (`+postColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		post.ID,
		post.ProjectID,
		post.SuggestionID,
		post.Title,
		post.Description,
		post.Slug,
		post.Tags,
		post.Content,
		boolInt(post.Posted),
		unixMilliOrZero(post.PostedAt),
		post.CreatedAt.UTC().UnixMilli(),
		post.UpdatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetPost loads one post by id.
func (s *Store) GetPost(ctx context.Context, postID string) (domain.Post, error) {
	return s.getPost(ctx, "id = ?", postID)
}

// GetPostBySuggestion loads the post generated from a suggestion, if any.
func (s *Store) GetPostBySuggestion(ctx context.Context, suggestionID string) (domain.Post, error) {
	return s.getPost(ctx, "suggestion_id = ?", suggestionID)
}

func (s *Store) getPost(ctx context.Context, where string, args ...any) (domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return domain.Post{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE `+where, args...)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return domain.Post{}, apperrors.New(apperrors.CodePostNotFound, "post not found")
	}
	if err != nil {
		return domain.Post{}, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// ListPosts lists a project's posts newest first.
func (s *Store) ListPosts(ctx context.Context, projectID string) ([]domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+postColumns+` FROM posts WHERE project_id = ? ORDER BY created_at DESC, id DESC
`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// UpdatePost persists all mutable post fields.
func (s *Store) UpdatePost(ctx context.Context, post domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE posts SET
title = ?, description = ?, slug = ?, tags = ?, content = ?,
posted = ?, posted_at = ?, updated_at = ?
WHERE id = ?
`,
		post.Title,
		post.Description,
		post.Slug,
		post.Tags,
		post.Content,
		boolInt(post.Posted),
		unixMilliOrZero(post.PostedAt),
		post.UpdatedAt.UTC().UnixMilli(),
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return requireAffected(result, apperrors.CodePostNotFound, "post not found")
}

// SlugTaken reports whether a project already uses a slug.
func (s *Store) SlugTaken(ctx context.Context, projectID, slug string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var count int
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*) FROM posts WHERE project_id = ? AND slug = ?
`, projectID, slug).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return count > 0, nil
}

// CountGenerationsSince counts posts created for the given projects since a
// point in time.
func (s *Store) CountGenerationsSince(ctx context.Context, projectIDs []string, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(projectIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?, ", len(projectIDs))
	placeholders = strings.TrimSuffix(placeholders, ", ")
	args := make([]any, 0, len(projectIDs)+1)
	for _, projectID := range projectIDs {
		args = append(args, projectID)
	}
	args = append(args, since.UTC().UnixMilli())

	var count int
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*) FROM posts WHERE project_id IN (`+placeholders+`) AND created_at >= ?
`, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count generations: %w", err)
	}
	return count, nil
}

// CreateSections inserts a post's full section list atomically.
func (s *Store) CreateSections(ctx context.Context, postID string, sections []domain.Section) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sections tx: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM post_sections WHERE post_id = ?`, postID).Scan(&existing); err != nil {
		return fmt.Errorf("count sections: %w", err)
	}
	if existing > 0 {
		return apperrors.New(apperrors.CodePipelineStepInvalid, "post already has sections")
	}

	for _, section := range sections {
		_, err := tx.ExecContext(ctx, `
INSERT INTO post_sections (id, post_id, position, kind, title, content, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
			section.ID,
			postID,
			section.Position,
			string(section.Kind),
			section.Title,
			section.Content,
			section.CreatedAt.UTC().UnixMilli(),
			section.UpdatedAt.UTC().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert section %d: %w", section.Position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sections: %w", err)
	}
	return nil
}

// GetSection loads one section by id.
func (s *Store) GetSection(ctx context.Context, sectionID string) (domain.Section, error) {
	if err := ctx.Err(); err != nil {
		return domain.Section{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, post_id, position, kind, title, content, created_at, updated_at
FROM post_sections WHERE id = ?
`, sectionID)
	section, err := scanSection(row)
	if err == sql.ErrNoRows {
		return domain.Section{}, apperrors.New(apperrors.CodeSectionNotFound, "section not found")
	}
	if err != nil {
		return domain.Section{}, fmt.Errorf("get section: %w", err)
	}
	return section, nil
}

// ListSections lists a post's sections in position order.
func (s *Store) ListSections(ctx context.Context, postID string) ([]domain.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, post_id, position, kind, title, content, created_at, updated_at
FROM post_sections WHERE post_id = ? ORDER BY position ASC
`, postID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	var sections []domain.Section
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return sections, nil
}

// UpdateSection persists section content.
func (s *Store) UpdateSection(ctx context.Context, section domain.Section) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE post_sections SET title = ?, content = ?, updated_at = ?
WHERE id = ?
`,
		section.Title,
		section.Content,
		section.UpdatedAt.UTC().UnixMilli(),
		section.ID,
	)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return requireAffected(result, apperrors.CodeSectionNotFound, "section not found")
}

func scanPost(row rowScanner) (domain.Post, error) {
	var post domain.Post
	var posted int
	var postedAt, createdAt, updatedAt int64
	err := row.Scan(
		&post.ID,
		&post.ProjectID,
		&post.SuggestionID,
		&post.Title,
		&post.Description,
		&post.Slug,
		&post.Tags,
		&post.Content,
		&posted,
		&postedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Post{}, err
	}
	post.Posted = posted != 0
	post.PostedAt = timeOrZero(postedAt)
	post.CreatedAt = time.UnixMilli(createdAt).UTC()
	post.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return post, nil
}

func scanSection(row rowScanner) (domain.Section, error) {
	var section domain.Section
	var kind string
	var createdAt, updatedAt int64
	err := row.Scan(
		&section.ID,
		&section.PostID,
		&section.Position,
		&kind,
		&section.Title,
		&section.Content,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Section{}, err
	}
	section.Kind = domain.SectionKind(kind)
	section.CreatedAt = time.UnixMilli(createdAt).UTC()
	section.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return section, nil
}
