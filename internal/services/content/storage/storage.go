// Package storage defines persistence contracts for the content service.
package storage

import (
	"context"
	"time"

	"github.com/inkhorn/inkhorn/internal/services/content/domain"
)

// SuggestionStore persists title suggestions.
type SuggestionStore interface {
	CreateSuggestion(ctx context.Context, suggestion domain.TitleSuggestion) error
	GetSuggestion(ctx context.Context, suggestionID string) (domain.TitleSuggestion, error)
	// ListSuggestions lists a project's suggestions newest first. Archived
	// suggestions are included only when includeArchived is set.
	ListSuggestions(ctx context.Context, projectID string, includeArchived bool) ([]domain.TitleSuggestion, error)
	UpdateSuggestion(ctx context.Context, suggestion domain.TitleSuggestion) error
}

// PostStore persists posts and their sections.
type PostStore interface {
	CreatePost(ctx context.Context, post domain.Post) error
	GetPost(ctx context.Context, postID string) (domain.Post, error)
	// GetPostBySuggestion loads the post generated from a suggestion, if any.
	GetPostBySuggestion(ctx context.Context, suggestionID string) (domain.Post, error)
	ListPosts(ctx context.Context, projectID string) ([]domain.Post, error)
	UpdatePost(ctx context.Context, post domain.Post) error
	SlugTaken(ctx context.Context, projectID, slug string) (bool, error)
	// CountGenerations counts posts created for any of the account's
	// projects since the given time, for plan limit checks.
	CountGenerationsSince(ctx context.Context, projectIDs []string, since time.Time) (int, error)

	// CreateSections inserts a post's full section list atomically. It
	// fails if the post already has sections.
	CreateSections(ctx context.Context, postID string, sections []domain.Section) error
	GetSection(ctx context.Context, sectionID string) (domain.Section, error)
	ListSections(ctx context.Context, postID string) ([]domain.Section, error)
	UpdateSection(ctx context.Context, section domain.Section) error
}

// ResearchStore persists research questions and links.
type ResearchStore interface {
	CreateQuestions(ctx context.Context, sectionID string, questions []domain.ResearchQuestion) error
	GetQuestion(ctx context.Context, questionID string) (domain.ResearchQuestion, error)
	ListQuestions(ctx context.Context, sectionID string) ([]domain.ResearchQuestion, error)
	MarkQuestionSearched(ctx context.Context, questionID string) error

	// UpsertLink inserts a link or returns the existing one for the same
	// question and URL.
	UpsertLink(ctx context.Context, link domain.ResearchLink) (domain.ResearchLink, error)
	GetLink(ctx context.Context, linkID string) (domain.ResearchLink, error)
	ListLinks(ctx context.Context, questionID string) ([]domain.ResearchLink, error)
	UpdateLink(ctx context.Context, link domain.ResearchLink) error
	// CountUnprocessedLinks counts links of a post that have not finished
	// analysis, plus questions that have not been searched yet.
	CountUnprocessedLinks(ctx context.Context, postID string) (int, error)
}

// GuardStore is the SQLite-backed single-flight guard for synthesis runs.
type GuardStore interface {
	// AcquireGuard claims the named guard until expiry. It reports false
	// when another holder has an unexpired claim.
	AcquireGuard(ctx context.Context, name string, holder string, expiresAt time.Time, now time.Time) (bool, error)
	ReleaseGuard(ctx context.Context, name string, holder string) error
}

// Store is the combined content persistence contract.
type Store interface {
	SuggestionStore
	PostStore
	ResearchStore
	GuardStore
}
