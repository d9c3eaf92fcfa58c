// Package storage defines persistence contracts for the project service.
package storage

import (
	"context"

	"github.com/inkhorn/inkhorn/internal/services/project/domain"
)

// ProjectStore persists projects scoped to their owning account.
type ProjectStore interface {
	CreateProject(ctx context.Context, project domain.Project) error
	// GetProject loads a project owned by the account. A project owned by a
	// different account reads as not found.
	GetProject(ctx context.Context, accountID, projectID string) (domain.Project, error)
	// GetProjectByID loads a project without account scoping. Background
	// task handlers use it; web handlers must use GetProject.
	GetProjectByID(ctx context.Context, projectID string) (domain.Project, error)
	ListProjects(ctx context.Context, accountID string) ([]domain.Project, error)
	// ListAutoSubmitProjects lists projects with auto-submission enabled
	// across all accounts, for the publish scheduler.
	ListAutoSubmitProjects(ctx context.Context) ([]domain.Project, error)
	CountProjects(ctx context.Context, accountID string) (int, error)
	UpdateProject(ctx context.Context, project domain.Project) error
	DeleteProject(ctx context.Context, accountID, projectID string) error
}

// PageStore persists discovered project pages.
type PageStore interface {
	// UpsertPage inserts a page or returns the existing one for the same
	// project and URL.
	UpsertPage(ctx context.Context, page domain.Page) (domain.Page, error)
	GetPage(ctx context.Context, pageID string) (domain.Page, error)
	ListPages(ctx context.Context, projectID string) ([]domain.Page, error)
	UpdatePage(ctx context.Context, page domain.Page) error
}

// CompetitorStore persists tracked competitors.
type CompetitorStore interface {
	CreateCompetitor(ctx context.Context, competitor domain.Competitor) error
	GetCompetitor(ctx context.Context, competitorID string) (domain.Competitor, error)
	ListCompetitors(ctx context.Context, projectID string) ([]domain.Competitor, error)
	UpdateCompetitor(ctx context.Context, competitor domain.Competitor) error
	DeleteCompetitor(ctx context.Context, projectID, competitorID string) error
}

// KeywordStore persists keywords and their project associations.
type KeywordStore interface {
	// UpsertKeyword inserts a keyword or returns the existing row keyed by
	// text, country, and data source.
	UpsertKeyword(ctx context.Context, keyword domain.Keyword) (domain.Keyword, error)
	UpdateKeywordMetrics(ctx context.Context, keyword domain.Keyword) error
	GetKeyword(ctx context.Context, keywordID string) (domain.Keyword, error)
	AssociateKeyword(ctx context.Context, association domain.ProjectKeyword) error
	ListProjectKeywords(ctx context.Context, projectID string) ([]domain.Keyword, []domain.ProjectKeyword, error)
	SetKeywordUse(ctx context.Context, projectID, keywordID string, use bool) error
	RemoveKeyword(ctx context.Context, projectID, keywordID string) error
}

// Store is the combined project persistence contract.
type Store interface {
	ProjectStore
	PageStore
	CompetitorStore
	KeywordStore
}
