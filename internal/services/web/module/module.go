// Package module defines the feature contract used by web composition.
package module

import (
	"context"
	"net/http"

	contentapp "github.com/inkhorn/inkhorn/internal/services/content/app"
	contentdomain "github.com/inkhorn/inkhorn/internal/services/content/domain"
	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	publisherapp "github.com/inkhorn/inkhorn/internal/services/publisher/app"
	publisherdomain "github.com/inkhorn/inkhorn/internal/services/publisher/domain"

	authdomain "github.com/inkhorn/inkhorn/internal/services/auth/domain"
)

// Viewer contains user-facing chrome data for authenticated app pages.
type Viewer struct {
	Email string
}

// ResolveViewer resolves app chrome viewer state for a request.
type ResolveViewer func(*http.Request) Viewer

// ResolveAccountID resolves the authenticated account id for a request.
type ResolveAccountID func(*http.Request) string

// Mount describes a module route mount.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module declares the minimum contract required by web composition.
type Module interface {
	ID() string
	Mount(Dependencies) (Mount, error)
}

// AuthService covers the account operations the web surface needs.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (authdomain.Account, authdomain.Session, error)
	Login(ctx context.Context, email, password string) (authdomain.Account, authdomain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Authenticate(ctx context.Context, sessionID string) (authdomain.Account, error)
	CheckProjectAllowance(ctx context.Context, accountID string, currentCount int) error
	MarkOnboarded(ctx context.Context, accountID string) error
}

// ProjectService covers project, competitor, keyword, and page operations.
type ProjectService interface {
	CreateProject(ctx context.Context, input projectdomain.CreateProjectInput) (projectdomain.Project, error)
	GetProject(ctx context.Context, accountID, projectID string) (projectdomain.Project, error)
	ListProjects(ctx context.Context, accountID string) ([]projectdomain.Project, error)
	CountProjects(ctx context.Context, accountID string) (int, error)
	DeleteProject(ctx context.Context, accountID, projectID string) error
	UpdateToggles(ctx context.Context, accountID, projectID string, autoGeneration, autoSubmission bool) (projectdomain.Project, error)
	RequestScan(ctx context.Context, accountID, projectID string) error
	AddCompetitor(ctx context.Context, accountID, projectID, competitorURL, name string) (projectdomain.Competitor, error)
	ListCompetitors(ctx context.Context, accountID, projectID string) ([]projectdomain.Competitor, error)
	RemoveCompetitor(ctx context.Context, accountID, projectID, competitorID string) error
	AddKeyword(ctx context.Context, accountID, projectID, text string) (projectdomain.Keyword, error)
	ListKeywords(ctx context.Context, accountID, projectID string) ([]projectdomain.Keyword, []projectdomain.ProjectKeyword, error)
	ToggleKeyword(ctx context.Context, accountID, projectID, keywordID string, use bool) error
	RemoveKeyword(ctx context.Context, accountID, projectID, keywordID string) error
	AddPage(ctx context.Context, accountID, projectID, pageURL string) (projectdomain.Page, error)
	ListPages(ctx context.Context, accountID, projectID string) ([]projectdomain.Page, error)
}

// ContentService covers suggestion and post generation operations.
type ContentService interface {
	GenerateSuggestions(ctx context.Context, accountID, projectID string, contentType contentdomain.ContentType) ([]contentdomain.TitleSuggestion, error)
	GenerateFromIdea(ctx context.Context, accountID, projectID, idea string, contentType contentdomain.ContentType) (contentdomain.TitleSuggestion, error)
	ListSuggestions(ctx context.Context, accountID, projectID string, includeArchived bool) ([]contentdomain.TitleSuggestion, error)
	ScoreSuggestion(ctx context.Context, accountID, suggestionID string, score int) (contentdomain.TitleSuggestion, error)
	SetSuggestionArchived(ctx context.Context, accountID, suggestionID string, archived bool) (contentdomain.TitleSuggestion, error)
	StartGeneration(ctx context.Context, accountID, suggestionID string) (contentdomain.Post, error)
	GenerationStatus(ctx context.Context, accountID, postID string) (contentapp.GenerationStatus, error)
	ListPosts(ctx context.Context, accountID, projectID string) ([]contentdomain.Post, error)
	GetPost(ctx context.Context, accountID, postID string) (contentdomain.Post, error)
	FixPost(ctx context.Context, accountID, postID, instruction string) (contentdomain.Post, error)
}

// PublisherService covers auto-submission settings and publishing.
type PublisherService interface {
	ConfigureSetting(ctx context.Context, accountID, projectID string, input publisherapp.SettingInput) (publisherdomain.Setting, error)
	GetSetting(ctx context.Context, accountID, projectID string) (publisherdomain.Setting, error)
	RemoveSetting(ctx context.Context, accountID, projectID string) error
	ListSubmissions(ctx context.Context, accountID, projectID string) ([]publisherdomain.Submission, error)
	TestSubmit(ctx context.Context, accountID, projectID string) (publisherdomain.Submission, error)
	PublishPost(ctx context.Context, accountID, postID string) (contentdomain.Post, error)
}

// Recorder receives fire-and-forget analytics events.
type Recorder interface {
	Capture(ctx context.Context, accountID, name string, properties map[string]any)
}

// Dependencies carries shared services and request resolvers into modules.
type Dependencies struct {
	Auth      AuthService
	Projects  ProjectService
	Content   ContentService
	Publisher PublisherService
	Recorder  Recorder

	ResolveViewer    ResolveViewer
	ResolveAccountID ResolveAccountID
}
