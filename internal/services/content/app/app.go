// Package app orchestrates title suggestions and the post generation pipeline.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/services/ai/agent"
	"github.com/inkhorn/inkhorn/internal/services/ai/invoke"
	"github.com/inkhorn/inkhorn/internal/services/ai/reader"
	"github.com/inkhorn/inkhorn/internal/services/ai/search"
	"github.com/inkhorn/inkhorn/internal/services/content/domain"
	"github.com/inkhorn/inkhorn/internal/services/content/storage"
	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
)

// Task types handled by the worker on behalf of the content service.
const (
	TaskOutline     = "content.outline"
	TaskQuestions   = "content.questions"
	TaskSearch      = "content.search"
	TaskScrape      = "content.scrape"
	TaskAnalyzeLink = "content.analyze_link"
	TaskSynthesize  = "content.synthesize"
	TaskFinalize    = "content.finalize"
)

// defaultSuggestionCount is how many titles one generation round proposes.
const defaultSuggestionCount = 3

// ProjectSource reads project context for prompts and account scoping. The
// project service's store satisfies it.
type ProjectSource interface {
	GetProject(ctx context.Context, accountID, projectID string) (projectdomain.Project, error)
	GetProjectByID(ctx context.Context, projectID string) (projectdomain.Project, error)
	ListProjects(ctx context.Context, accountID string) ([]projectdomain.Project, error)
}

// PlanSource reports the account's monthly generation allowance and receives
// the first-generation lifecycle milestone.
type PlanSource interface {
	GenerationLimit(ctx context.Context, accountID string) (int, error)
	MarkGenerated(ctx context.Context, accountID string) error
}

// App exposes content operations to web handlers and task handlers.
type App struct {
	store    storage.Store
	projects ProjectSource
	plans    PlanSource
	invoker  invoke.Adapter
	searcher search.Adapter
	reader   reader.Adapter
	queue    queue.Enqueuer
	now      func() time.Time
}

// New wires the content application service.
func New(store storage.Store, projects ProjectSource, plans PlanSource, invoker invoke.Adapter, searcher search.Adapter, pageReader reader.Adapter, enqueuer queue.Enqueuer) *App {
	return &App{
		store:    store,
		projects: projects,
		plans:    plans,
		invoker:  invoker,
		searcher: searcher,
		reader:   pageReader,
		queue:    enqueuer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type titleSuggestionsOutput struct {
	Titles []struct {
		Title           string   `json:"title"`
		MetaDescription string   `json:"meta_description"`
		TargetKeywords  []string `json:"target_keywords"`
	} `json:"titles"`
}

// GenerateSuggestions proposes new titles for a project and content type.
func (a *App) GenerateSuggestions(ctx context.Context, accountID, projectID string, contentType domain.ContentType) ([]domain.TitleSuggestion, error) {
	if !domain.ValidContentType(contentType) {
		return nil, apperrors.New(apperrors.CodeContentTypeInvalid, "unknown content type")
	}
	project, err := a.projects.GetProject(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}
	existing, err := a.store.ListSuggestions(ctx, projectID, true)
	if err != nil {
		return nil, err
	}

	def, err := agent.Lookup(agent.TitleSuggestions)
	if err != nil {
		return nil, err
	}
	result, err := a.invoker.Invoke(ctx, invoke.Input{
		Agent:  def,
		Prompt: suggestionPrompt(project, contentType, existing, "", defaultSuggestionCount),
	})
	if err != nil {
		return nil, fmt.Errorf("invoke title suggestions: %w", err)
	}
	output, err := invoke.Decode[titleSuggestionsOutput](result)
	if err != nil {
		return nil, fmt.Errorf("decode title suggestions: %w", err)
	}

	return a.persistSuggestions(ctx, projectID, contentType, "", output)
}

// GenerateFromIdea turns a user idea into one title suggestion.
func (a *App) GenerateFromIdea(ctx context.Context, accountID, projectID, idea string, contentType domain.ContentType) (domain.TitleSuggestion, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return domain.TitleSuggestion{}, apperrors.New(apperrors.CodeSuggestionTitleEmpty, "post idea is required")
	}
	if !domain.ValidContentType(contentType) {
		return domain.TitleSuggestion{}, apperrors.New(apperrors.CodeContentTypeInvalid, "unknown content type")
	}
	project, err := a.projects.GetProject(ctx, accountID, projectID)
	if err != nil {
		return domain.TitleSuggestion{}, err
	}

	def, err := agent.Lookup(agent.TitleFromIdea)
	if err != nil {
		return domain.TitleSuggestion{}, err
	}
	result, err := a.invoker.Invoke(ctx, invoke.Input{
		Agent:  def,
		Prompt: suggestionPrompt(project, contentType, nil, idea, 1),
	})
	if err != nil {
		return domain.TitleSuggestion{}, fmt.Errorf("invoke title from idea: %w", err)
	}
	output, err := invoke.Decode[titleSuggestionsOutput](result)
	if err != nil {
		return domain.TitleSuggestion{}, fmt.Errorf("decode title from idea: %w", err)
	}

	suggestions, err := a.persistSuggestions(ctx, projectID, contentType, idea, output)
	if err != nil {
		return domain.TitleSuggestion{}, err
	}
	if len(suggestions) == 0 {
		return domain.TitleSuggestion{}, apperrors.New(apperrors.CodeProviderBadOutput, "no title produced for the idea")
	}
	return suggestions[0], nil
}

func (a *App) persistSuggestions(ctx context.Context, projectID string, contentType domain.ContentType, prompt string, output titleSuggestionsOutput) ([]domain.TitleSuggestion, error) {
	suggestions := make([]domain.TitleSuggestion, 0, len(output.Titles))
	for _, title := range output.Titles {
		suggestion, err := domain.NewTitleSuggestion(projectID, title.Title, contentType, a.now(), id.NewID)
		if err != nil {
			continue
		}
		suggestion.MetaDescription = title.MetaDescription
		suggestion.TargetKeywords = orEmptyKeywords(title.TargetKeywords)
		suggestion.Prompt = prompt
		if err := a.store.CreateSuggestion(ctx, suggestion); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, nil
}

func orEmptyKeywords(keywords []string) []string {
	if keywords == nil {
		return []string{}
	}
	return keywords
}

// ListSuggestions lists a project's suggestions for an account.
func (a *App) ListSuggestions(ctx context.Context, accountID, projectID string, includeArchived bool) ([]domain.TitleSuggestion, error) {
	if _, err := a.projects.GetProject(ctx, accountID, projectID); err != nil {
		return nil, err
	}
	return a.store.ListSuggestions(ctx, projectID, includeArchived)
}

// ScoreSuggestion records the user's -1/0/1 score for a suggestion.
func (a *App) ScoreSuggestion(ctx context.Context, accountID, suggestionID string, score int) (domain.TitleSuggestion, error) {
	if !domain.ValidScore(score) {
		return domain.TitleSuggestion{}, apperrors.New(apperrors.CodeSuggestionScoreInvalid, "score must be -1, 0, or 1")
	}
	suggestion, err := a.getScopedSuggestion(ctx, accountID, suggestionID)
	if err != nil {
		return domain.TitleSuggestion{}, err
	}
	suggestion.UserScore = score
	suggestion.UpdatedAt = a.now()
	if err := a.store.UpdateSuggestion(ctx, suggestion); err != nil {
		return domain.TitleSuggestion{}, err
	}
	return suggestion, nil
}

// SetSuggestionArchived archives or restores a suggestion.
func (a *App) SetSuggestionArchived(ctx context.Context, accountID, suggestionID string, archived bool) (domain.TitleSuggestion, error) {
	suggestion, err := a.getScopedSuggestion(ctx, accountID, suggestionID)
	if err != nil {
		return domain.TitleSuggestion{}, err
	}
	suggestion.Archived = archived
	suggestion.UpdatedAt = a.now()
	if err := a.store.UpdateSuggestion(ctx, suggestion); err != nil {
		return domain.TitleSuggestion{}, err
	}
	return suggestion, nil
}

// getScopedSuggestion loads a suggestion and verifies the account owns its
// project. Cross-account access reads as not found.
func (a *App) getScopedSuggestion(ctx context.Context, accountID, suggestionID string) (domain.TitleSuggestion, error) {
	suggestion, err := a.store.GetSuggestion(ctx, suggestionID)
	if err != nil {
		return domain.TitleSuggestion{}, err
	}
	if _, err := a.projects.GetProject(ctx, accountID, suggestion.ProjectID); err != nil {
		return domain.TitleSuggestion{}, apperrors.New(apperrors.CodeSuggestionNotFound, "suggestion not found")
	}
	return suggestion, nil
}

// ListPosts lists a project's posts for an account.
func (a *App) ListPosts(ctx context.Context, accountID, projectID string) ([]domain.Post, error) {
	if _, err := a.projects.GetProject(ctx, accountID, projectID); err != nil {
		return nil, err
	}
	return a.store.ListPosts(ctx, projectID)
}

// GetPost loads an account's post.
func (a *App) GetPost(ctx context.Context, accountID, postID string) (domain.Post, error) {
	post, err := a.store.GetPost(ctx, postID)
	if err != nil {
		return domain.Post{}, err
	}
	if _, err := a.projects.GetProject(ctx, accountID, post.ProjectID); err != nil {
		return domain.Post{}, apperrors.New(apperrors.CodePostNotFound, "post not found")
	}
	return post, nil
}

type postFixerOutput struct {
	Content string `json:"content"`
}

// FixPost runs the post-fixer agent with a user instruction and replaces the
// post content with the revision.
func (a *App) FixPost(ctx context.Context, accountID, postID, instruction string) (domain.Post, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return domain.Post{}, apperrors.New(apperrors.CodePipelineStepInvalid, "fix instruction is required")
	}
	post, err := a.GetPost(ctx, accountID, postID)
	if err != nil {
		return domain.Post{}, err
	}
	if !post.Generated() {
		return domain.Post{}, apperrors.New(apperrors.CodePostNotReady, "post has no content to fix yet")
	}

	def, err := agent.Lookup(agent.PostFixer)
	if err != nil {
		return domain.Post{}, err
	}
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Instruction: %s\n\n", instruction)
	fmt.Fprintf(&prompt, "Post content:\n%s\n", post.Content)
	result, err := a.invoker.Invoke(ctx, invoke.Input{Agent: def, Prompt: prompt.String()})
	if err != nil {
		return domain.Post{}, fmt.Errorf("invoke post fixer: %w", err)
	}
	output, err := invoke.Decode[postFixerOutput](result)
	if err != nil {
		return domain.Post{}, fmt.Errorf("decode post fixer: %w", err)
	}
	if strings.TrimSpace(output.Content) == "" {
		return domain.Post{}, apperrors.New(apperrors.CodeProviderBadOutput, "post fixer returned empty content")
	}

	post.Content = output.Content
	post.UpdatedAt = a.now()
	if err := a.store.UpdatePost(ctx, post); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func suggestionPrompt(project projectdomain.Project, contentType domain.ContentType, existing []domain.TitleSuggestion, idea string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s (%s)\n", project.Name, project.URL)
	fmt.Fprintf(&b, "Summary: %s\n", project.Summary)
	fmt.Fprintf(&b, "Blog theme: %s\n", project.Analysis.BlogTheme)
	fmt.Fprintf(&b, "Target audience: %s\n", project.Analysis.TargetAudience)
	fmt.Fprintf(&b, "Pain points: %s\n", project.Analysis.PainPoints)
	fmt.Fprintf(&b, "Language: %s\n", project.Analysis.Language)
	fmt.Fprintf(&b, "Content type: %s\n", contentType)
	fmt.Fprintf(&b, "Number of titles: %d\n", count)
	if idea != "" {
		fmt.Fprintf(&b, "\nUser idea: %s\n", idea)
	}
	if len(existing) > 0 {
		b.WriteString("\nExisting titles to avoid:\n")
		for _, suggestion := range existing {
			fmt.Fprintf(&b, "- %s\n", suggestion.Title)
		}
	}
	return b.String()
}
