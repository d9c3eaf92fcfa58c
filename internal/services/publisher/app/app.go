// Package app orchestrates auto-submission settings and post publishing.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
	contentdomain "github.com/inkhorn/inkhorn/internal/services/content/domain"
	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/publisher/domain"
	"github.com/inkhorn/inkhorn/internal/services/publisher/grant"
	"github.com/inkhorn/inkhorn/internal/services/publisher/storage"
)

// Task types handled by the worker on behalf of the publisher.
const (
	TaskCycle   = "publish.cycle"
	TaskPublish = "publish.post"
)

const requestTimeout = 30 * time.Second

// ProjectSource reads project records for scoping and scheduling.
type ProjectSource interface {
	GetProject(ctx context.Context, accountID, projectID string) (projectdomain.Project, error)
	GetProjectByID(ctx context.Context, projectID string) (projectdomain.Project, error)
	ListAutoSubmitProjects(ctx context.Context) ([]projectdomain.Project, error)
}

// ContentSource reads and updates posts and suggestions. The content
// service's store satisfies it.
type ContentSource interface {
	GetPost(ctx context.Context, postID string) (contentdomain.Post, error)
	ListPosts(ctx context.Context, projectID string) ([]contentdomain.Post, error)
	UpdatePost(ctx context.Context, post contentdomain.Post) error
	ListSuggestions(ctx context.Context, projectID string, includeArchived bool) ([]contentdomain.TitleSuggestion, error)
	GetPostBySuggestion(ctx context.Context, suggestionID string) (contentdomain.Post, error)
}

// Generator starts content work when the cadence is due but nothing is ready
// to publish. The content service's app satisfies it.
type Generator interface {
	GenerateSuggestions(ctx context.Context, accountID, projectID string, contentType contentdomain.ContentType) ([]contentdomain.TitleSuggestion, error)
	StartGeneration(ctx context.Context, accountID, suggestionID string) (contentdomain.Post, error)
}

// App exposes publisher operations to web handlers and task handlers.
type App struct {
	store     storage.Store
	projects  ProjectSource
	content   ContentSource
	generator Generator
	signer    *grant.Signer
	client    *http.Client
	now       func() time.Time
	logf      func(format string, args ...any)
	pickType  func() contentdomain.ContentType
}

// New wires the publisher application service.
func New(store storage.Store, projects ProjectSource, content ContentSource, generator Generator, signer *grant.Signer, client *http.Client) *App {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &App{
		store:     store,
		projects:  projects,
		content:   content,
		generator: generator,
		signer:    signer,
		client:    client,
		now:       func() time.Time { return time.Now().UTC() },
		logf:      log.Printf,
		pickType: func() contentdomain.ContentType {
			types := contentdomain.ContentTypes()
			return types[rand.Intn(len(types))]
		},
	}
}

// SettingInput carries an auto-submission configuration update.
type SettingInput struct {
	Endpoint       string
	HeaderTemplate string
	BodyTemplate   string
	PostsPerMonth  int
}

// ConfigureSetting stores a project's submission configuration.
func (a *App) ConfigureSetting(ctx context.Context, accountID, projectID string, input SettingInput) (domain.Setting, error) {
	if _, err := a.projects.GetProject(ctx, accountID, projectID); err != nil {
		return domain.Setting{}, err
	}
	setting, err := domain.NewSetting(projectID, input.Endpoint, input.HeaderTemplate, input.BodyTemplate, input.PostsPerMonth, a.now())
	if err != nil {
		return domain.Setting{}, err
	}
	if err := a.store.UpsertSetting(ctx, setting); err != nil {
		return domain.Setting{}, err
	}
	return setting, nil
}

// GetSetting loads an account's submission configuration.
func (a *App) GetSetting(ctx context.Context, accountID, projectID string) (domain.Setting, error) {
	if _, err := a.projects.GetProject(ctx, accountID, projectID); err != nil {
		return domain.Setting{}, err
	}
	return a.store.GetSetting(ctx, projectID)
}

// RemoveSetting deletes a project's submission configuration.
func (a *App) RemoveSetting(ctx context.Context, accountID, projectID string) error {
	if _, err := a.projects.GetProject(ctx, accountID, projectID); err != nil {
		return err
	}
	return a.store.DeleteSetting(ctx, projectID)
}

// ListSubmissions lists a project's delivery attempts for an account.
func (a *App) ListSubmissions(ctx context.Context, accountID, projectID string) ([]domain.Submission, error) {
	if _, err := a.projects.GetProject(ctx, accountID, projectID); err != nil {
		return nil, err
	}
	return a.store.ListSubmissions(ctx, projectID)
}

// TestSubmit delivers a sample payload to the project's endpoint so the user
// can verify their integration without publishing a real post.
func (a *App) TestSubmit(ctx context.Context, accountID, projectID string) (domain.Submission, error) {
	if _, err := a.projects.GetProject(ctx, accountID, projectID); err != nil {
		return domain.Submission{}, err
	}
	setting, err := a.store.GetSetting(ctx, projectID)
	if err != nil {
		return domain.Submission{}, err
	}
	sample := contentdomain.Post{
		ID:          "test-post",
		ProjectID:   projectID,
		Title:       "Test submission",
		Description: "A sample post used to verify the endpoint.",
		Slug:        "test-submission",
		Tags:        "test",
		Content:     "# Test submission\n\nIf you can read this, the integration works.\n",
	}
	submission, _ := a.deliver(ctx, setting, sample)
	return submission, nil
}

// PublishPost submits one generated post to the project's endpoint and marks
// it published on a 2xx response.
func (a *App) PublishPost(ctx context.Context, accountID, postID string) (contentdomain.Post, error) {
	post, err := a.content.GetPost(ctx, postID)
	if err != nil {
		return contentdomain.Post{}, err
	}
	if _, err := a.projects.GetProject(ctx, accountID, post.ProjectID); err != nil {
		return contentdomain.Post{}, apperrors.New(apperrors.CodePostNotFound, "post not found")
	}
	return a.publish(ctx, post)
}

func (a *App) publish(ctx context.Context, post contentdomain.Post) (contentdomain.Post, error) {
	if post.Posted {
		return contentdomain.Post{}, apperrors.New(apperrors.CodePostAlreadyPublished, "post is already published")
	}
	if !post.Generated() {
		return contentdomain.Post{}, apperrors.New(apperrors.CodePostNotReady, "post has no generated content yet")
	}
	setting, err := a.store.GetSetting(ctx, post.ProjectID)
	if err != nil {
		return contentdomain.Post{}, err
	}

	submission, err := a.deliver(ctx, setting, post)
	if err != nil {
		return contentdomain.Post{}, err
	}
	if !submission.Success {
		return contentdomain.Post{}, apperrors.New(apperrors.CodePublishRejected,
			fmt.Sprintf("endpoint responded with status %d", submission.StatusCode))
	}

	post.Posted = true
	post.PostedAt = a.now()
	post.UpdatedAt = post.PostedAt
	if err := a.content.UpdatePost(ctx, post); err != nil {
		return contentdomain.Post{}, err
	}
	return post, nil
}

// deliver renders the templates, signs the grant, and POSTs the submission.
// The attempt is recorded regardless of outcome.
func (a *App) deliver(ctx context.Context, setting domain.Setting, post contentdomain.Post) (domain.Submission, error) {
	vars := map[string]string{
		"title":       post.Title,
		"description": post.Description,
		"slug":        post.Slug,
		"tags":        post.Tags,
		"content":     post.Content,
	}
	body := domain.RenderTemplate(setting.BodyTemplate, vars)
	headers := domain.ParseHeaders(setting.HeaderTemplate, vars)

	submissionID, err := id.NewID()
	if err != nil {
		return domain.Submission{}, err
	}
	submission := domain.Submission{
		ID:        submissionID,
		ProjectID: setting.ProjectID,
		PostID:    post.ID,
		Endpoint:  setting.Endpoint,
		CreatedAt: a.now(),
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, setting.Endpoint, strings.NewReader(body))
	if err != nil {
		return domain.Submission{}, fmt.Errorf("build submission request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		request.Header.Set(name, value)
	}
	if a.signer != nil {
		token, err := a.signer.Sign(setting.ProjectID, post.ID)
		if err != nil {
			return domain.Submission{}, err
		}
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := a.client.Do(request)
	if err != nil {
		submission.Error = err.Error()
		a.record(ctx, submission)
		return submission, nil
	}
	defer response.Body.Close()
	io.Copy(io.Discard, io.LimitReader(response.Body, 4096))

	submission.StatusCode = response.StatusCode
	submission.Success = response.StatusCode >= 200 && response.StatusCode < 300
	a.record(ctx, submission)
	return submission, nil
}

func (a *App) record(ctx context.Context, submission domain.Submission) {
	if err := a.store.RecordSubmission(ctx, submission); err != nil {
		a.logf("publisher: record submission for post %s: %v", submission.PostID, err)
	}
}
