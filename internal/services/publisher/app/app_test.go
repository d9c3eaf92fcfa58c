package app

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitedb"
	contentdomain "github.com/inkhorn/inkhorn/internal/services/content/domain"
	contentsqlite "github.com/inkhorn/inkhorn/internal/services/content/storage/sqlite"
	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	projectsqlite "github.com/inkhorn/inkhorn/internal/services/project/storage/sqlite"
	"github.com/inkhorn/inkhorn/internal/services/publisher/grant"
	publishersqlite "github.com/inkhorn/inkhorn/internal/services/publisher/storage/sqlite"
)

type fakeGenerator struct {
	mu          sync.Mutex
	started     []string
	suggested   []string
	suggestions []contentdomain.TitleSuggestion
}

func (f *fakeGenerator) GenerateSuggestions(ctx context.Context, accountID, projectID string, contentType contentdomain.ContentType) ([]contentdomain.TitleSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggested = append(f.suggested, projectID)
	return f.suggestions, nil
}

func (f *fakeGenerator) StartGeneration(ctx context.Context, accountID, suggestionID string) (contentdomain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, suggestionID)
	return contentdomain.Post{ID: "new-post", SuggestionID: suggestionID}, nil
}

type capturedRequest struct {
	body    string
	headers http.Header
}

type testEnv struct {
	app       *App
	projects  *projectsqlite.Store
	content   *contentsqlite.Store
	generator *fakeGenerator
	server    *httptest.Server
	requests  *[]capturedRequest
	status    *int
	project   projectdomain.Project
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	sqlDB, err := sqlitedb.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	projectStore, err := projectsqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("projectsqlite.New() error = %v", err)
	}
	contentStore, err := contentsqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("contentsqlite.New() error = %v", err)
	}
	publisherStore, err := publishersqlite.New(sqlDB)
	if err != nil {
		t.Fatalf("publishersqlite.New() error = %v", err)
	}

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	status := http.StatusOK
	var requests []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, capturedRequest{body: string(body), headers: r.Header.Clone()})
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	signer, err := grant.NewSigner("inkhorn", "publish-endpoint", privateKey, 5*time.Minute, func() time.Time { return now })
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	project, err := projectdomain.NewProject(projectdomain.CreateProjectInput{
		AccountID: "acct-1",
		URL:       "https://example.com",
	}, now, id.NewID)
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	project.AutoSubmission = true
	if err := projectStore.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	generator := &fakeGenerator{}
	app := New(publisherStore, projectStore, contentStore, generator, signer, server.Client())
	app.now = func() time.Time { return now }
	app.pickType = func() contentdomain.ContentType { return contentdomain.ContentTypeSEO }

	return &testEnv{
		app:       app,
		projects:  projectStore,
		content:   contentStore,
		generator: generator,
		server:    server,
		requests:  &requests,
		status:    &status,
		project:   project,
		now:       now,
	}
}

func (e *testEnv) configure(t *testing.T, postsPerMonth int) {
	t.Helper()
	_, err := e.app.ConfigureSetting(context.Background(), "acct-1", e.project.ID, SettingInput{
		Endpoint:       e.server.URL,
		HeaderTemplate: "X-Post-Slug: {{ slug }}",
		BodyTemplate:   `{"title": "{{ title }}", "content": "{{ slug }}"}`,
		PostsPerMonth:  postsPerMonth,
	})
	if err != nil {
		t.Fatalf("ConfigureSetting() error = %v", err)
	}
}

func (e *testEnv) seedPost(t *testing.T, slug string, generated, posted bool, postedAt time.Time) contentdomain.Post {
	t.Helper()
	suggestion, err := contentdomain.NewTitleSuggestion(e.project.ID, "Post "+slug, contentdomain.ContentTypeSEO, e.now, id.NewID)
	if err != nil {
		t.Fatalf("NewTitleSuggestion() error = %v", err)
	}
	if err := e.content.CreateSuggestion(context.Background(), suggestion); err != nil {
		t.Fatalf("CreateSuggestion() error = %v", err)
	}
	postID, err := id.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	post := contentdomain.Post{
		ID:           postID,
		ProjectID:    e.project.ID,
		SuggestionID: suggestion.ID,
		Title:        suggestion.Title,
		Slug:         slug,
		Posted:       posted,
		PostedAt:     postedAt,
		CreatedAt:    e.now,
		UpdatedAt:    e.now,
	}
	if generated {
		post.Content = "# " + post.Title + "\n\nBody.\n"
	}
	if err := e.content.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	return post
}

func (e *testEnv) seedSuggestion(t *testing.T, title string) contentdomain.TitleSuggestion {
	t.Helper()
	suggestion, err := contentdomain.NewTitleSuggestion(e.project.ID, title, contentdomain.ContentTypeSEO, e.now, id.NewID)
	if err != nil {
		t.Fatalf("NewTitleSuggestion() error = %v", err)
	}
	if err := e.content.CreateSuggestion(context.Background(), suggestion); err != nil {
		t.Fatalf("CreateSuggestion() error = %v", err)
	}
	return suggestion
}

func TestPublishPostDeliversAndMarksPosted(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, 4)
	post := env.seedPost(t, "first-post", true, false, time.Time{})

	published, err := env.app.PublishPost(context.Background(), "acct-1", post.ID)
	if err != nil {
		t.Fatalf("PublishPost() error = %v", err)
	}
	if !published.Posted || published.PostedAt.IsZero() {
		t.Fatalf("post not marked published: %+v", published)
	}

	if len(*env.requests) != 1 {
		t.Fatalf("endpoint received %d requests, want 1", len(*env.requests))
	}
	request := (*env.requests)[0]
	if !strings.Contains(request.body, `"title": "Post first-post"`) {
		t.Fatalf("body = %q", request.body)
	}
	if request.headers.Get("X-Post-Slug") != "first-post" {
		t.Fatalf("X-Post-Slug = %q", request.headers.Get("X-Post-Slug"))
	}
	if !strings.HasPrefix(request.headers.Get("Authorization"), "Bearer ") {
		t.Fatalf("Authorization = %q", request.headers.Get("Authorization"))
	}

	submissions, err := env.app.ListSubmissions(context.Background(), "acct-1", env.project.ID)
	if err != nil {
		t.Fatalf("ListSubmissions() error = %v", err)
	}
	if len(submissions) != 1 || !submissions[0].Success {
		t.Fatalf("submissions = %+v", submissions)
	}
}

func TestPublishPostRejectedByEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, 4)
	*env.status = http.StatusBadGateway
	post := env.seedPost(t, "rejected-post", true, false, time.Time{})

	_, err := env.app.PublishPost(context.Background(), "acct-1", post.ID)
	if apperrors.CodeOf(err) != apperrors.CodePublishRejected {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodePublishRejected)
	}

	stored, err := env.content.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if stored.Posted {
		t.Fatal("post marked published despite rejection")
	}

	submissions, err := env.app.ListSubmissions(context.Background(), "acct-1", env.project.ID)
	if err != nil {
		t.Fatalf("ListSubmissions() error = %v", err)
	}
	if len(submissions) != 1 || submissions[0].Success || submissions[0].StatusCode != http.StatusBadGateway {
		t.Fatalf("submissions = %+v", submissions)
	}
}

func TestPublishPostGuards(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, 4)

	published := env.seedPost(t, "already-posted", true, true, env.now.Add(-time.Hour))
	if _, err := env.app.PublishPost(context.Background(), "acct-1", published.ID); apperrors.CodeOf(err) != apperrors.CodePostAlreadyPublished {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodePostAlreadyPublished)
	}

	pending := env.seedPost(t, "not-generated", false, false, time.Time{})
	if _, err := env.app.PublishPost(context.Background(), "acct-1", pending.ID); apperrors.CodeOf(err) != apperrors.CodePostNotReady {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodePostNotReady)
	}

	ready := env.seedPost(t, "foreign-account", true, false, time.Time{})
	if _, err := env.app.PublishPost(context.Background(), "acct-other", ready.ID); apperrors.CodeOf(err) != apperrors.CodePostNotFound {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodePostNotFound)
	}
}

func TestTestSubmitSendsSample(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, 4)

	submission, err := env.app.TestSubmit(context.Background(), "acct-1", env.project.ID)
	if err != nil {
		t.Fatalf("TestSubmit() error = %v", err)
	}
	if !submission.Success {
		t.Fatalf("submission = %+v, want success", submission)
	}
	if len(*env.requests) != 1 {
		t.Fatalf("endpoint received %d requests, want 1", len(*env.requests))
	}
	if !strings.Contains((*env.requests)[0].body, "Test submission") {
		t.Fatalf("body = %q", (*env.requests)[0].body)
	}
}

func TestRunCyclePublishesReadyPost(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, 10)
	post := env.seedPost(t, "ready", true, false, time.Time{})

	if err := env.app.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	stored, err := env.content.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if !stored.Posted {
		t.Fatal("ready post not published by cycle")
	}
}

func TestRunCycleRespectsCadence(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, 10)
	// June has 30 days, so 10 posts per month means one every 3 days.
	env.seedPost(t, "recent", true, true, env.now.Add(-24*time.Hour))
	env.seedPost(t, "waiting", true, false, time.Time{})

	if err := env.app.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if len(*env.requests) != 0 {
		t.Fatalf("endpoint received %d requests, want 0 before the interval elapses", len(*env.requests))
	}
}

func TestRunCycleStartsGenerationForIdleSuggestion(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, 10)
	suggestion := env.seedSuggestion(t, "Ungenerated Idea")

	if err := env.app.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if len(env.generator.started) != 1 || env.generator.started[0] != suggestion.ID {
		t.Fatalf("started = %v, want [%s]", env.generator.started, suggestion.ID)
	}
	if len(*env.requests) != 0 {
		t.Fatalf("endpoint received %d requests, want 0", len(*env.requests))
	}
}

func TestRunCycleProposesFreshSuggestion(t *testing.T) {
	env := newTestEnv(t)
	env.configure(t, 10)
	env.generator.suggestions = []contentdomain.TitleSuggestion{{ID: "fresh-1", ProjectID: env.project.ID}}

	if err := env.app.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if len(env.generator.suggested) != 1 {
		t.Fatalf("suggested = %v, want one call", env.generator.suggested)
	}
	if len(env.generator.started) != 1 || env.generator.started[0] != "fresh-1" {
		t.Fatalf("started = %v, want [fresh-1]", env.generator.started)
	}
}

func TestRunCycleSkipsProjectsWithoutSetting(t *testing.T) {
	env := newTestEnv(t)
	env.seedPost(t, "orphan", true, false, time.Time{})

	if err := env.app.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if len(*env.requests) != 0 {
		t.Fatalf("endpoint received %d requests, want 0", len(*env.requests))
	}
}
