package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	analyticsdomain "github.com/inkhorn/inkhorn/internal/services/analytics/domain"
	authdomain "github.com/inkhorn/inkhorn/internal/services/auth/domain"
	contentapp "github.com/inkhorn/inkhorn/internal/services/content/app"
	contentdomain "github.com/inkhorn/inkhorn/internal/services/content/domain"
	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	publisherapp "github.com/inkhorn/inkhorn/internal/services/publisher/app"
	publisherdomain "github.com/inkhorn/inkhorn/internal/services/publisher/domain"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/sessioncookie"
)

type fakeAuth struct {
	sessions  map[string]authdomain.Account
	limitErr  error
	onboarded []string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: map[string]authdomain.Account{}}
}

func (f *fakeAuth) Signup(_ context.Context, email, _ string) (authdomain.Account, authdomain.Session, error) {
	account := authdomain.Account{ID: "acct-1", Email: strings.ToLower(email), State: authdomain.StateSignedUp}
	f.sessions["sess-signup"] = account
	return account, authdomain.Session{ID: "sess-signup", AccountID: account.ID}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (authdomain.Account, authdomain.Session, error) {
	if password != "correct horse" {
		return authdomain.Account{}, authdomain.Session{}, apperrors.New(apperrors.CodeAccountCredentialsWrong, "email or password is incorrect")
	}
	account := authdomain.Account{ID: "acct-1", Email: strings.ToLower(email), State: authdomain.StateSignedUp}
	f.sessions["sess-login"] = account
	return account, authdomain.Session{ID: "sess-login", AccountID: account.ID}, nil
}

func (f *fakeAuth) Logout(_ context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeAuth) Authenticate(_ context.Context, sessionID string) (authdomain.Account, error) {
	account, ok := f.sessions[sessionID]
	if !ok {
		return authdomain.Account{}, apperrors.New(apperrors.CodeAccountSessionInvalid, "session is not valid")
	}
	return account, nil
}

func (f *fakeAuth) CheckProjectAllowance(context.Context, string, int) error {
	return f.limitErr
}

func (f *fakeAuth) MarkOnboarded(_ context.Context, accountID string) error {
	f.onboarded = append(f.onboarded, accountID)
	return nil
}

type fakeProjects struct {
	projects []projectdomain.Project
	scanned  []string
	deleted  []string
}

func (f *fakeProjects) CreateProject(_ context.Context, input projectdomain.CreateProjectInput) (projectdomain.Project, error) {
	project := projectdomain.Project{ID: "proj-1", AccountID: input.AccountID, URL: input.URL, Name: input.Name}
	f.projects = append(f.projects, project)
	return project, nil
}

func (f *fakeProjects) GetProject(_ context.Context, _, projectID string) (projectdomain.Project, error) {
	for _, project := range f.projects {
		if project.ID == projectID {
			return project, nil
		}
	}
	return projectdomain.Project{}, apperrors.New(apperrors.CodeProjectNotFound, "project not found")
}

func (f *fakeProjects) ListProjects(context.Context, string) ([]projectdomain.Project, error) {
	return f.projects, nil
}

func (f *fakeProjects) CountProjects(context.Context, string) (int, error) {
	return len(f.projects), nil
}

func (f *fakeProjects) DeleteProject(_ context.Context, _, projectID string) error {
	f.deleted = append(f.deleted, projectID)
	return nil
}

func (f *fakeProjects) UpdateToggles(_ context.Context, _, projectID string, autoGeneration, autoSubmission bool) (projectdomain.Project, error) {
	return projectdomain.Project{ID: projectID, AutoGeneration: autoGeneration, AutoSubmission: autoSubmission}, nil
}

func (f *fakeProjects) RequestScan(_ context.Context, _, projectID string) error {
	f.scanned = append(f.scanned, projectID)
	return nil
}

func (f *fakeProjects) AddCompetitor(context.Context, string, string, string, string) (projectdomain.Competitor, error) {
	return projectdomain.Competitor{ID: "comp-1"}, nil
}

func (f *fakeProjects) ListCompetitors(context.Context, string, string) ([]projectdomain.Competitor, error) {
	return nil, nil
}

func (f *fakeProjects) RemoveCompetitor(context.Context, string, string, string) error { return nil }

func (f *fakeProjects) AddKeyword(context.Context, string, string, string) (projectdomain.Keyword, error) {
	return projectdomain.Keyword{ID: "kw-1"}, nil
}

func (f *fakeProjects) ListKeywords(context.Context, string, string) ([]projectdomain.Keyword, []projectdomain.ProjectKeyword, error) {
	return nil, nil, nil
}

func (f *fakeProjects) ToggleKeyword(context.Context, string, string, string, bool) error { return nil }

func (f *fakeProjects) RemoveKeyword(context.Context, string, string, string) error { return nil }

func (f *fakeProjects) AddPage(context.Context, string, string, string) (projectdomain.Page, error) {
	return projectdomain.Page{ID: "page-1"}, nil
}

func (f *fakeProjects) ListPages(context.Context, string, string) ([]projectdomain.Page, error) {
	return nil, nil
}

type fakeContent struct {
	started []string
}

func (f *fakeContent) GenerateSuggestions(context.Context, string, string, contentdomain.ContentType) ([]contentdomain.TitleSuggestion, error) {
	return []contentdomain.TitleSuggestion{{ID: "sugg-1", Title: "First"}}, nil
}

func (f *fakeContent) GenerateFromIdea(context.Context, string, string, string, contentdomain.ContentType) (contentdomain.TitleSuggestion, error) {
	return contentdomain.TitleSuggestion{ID: "sugg-2"}, nil
}

func (f *fakeContent) ListSuggestions(context.Context, string, string, bool) ([]contentdomain.TitleSuggestion, error) {
	return nil, nil
}

func (f *fakeContent) ScoreSuggestion(context.Context, string, string, int) (contentdomain.TitleSuggestion, error) {
	return contentdomain.TitleSuggestion{}, nil
}

func (f *fakeContent) SetSuggestionArchived(context.Context, string, string, bool) (contentdomain.TitleSuggestion, error) {
	return contentdomain.TitleSuggestion{}, nil
}

func (f *fakeContent) StartGeneration(_ context.Context, _, suggestionID string) (contentdomain.Post, error) {
	f.started = append(f.started, suggestionID)
	return contentdomain.Post{ID: "post-1", Slug: "first"}, nil
}

func (f *fakeContent) GenerationStatus(context.Context, string, string) (contentapp.GenerationStatus, error) {
	return contentapp.GenerationStatus{
		Post: contentdomain.Post{ID: "post-1", Title: "First", Slug: "first"},
		Step: contentdomain.StepComplete,
	}, nil
}

func (f *fakeContent) ListPosts(context.Context, string, string) ([]contentdomain.Post, error) {
	return nil, nil
}

func (f *fakeContent) GetPost(context.Context, string, string) (contentdomain.Post, error) {
	return contentdomain.Post{}, nil
}

func (f *fakeContent) FixPost(context.Context, string, string, string) (contentdomain.Post, error) {
	return contentdomain.Post{}, nil
}

type fakePublisher struct{}

func (fakePublisher) ConfigureSetting(context.Context, string, string, publisherapp.SettingInput) (publisherdomain.Setting, error) {
	return publisherdomain.Setting{}, nil
}

func (fakePublisher) GetSetting(context.Context, string, string) (publisherdomain.Setting, error) {
	return publisherdomain.Setting{}, apperrors.New(apperrors.CodePublishEndpointMissing, "no endpoint configured")
}

func (fakePublisher) RemoveSetting(context.Context, string, string) error { return nil }

func (fakePublisher) ListSubmissions(context.Context, string, string) ([]publisherdomain.Submission, error) {
	return nil, nil
}

func (fakePublisher) TestSubmit(context.Context, string, string) (publisherdomain.Submission, error) {
	return publisherdomain.Submission{}, nil
}

func (fakePublisher) PublishPost(context.Context, string, string) (contentdomain.Post, error) {
	return contentdomain.Post{}, nil
}

type capturedEvent struct {
	AccountID string
	Name      string
}

type fakeRecorder struct {
	events []capturedEvent
}

func (f *fakeRecorder) Capture(_ context.Context, accountID, name string, _ map[string]any) {
	f.events = append(f.events, capturedEvent{AccountID: accountID, Name: name})
}

type testServer struct {
	handler  http.Handler
	auth     *fakeAuth
	projects *fakeProjects
	content  *fakeContent
	recorder *fakeRecorder
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	auth := newFakeAuth()
	projects := &fakeProjects{}
	content := &fakeContent{}
	recorder := &fakeRecorder{}
	handler, err := NewHandler(Config{
		Auth:      auth,
		Projects:  projects,
		Content:   content,
		Publisher: fakePublisher{},
		Recorder:  recorder,
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return testServer{handler: handler, auth: auth, projects: projects, content: content, recorder: recorder}
}

func (s testServer) signedInRequest(method, target string, body *strings.Reader) *http.Request {
	s.auth.sessions["sess-test"] = authdomain.Account{ID: "acct-1", Email: "reader@example.com"}
	var r *http.Request
	if body == nil {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, body)
	}
	r.AddCookie(&http.Cookie{Name: sessioncookie.Name, Value: "sess-test"})
	r.Header.Set("Sec-Fetch-Site", "same-origin")
	return r
}

func TestAppRedirectsAnonymousToLogin(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app/", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if got := w.Header().Get("Location"); got != "/login" {
		t.Fatalf("location = %q, want %q", got, "/login")
	}
}

func TestAPIRejectsAnonymousWithJSON(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/projects/proj-1/scan", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != string(apperrors.CodeAccountSessionInvalid) {
		t.Fatalf("error code = %q, want %q", body.Error.Code, apperrors.CodeAccountSessionInvalid)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"email": {"Reader@Example.com"}, "password": {"correct horse"}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if got := w.Header().Get("Location"); got != "/app/" {
		t.Fatalf("location = %q, want %q", got, "/app/")
	}
	cookies := w.Result().Cookies()
	var sessionValue string
	for _, cookie := range cookies {
		if cookie.Name == sessioncookie.Name {
			sessionValue = cookie.Value
		}
	}
	if sessionValue != "sess-login" {
		t.Fatalf("session cookie = %q, want %q", sessionValue, "sess-login")
	}
}

func TestLoginFailureRendersForm(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"email": {"reader@example.com"}, "password": {"wrong"}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(w.Body.String(), "email or password is incorrect") {
		t.Fatalf("body missing error message: %s", w.Body.String())
	}
}

func TestDashboardRendersForSession(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, s.signedInRequest(http.MethodGet, "/app/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "reader@example.com") {
		t.Fatalf("body missing viewer email: %s", w.Body.String())
	}
}

func TestCreateProjectRequestsScanAndRecordsEvent(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"url": {"https://example.com"}, "name": {"Example"}}
	r := s.signedInRequest(http.MethodPost, "/app/projects/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if got := w.Header().Get("Location"); got != "/app/projects/proj-1" {
		t.Fatalf("location = %q, want %q", got, "/app/projects/proj-1")
	}
	if len(s.projects.scanned) != 1 || s.projects.scanned[0] != "proj-1" {
		t.Fatalf("scanned = %v, want [proj-1]", s.projects.scanned)
	}
	if len(s.recorder.events) != 1 || s.recorder.events[0].Name != "project_created" {
		t.Fatalf("events = %v, want one project_created", s.recorder.events)
	}
	if len(s.auth.onboarded) != 1 || s.auth.onboarded[0] != "acct-1" {
		t.Fatalf("onboarded = %v, want [acct-1]", s.auth.onboarded)
	}
}

func TestAPIScanWithSession(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, s.signedInRequest(http.MethodPost, "/api/projects/proj-9/scan", nil))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if len(s.projects.scanned) != 1 || s.projects.scanned[0] != "proj-9" {
		t.Fatalf("scanned = %v, want [proj-9]", s.projects.scanned)
	}
}

func TestAPIDeleteProject(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, s.signedInRequest(http.MethodDelete, "/api/projects/proj-4", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if len(s.projects.deleted) != 1 || s.projects.deleted[0] != "proj-4" {
		t.Fatalf("deleted = %v, want [proj-4]", s.projects.deleted)
	}
}

func TestAPIFeedbackRecordsEvent(t *testing.T) {
	s := newTestServer(t)

	body := strings.NewReader(`{"message":"the outline step is slow"}`)
	r := s.signedInRequest(http.MethodPost, "/api/feedback", body)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if len(s.recorder.events) != 1 || s.recorder.events[0].Name != analyticsdomain.EventFeedbackSubmitted {
		t.Fatalf("events = %v, want one feedback_submitted", s.recorder.events)
	}
}

func TestCrossSiteMutationForbidden(t *testing.T) {
	s := newTestServer(t)

	r := s.signedInRequest(http.MethodPost, "/api/projects/proj-1/scan", nil)
	r.Header.Set("Sec-Fetch-Site", "cross-site")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if len(s.projects.scanned) != 0 {
		t.Fatalf("scanned = %v, want none", s.projects.scanned)
	}
}

func TestStartGenerationReturnsPostID(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, s.signedInRequest(http.MethodPost, "/api/suggestions/sugg-1/generate", nil))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
	var body struct {
		PostID string `json:"post_id"`
		Slug   string `json:"slug"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.PostID != "post-1" || body.Slug != "first" {
		t.Fatalf("body = %+v, want post-1/first", body)
	}
	if len(s.content.started) != 1 || s.content.started[0] != "sugg-1" {
		t.Fatalf("started = %v, want [sugg-1]", s.content.started)
	}
}

func TestHealthEndpointIsPublic(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/up", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestStaticAssetsServed(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestProjectLimitErrorRendersDashboardBanner(t *testing.T) {
	s := newTestServer(t)
	s.auth.limitErr = apperrors.New(apperrors.CodeAccountProjectLimit, "project limit reached for current plan")

	form := url.Values{"url": {"https://example.com"}}
	r := s.signedInRequest(http.MethodPost, "/app/projects/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "project limit reached") {
		t.Fatalf("body missing limit message: %s", w.Body.String())
	}
}
