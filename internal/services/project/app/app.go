// Package app orchestrates project scans, analysis, and keyword processing.
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
	"github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/project/storage"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
)

// Task types handled by the worker on behalf of the project service.
const (
	TaskScan            = "project.scan"
	TaskAnalyze         = "project.analyze"
	TaskIngestSitemap   = "project.ingest_sitemap"
	TaskPageScan        = "project.page_scan"
	TaskCompetitorScan  = "project.competitor_scan"
	TaskPricingStrategy = "project.pricing_strategy"
	TaskKeywords        = "project.keywords"
)

// MetricsProvider fetches keyword metrics from an external data source.
// Implementations return the keyword enriched with volume, CPC, competition,
// and trend points.
type MetricsProvider interface {
	FetchMetrics(ctx context.Context, keyword domain.Keyword) (domain.Keyword, error)
}

// App exposes project operations to web handlers and task handlers.
type App struct {
	store   storage.Store
	reader  reader.Adapter
	invoker invoke.Adapter
	metrics MetricsProvider
	queue   queue.Enqueuer
	now     func() time.Time
}

// New wires the project application service.
func New(store storage.Store, pageReader reader.Adapter, invoker invoke.Adapter, metrics MetricsProvider, enqueuer queue.Enqueuer) *App {
	return &App{
		store:   store,
		reader:  pageReader,
		invoker: invoker,
		metrics: metrics,
		queue:   enqueuer,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateProject validates and persists a project, then queues the first scan.
func (a *App) CreateProject(ctx context.Context, input domain.CreateProjectInput) (domain.Project, error) {
	project, err := domain.NewProject(input, a.now(), id.NewID)
	if err != nil {
		return domain.Project{}, err
	}
	if err := a.store.CreateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	if _, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskScan,
		Payload:   ScanPayload{ProjectID: project.ID},
		DedupeKey: TaskScan + ":" + project.ID,
	}); err != nil {
		return domain.Project{}, fmt.Errorf("queue project scan: %w", err)
	}
	return project, nil
}

// GetProject loads an account's project.
func (a *App) GetProject(ctx context.Context, accountID, projectID string) (domain.Project, error) {
	return a.store.GetProject(ctx, accountID, projectID)
}

// ListProjects lists an account's projects.
func (a *App) ListProjects(ctx context.Context, accountID string) ([]domain.Project, error) {
	return a.store.ListProjects(ctx, accountID)
}

// CountProjects counts an account's projects for plan limit checks.
func (a *App) CountProjects(ctx context.Context, accountID string) (int, error) {
	return a.store.CountProjects(ctx, accountID)
}

// DeleteProject removes an account's project.
func (a *App) DeleteProject(ctx context.Context, accountID, projectID string) error {
	return a.store.DeleteProject(ctx, accountID, projectID)
}

// UpdateToggles flips the automation switches of a project.
func (a *App) UpdateToggles(ctx context.Context, accountID, projectID string, autoGeneration, autoSubmission bool) (domain.Project, error) {
	project, err := a.store.GetProject(ctx, accountID, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	project.AutoGeneration = autoGeneration
	project.AutoSubmission = autoSubmission
	project.UpdatedAt = a.now()
	if err := a.store.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// UpdateDetailsInput carries the user-editable project fields.
type UpdateDetailsInput struct {
	Name       string
	Type       domain.Type
	SitemapURL string
}

// UpdateDetails persists the user-editable fields of a project.
func (a *App) UpdateDetails(ctx context.Context, accountID, projectID string, input UpdateDetailsInput) (domain.Project, error) {
	project, err := a.store.GetProject(ctx, accountID, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		project.Name = name
	}
	if input.Type != "" {
		if !domain.ValidType(input.Type) {
			return domain.Project{}, apperrors.New(apperrors.CodeProjectTypeInvalid, fmt.Sprintf("unknown project type %q", input.Type))
		}
		project.Type = input.Type
	}
	if sitemapURL := strings.TrimSpace(input.SitemapURL); sitemapURL != "" {
		normalized, err := domain.NormalizeURL(sitemapURL)
		if err != nil {
			return domain.Project{}, err
		}
		project.SitemapURL = normalized
	}
	project.UpdatedAt = a.now()
	if err := a.store.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// RequestScan queues a fresh scan of an account's project.
func (a *App) RequestScan(ctx context.Context, accountID, projectID string) error {
	project, err := a.store.GetProject(ctx, accountID, projectID)
	if err != nil {
		return err
	}
	_, err = a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskScan,
		Payload:   ScanPayload{ProjectID: project.ID},
		DedupeKey: TaskScan + ":" + project.ID,
	})
	if err != nil {
		return fmt.Errorf("queue project scan: %w", err)
	}
	return nil
}

// Scan fetches the project homepage and stores the scraped content, then
// queues analysis. Task handlers call it with an unscoped project id.
func (a *App) Scan(ctx context.Context, projectID string) error {
	project, err := a.store.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	page, err := a.reader.Fetch(ctx, project.URL)
	if err != nil {
		return fmt.Errorf("fetch project homepage: %w", err)
	}
	project.Scraped = domain.Scraped{
		Title:       page.Title,
		Description: page.Description,
		Markdown:    page.Markdown,
		ScrapedAt:   a.now(),
	}
	project.UpdatedAt = a.now()
	if err := a.store.UpdateProject(ctx, project); err != nil {
		return err
	}

	if _, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskAnalyze,
		Payload:   ScanPayload{ProjectID: project.ID},
		DedupeKey: TaskAnalyze + ":" + project.ID,
	}); err != nil {
		return fmt.Errorf("queue project analysis: %w", err)
	}
	if _, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskIngestSitemap,
		Payload:   ScanPayload{ProjectID: project.ID},
		DedupeKey: TaskIngestSitemap + ":" + project.ID,
	}); err != nil {
		return fmt.Errorf("queue sitemap ingestion: %w", err)
	}
	return nil
}

type projectAnalysisOutput struct {
	Name             string   `json:"name"`
	Summary          string   `json:"summary"`
	BlogTheme        string   `json:"blog_theme"`
	Founders         string   `json:"founders"`
	KeyFeatures      string   `json:"key_features"`
	Language         string   `json:"language"`
	TargetAudience   string   `json:"target_audience_summary"`
	PainPoints       string   `json:"pain_points"`
	ProductUsage     string   `json:"product_usage"`
	Links            []string `json:"links"`
	ProposedKeywords []string `json:"proposed_keywords"`
	Location         string   `json:"location"`
}

// Analyze runs the project-analysis agent over the scraped homepage and
// persists the extracted details, then queues keyword processing.
func (a *App) Analyze(ctx context.Context, projectID string) error {
	project, err := a.store.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.Scanned() {
		return apperrors.New(apperrors.CodeProjectNotScanned, "project has not been scanned yet")
	}

	def, err := agent.Lookup(agent.ProjectAnalysis)
	if err != nil {
		return err
	}
	result, err := a.invoker.Invoke(ctx, invoke.Input{
		Agent:  def,
		Prompt: analysisPrompt(project),
	})
	if err != nil {
		return fmt.Errorf("invoke project analysis: %w", err)
	}
	output, err := invoke.Decode[projectAnalysisOutput](result)
	if err != nil {
		return fmt.Errorf("decode project analysis: %w", err)
	}

	if name := strings.TrimSpace(output.Name); name != "" {
		project.Name = name
	}
	project.Summary = output.Summary
	project.Analysis = domain.Analysis{
		BlogTheme:        output.BlogTheme,
		Founders:         output.Founders,
		KeyFeatures:      output.KeyFeatures,
		Language:         output.Language,
		TargetAudience:   output.TargetAudience,
		PainPoints:       output.PainPoints,
		ProductUsage:     output.ProductUsage,
		Links:            strings.Join(output.Links, "\n"),
		ProposedKeywords: strings.Join(output.ProposedKeywords, ", "),
		Location:         valueOr(output.Location, "Global"),
		AnalyzedAt:       a.now(),
	}
	project.UpdatedAt = a.now()
	if err := a.store.UpdateProject(ctx, project); err != nil {
		return err
	}

	if len(output.ProposedKeywords) > 0 {
		if _, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
			Type:      TaskKeywords,
			Payload:   ScanPayload{ProjectID: project.ID},
			DedupeKey: TaskKeywords + ":" + project.ID,
		}); err != nil {
			return fmt.Errorf("queue keyword processing: %w", err)
		}
	}
	return nil
}

func analysisPrompt(project domain.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project URL: %s\n", project.URL)
	fmt.Fprintf(&b, "Project type: %s\n\n", project.Type)
	fmt.Fprintf(&b, "Page title: %s\n", project.Scraped.Title)
	fmt.Fprintf(&b, "Page description: %s\n\n", project.Scraped.Description)
	fmt.Fprintf(&b, "Page content:\n%s\n", project.Scraped.Markdown)
	return b.String()
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
