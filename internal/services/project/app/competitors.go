package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/services/ai/agent"
	"github.com/inkhorn/inkhorn/internal/services/ai/invoke"
	"github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
)

// AddCompetitor registers a competitor of an account's project and queues its
// scan.
func (a *App) AddCompetitor(ctx context.Context, accountID, projectID, competitorURL, name string) (domain.Competitor, error) {
	project, err := a.store.GetProject(ctx, accountID, projectID)
	if err != nil {
		return domain.Competitor{}, err
	}
	normalized, err := domain.NormalizeURL(competitorURL)
	if err != nil {
		return domain.Competitor{}, err
	}
	now := a.now()
	competitor := domain.Competitor{
		ID:        id.MustNewID(),
		ProjectID: project.ID,
		Name:      strings.TrimSpace(name),
		URL:       normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if competitor.Name == "" {
		competitor.Name = normalized
	}
	if err := a.store.CreateCompetitor(ctx, competitor); err != nil {
		return domain.Competitor{}, err
	}
	if _, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskCompetitorScan,
		Payload:   CompetitorPayload{CompetitorID: competitor.ID},
		DedupeKey: TaskCompetitorScan + ":" + competitor.ID,
	}); err != nil {
		return domain.Competitor{}, fmt.Errorf("queue competitor scan: %w", err)
	}
	return competitor, nil
}

// ListCompetitors lists the competitors of an account's project.
func (a *App) ListCompetitors(ctx context.Context, accountID, projectID string) ([]domain.Competitor, error) {
	if _, err := a.store.GetProject(ctx, accountID, projectID); err != nil {
		return nil, err
	}
	return a.store.ListCompetitors(ctx, projectID)
}

// RemoveCompetitor deletes a competitor from an account's project.
func (a *App) RemoveCompetitor(ctx context.Context, accountID, projectID, competitorID string) error {
	if _, err := a.store.GetProject(ctx, accountID, projectID); err != nil {
		return err
	}
	return a.store.DeleteCompetitor(ctx, projectID, competitorID)
}

type competitorAnalysisOutput struct {
	Name           string `json:"name"`
	Summary        string `json:"summary"`
	KeyDifferences string `json:"key_differences"`
	Strengths      string `json:"strengths"`
	Weaknesses     string `json:"weaknesses"`
	Opportunities  string `json:"opportunities"`
	Threats        string `json:"threats"`
	KeyFeatures    string `json:"key_features"`
	KeyBenefits    string `json:"key_benefits"`
	KeyDrawbacks   string `json:"key_drawbacks"`
}

// ScanCompetitor fetches a competitor homepage and runs the analysis agent in
// one task, since the analysis needs nothing beyond the fresh scrape.
func (a *App) ScanCompetitor(ctx context.Context, competitorID string) error {
	competitor, err := a.store.GetCompetitor(ctx, competitorID)
	if err != nil {
		return err
	}
	project, err := a.store.GetProjectByID(ctx, competitor.ProjectID)
	if err != nil {
		return err
	}

	fetched, err := a.reader.Fetch(ctx, competitor.URL)
	if err != nil {
		return fmt.Errorf("fetch competitor homepage: %w", err)
	}
	now := a.now()
	competitor.Scraped = domain.Scraped{
		Title:       fetched.Title,
		Description: fetched.Description,
		Markdown:    fetched.Markdown,
		ScrapedAt:   now,
	}

	def, err := agent.Lookup(agent.CompetitorAnalysis)
	if err != nil {
		return err
	}
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Project: %s (%s)\n", project.Name, project.URL)
	fmt.Fprintf(&prompt, "Project summary: %s\n\n", project.Summary)
	fmt.Fprintf(&prompt, "Competitor URL: %s\n", competitor.URL)
	fmt.Fprintf(&prompt, "Competitor page title: %s\n", fetched.Title)
	fmt.Fprintf(&prompt, "Competitor page content:\n%s\n", fetched.Markdown)

	result, err := a.invoker.Invoke(ctx, invoke.Input{Agent: def, Prompt: prompt.String()})
	if err != nil {
		return fmt.Errorf("invoke competitor analysis: %w", err)
	}
	output, err := invoke.Decode[competitorAnalysisOutput](result)
	if err != nil {
		return fmt.Errorf("decode competitor analysis: %w", err)
	}

	if name := strings.TrimSpace(output.Name); name != "" {
		competitor.Name = name
	}
	competitor.Analysis = domain.CompetitorAnalysis{
		Summary:        output.Summary,
		KeyDifferences: output.KeyDifferences,
		Strengths:      output.Strengths,
		Weaknesses:     output.Weaknesses,
		Opportunities:  output.Opportunities,
		Threats:        output.Threats,
		KeyFeatures:    output.KeyFeatures,
		KeyBenefits:    output.KeyBenefits,
		KeyDrawbacks:   output.KeyDrawbacks,
		AnalyzedAt:     a.now(),
	}
	competitor.UpdatedAt = a.now()
	return a.store.UpdateCompetitor(ctx, competitor)
}
