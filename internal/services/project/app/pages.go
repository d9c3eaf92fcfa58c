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

// AddPage registers a page of an account's project and queues its scan.
func (a *App) AddPage(ctx context.Context, accountID, projectID, pageURL string) (domain.Page, error) {
	project, err := a.store.GetProject(ctx, accountID, projectID)
	if err != nil {
		return domain.Page{}, err
	}
	normalized, err := domain.NormalizeURL(pageURL)
	if err != nil {
		return domain.Page{}, err
	}
	now := a.now()
	page, err := a.store.UpsertPage(ctx, domain.Page{
		ID:        id.MustNewID(),
		ProjectID: project.ID,
		URL:       normalized,
		Source:    domain.PageSourceManual,
		TypeGuess: string(domain.GuessPageType(normalized)),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Page{}, err
	}
	if _, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
		Type:      TaskPageScan,
		Payload:   PagePayload{PageID: page.ID},
		DedupeKey: TaskPageScan + ":" + page.ID,
	}); err != nil {
		return domain.Page{}, fmt.Errorf("queue page scan: %w", err)
	}
	return page, nil
}

// ListPages lists the discovered pages of an account's project.
func (a *App) ListPages(ctx context.Context, accountID, projectID string) ([]domain.Page, error) {
	if _, err := a.store.GetProject(ctx, accountID, projectID); err != nil {
		return nil, err
	}
	return a.store.ListPages(ctx, projectID)
}

// ScanPage fetches one project page and stores its content. Pricing pages
// additionally queue a pricing-strategy run.
func (a *App) ScanPage(ctx context.Context, pageID string) error {
	page, err := a.store.GetPage(ctx, pageID)
	if err != nil {
		return err
	}
	fetched, err := a.reader.Fetch(ctx, page.URL)
	if err != nil {
		return fmt.Errorf("fetch project page: %w", err)
	}
	page.Scraped = domain.Scraped{
		Title:       fetched.Title,
		Description: fetched.Description,
		Markdown:    fetched.Markdown,
		ScrapedAt:   a.now(),
	}
	if page.Type == "" {
		page.Type = domain.PageType(page.TypeGuess)
	}
	page.UpdatedAt = a.now()
	if err := a.store.UpdatePage(ctx, page); err != nil {
		return err
	}

	if page.Type == domain.PageTypePricing {
		if _, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
			Type:      TaskPricingStrategy,
			Payload:   PagePayload{PageID: page.ID},
			DedupeKey: TaskPricingStrategy + ":" + page.ID,
		}); err != nil {
			return fmt.Errorf("queue pricing strategy: %w", err)
		}
	}
	return nil
}

type pricingStrategyOutput struct {
	Strategy string `json:"strategy"`
}

// AnalyzePricing runs the pricing-strategy agent over a scraped pricing page
// and stores the memo as the page summary.
func (a *App) AnalyzePricing(ctx context.Context, pageID string) error {
	page, err := a.store.GetPage(ctx, pageID)
	if err != nil {
		return err
	}
	if page.Scraped.Markdown == "" {
		// Nothing to analyze; the scan found no content.
		return nil
	}
	project, err := a.store.GetProjectByID(ctx, page.ProjectID)
	if err != nil {
		return err
	}

	def, err := agent.Lookup(agent.PricingStrategy)
	if err != nil {
		return err
	}
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Project: %s (%s)\n", project.Name, project.URL)
	fmt.Fprintf(&prompt, "Project summary: %s\n\n", project.Summary)
	fmt.Fprintf(&prompt, "Pricing page content:\n%s\n", page.Scraped.Markdown)

	result, err := a.invoker.Invoke(ctx, invoke.Input{Agent: def, Prompt: prompt.String()})
	if err != nil {
		return fmt.Errorf("invoke pricing strategy: %w", err)
	}
	output, err := invoke.Decode[pricingStrategyOutput](result)
	if err != nil {
		return fmt.Errorf("decode pricing strategy: %w", err)
	}

	page.Summary = output.Strategy
	page.UpdatedAt = a.now()
	return a.store.UpdatePage(ctx, page)
}
