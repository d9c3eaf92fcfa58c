package app

import (
	"context"
	"fmt"

	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/services/project/domain"
)

// defaultKeywordCountry scopes metrics lookups when the project gives no
// location signal.
const defaultKeywordCountry = "us"

// ProcessKeywords upserts the analysis agent's proposed keywords, fetches
// metrics for each, and associates them with the project. Metrics failures
// skip the keyword instead of failing the run.
func (a *App) ProcessKeywords(ctx context.Context, projectID string) error {
	project, err := a.store.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}
	for _, text := range domain.SplitProposedKeywords(project.Analysis.ProposedKeywords) {
		if _, err := a.attachKeyword(ctx, project.ID, text); err != nil {
			return err
		}
	}
	return nil
}

// AddKeyword attaches one user-provided keyword to an account's project.
func (a *App) AddKeyword(ctx context.Context, accountID, projectID, text string) (domain.Keyword, error) {
	project, err := a.store.GetProject(ctx, accountID, projectID)
	if err != nil {
		return domain.Keyword{}, err
	}
	normalized, err := domain.NormalizeKeywordText(text)
	if err != nil {
		return domain.Keyword{}, err
	}
	return a.attachKeyword(ctx, project.ID, normalized)
}

func (a *App) attachKeyword(ctx context.Context, projectID, text string) (domain.Keyword, error) {
	now := a.now()
	keyword, err := a.store.UpsertKeyword(ctx, domain.Keyword{
		ID:         id.MustNewID(),
		Text:       text,
		Country:    defaultKeywordCountry,
		DataSource: domain.DataSourceKeywordPlanner,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return domain.Keyword{}, err
	}

	if a.metrics != nil && keyword.FetchedAt.IsZero() {
		enriched, err := a.metrics.FetchMetrics(ctx, keyword)
		if err == nil {
			enriched.FetchedAt = a.now()
			enriched.UpdatedAt = a.now()
			if err := a.store.UpdateKeywordMetrics(ctx, enriched); err != nil {
				return domain.Keyword{}, err
			}
			keyword = enriched
		}
	}

	if err := a.store.AssociateKeyword(ctx, domain.ProjectKeyword{
		ProjectID:    projectID,
		KeywordID:    keyword.ID,
		Use:          true,
		AssociatedAt: a.now(),
	}); err != nil {
		return domain.Keyword{}, fmt.Errorf("associate keyword: %w", err)
	}
	return keyword, nil
}

// ListKeywords lists the keywords of an account's project.
func (a *App) ListKeywords(ctx context.Context, accountID, projectID string) ([]domain.Keyword, []domain.ProjectKeyword, error) {
	if _, err := a.store.GetProject(ctx, accountID, projectID); err != nil {
		return nil, nil, err
	}
	return a.store.ListProjectKeywords(ctx, projectID)
}

// ToggleKeyword flips whether generation targets a project keyword.
func (a *App) ToggleKeyword(ctx context.Context, accountID, projectID, keywordID string, use bool) error {
	if _, err := a.store.GetProject(ctx, accountID, projectID); err != nil {
		return err
	}
	return a.store.SetKeywordUse(ctx, projectID, keywordID, use)
}

// RemoveKeyword detaches a keyword from an account's project.
func (a *App) RemoveKeyword(ctx context.Context, accountID, projectID, keywordID string) error {
	if _, err := a.store.GetProject(ctx, accountID, projectID); err != nil {
		return err
	}
	return a.store.RemoveKeyword(ctx, projectID, keywordID)
}
