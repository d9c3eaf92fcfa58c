package app

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/ai/invoke"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
)

// Handlers returns the worker handler map for project tasks.
func (a *App) Handlers() map[string]queue.Handler {
	return map[string]queue.Handler{
		TaskScan:            projectHandler(a.Scan),
		TaskAnalyze:         projectHandler(a.Analyze),
		TaskIngestSitemap:   projectHandler(a.IngestSitemap),
		TaskKeywords:        projectHandler(a.ProcessKeywords),
		TaskPageScan:        pageHandler(a.ScanPage),
		TaskPricingStrategy: pageHandler(a.AnalyzePricing),
		TaskCompetitorScan: queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
			var payload CompetitorPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return queue.Terminal(fmt.Errorf("decode competitor payload: %w", err))
			}
			return classify(a.ScanCompetitor(ctx, payload.CompetitorID))
		}),
	}
}

func projectHandler(run func(ctx context.Context, projectID string) error) queue.Handler {
	return queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
		var payload ScanPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return queue.Terminal(fmt.Errorf("decode project payload: %w", err))
		}
		return classify(run(ctx, payload.ProjectID))
	})
}

func pageHandler(run func(ctx context.Context, pageID string) error) queue.Handler {
	return queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
		var payload PagePayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return queue.Terminal(fmt.Errorf("decode page payload: %w", err))
		}
		return classify(run(ctx, payload.PageID))
	})
}

// classify maps application errors onto queue retry semantics. Missing rows
// mean the entity was deleted after the task was queued, and a permanent
// provider rejection will not improve on replay, so retrying is pointless.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if !invoke.Retryable(err) {
		return queue.Terminal(err)
	}
	switch apperrors.CodeOf(err) {
	case apperrors.CodeProjectNotFound, apperrors.CodeProjectPageNotFound,
		apperrors.CodeCompetitorNotFound, apperrors.CodeProjectNotScanned:
		return queue.Terminal(err)
	}
	return err
}
