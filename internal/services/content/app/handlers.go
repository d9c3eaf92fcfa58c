package app

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/ai/invoke"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
)

// Handlers returns the worker handler map for the generation pipeline.
func (a *App) Handlers() map[string]queue.Handler {
	return map[string]queue.Handler{
		TaskOutline:    postHandler(a.Outline),
		TaskSynthesize: postHandler(a.Synthesize),
		TaskFinalize:   postHandler(a.Finalize),
		TaskQuestions: queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
			var payload SectionPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return queue.Terminal(fmt.Errorf("decode section payload: %w", err))
			}
			return classify(a.PlanQuestions(ctx, payload.SectionID))
		}),
		TaskSearch: queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
			var payload QuestionPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return queue.Terminal(fmt.Errorf("decode question payload: %w", err))
			}
			return classify(a.SearchQuestion(ctx, payload.QuestionID))
		}),
		TaskScrape:      linkHandler(a.ScrapeLink),
		TaskAnalyzeLink: linkHandler(a.AnalyzeLink),
	}
}

func postHandler(run func(ctx context.Context, postID string) error) queue.Handler {
	return queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
		var payload PostPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return queue.Terminal(fmt.Errorf("decode post payload: %w", err))
		}
		return classify(run(ctx, payload.PostID))
	})
}

func linkHandler(run func(ctx context.Context, linkID string) error) queue.Handler {
	return queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
		var payload LinkPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return queue.Terminal(fmt.Errorf("decode link payload: %w", err))
		}
		return classify(run(ctx, payload.LinkID))
	})
}

// classify maps application errors onto queue retry semantics. A
// deleted post, section, or link cannot come back, and a provider rejection
// like a bad request or bad credentials will not improve on replay, so those
// tasks dead-letter instead of retrying.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if !invoke.Retryable(err) {
		return queue.Terminal(err)
	}
	switch apperrors.CodeOf(err) {
	case apperrors.CodePostNotFound, apperrors.CodeSectionNotFound,
		apperrors.CodeResearchLinkNotFound, apperrors.CodeProjectNotFound:
		return queue.Terminal(err)
	}
	return err
}
