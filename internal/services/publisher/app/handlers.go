package app

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
)

// PublishPayload addresses one post publish task.
type PublishPayload struct {
	PostID string `json:"post_id"`
}

// Handlers returns the worker handler map for publish tasks.
func (a *App) Handlers() map[string]queue.Handler {
	return map[string]queue.Handler{
		TaskCycle: queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
			return a.RunCycle(ctx)
		}),
		TaskPublish: queue.HandlerFunc(func(ctx context.Context, task queue.Task) error {
			var payload PublishPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return queue.Terminal(fmt.Errorf("decode publish payload: %w", err))
			}
			post, err := a.content.GetPost(ctx, payload.PostID)
			if err != nil {
				return classify(err)
			}
			_, err = a.publish(ctx, post)
			return classify(err)
		}),
	}
}

// classify maps application errors onto queue retry semantics. A post that is
// gone, already published, or misconfigured will not succeed on retry.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch apperrors.CodeOf(err) {
	case apperrors.CodePostNotFound, apperrors.CodePostAlreadyPublished,
		apperrors.CodePublishEndpointMissing, apperrors.CodeProjectNotFound:
		return queue.Terminal(err)
	}
	return err
}
