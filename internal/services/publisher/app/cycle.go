package app

import (
	"context"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	contentdomain "github.com/inkhorn/inkhorn/internal/services/content/domain"
	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/publisher/domain"
)

// RunCycle walks every auto-submit project and publishes or generates as the
// cadence demands. Per-project failures are logged and never stop the cycle.
func (a *App) RunCycle(ctx context.Context) error {
	projects, err := a.projects.ListAutoSubmitProjects(ctx)
	if err != nil {
		return err
	}
	for _, project := range projects {
		if err := a.processProject(ctx, project); err != nil {
			a.logf("publisher: project %s: %v", project.ID, err)
		}
	}
	return nil
}

// processProject publishes the next ready post when the project's cadence is
// due. When nothing is ready it falls back: start generating an existing
// suggestion, or propose a fresh one.
func (a *App) processProject(ctx context.Context, project projectdomain.Project) error {
	setting, err := a.store.GetSetting(ctx, project.ID)
	if apperrors.CodeOf(err) == apperrors.CodePublishEndpointMissing {
		return nil
	}
	if err != nil {
		return err
	}
	posts, err := a.content.ListPosts(ctx, project.ID)
	if err != nil {
		return err
	}
	if !domain.Due(setting.PostsPerMonth, lastPublished(posts), a.now()) {
		return nil
	}

	if ready, ok := nextReadyPost(posts); ok {
		_, err := a.publish(ctx, ready)
		return err
	}
	return a.generateNext(ctx, project, posts)
}

func (a *App) generateNext(ctx context.Context, project projectdomain.Project, posts []contentdomain.Post) error {
	suggestions, err := a.content.ListSuggestions(ctx, project.ID, false)
	if err != nil {
		return err
	}
	generated := make(map[string]bool, len(posts))
	for _, post := range posts {
		generated[post.SuggestionID] = true
	}
	for _, suggestion := range suggestions {
		if generated[suggestion.ID] || suggestion.UserScore < 0 {
			continue
		}
		_, err := a.generator.StartGeneration(ctx, project.AccountID, suggestion.ID)
		return err
	}

	fresh, err := a.generator.GenerateSuggestions(ctx, project.AccountID, project.ID, a.pickType())
	if err != nil {
		return err
	}
	if len(fresh) == 0 {
		return apperrors.New(apperrors.CodeProviderBadOutput, "no suggestion produced for auto-publish")
	}
	_, err = a.generator.StartGeneration(ctx, project.AccountID, fresh[0].ID)
	return err
}

func lastPublished(posts []contentdomain.Post) time.Time {
	var last time.Time
	for _, post := range posts {
		if post.Posted && post.PostedAt.After(last) {
			last = post.PostedAt
		}
	}
	return last
}

func nextReadyPost(posts []contentdomain.Post) (contentdomain.Post, bool) {
	for _, post := range posts {
		if post.Generated() && !post.Posted {
			return post, true
		}
	}
	return contentdomain.Post{}, false
}
