package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	publisherdomain "github.com/inkhorn/inkhorn/internal/services/publisher/domain"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// SettingsPage renders a project's auto-submission configuration and its
// delivery history.
func SettingsPage(project projectdomain.Project, setting publisherdomain.Setting, configured bool, submissions []publisherdomain.Submission, notice string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<article class="settings" data-project-id=%q><header><h1>Publishing for %s</h1><a href=%q>Back to project</a></header>`,
			project.ID,
			templ.EscapeString(project.Name),
			routepath.AppProject(project.ID)); err != nil {
			return err
		}
		if notice != "" {
			if _, err := fmt.Fprintf(w, `<p class="notice">%s</p>`, templ.EscapeString(notice)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<form method="post" action=%q class="card setting-form">
<label>Endpoint URL<input type="url" name="endpoint" value="%s" placeholder="https://example.com/api/posts" required></label>
<label>Posts per month<input type="number" name="posts_per_month" value="%d" min="0"></label>
<label>Headers, one per line, placeholders allowed<textarea name="header_template" rows="3">%s</textarea></label>
<label>Request body template<textarea name="body_template" rows="6">%s</textarea></label>
<button type="submit">Save</button>`,
			routepath.AppProjectSettings(project.ID),
			templ.EscapeString(setting.Endpoint),
			setting.PostsPerMonth,
			templ.EscapeString(setting.HeaderTemplate),
			templ.EscapeString(setting.BodyTemplate)); err != nil {
			return err
		}
		if configured {
			if _, err := fmt.Fprintf(w, `<button data-test-submit=%q class="secondary" type="button">Send a test submission</button>`, project.ID); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</form>`); err != nil {
			return err
		}
		if err := submissionHistory(submissions).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<section class="card danger-zone"><h2>Delete project</h2><p>Removes the project and everything generated for it.</p><button data-delete-project=%q class="quiet danger" type="button">Delete project</button></section>`, project.ID); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</article>`)
		return err
	})
}

func submissionHistory(submissions []publisherdomain.Submission) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(submissions) == 0 {
			return nil
		}
		if _, err := io.WriteString(w, `<section class="card submissions"><h2>Delivery history</h2><table><thead><tr><th>When</th><th>Status</th><th>Result</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, submission := range submissions {
			result := "delivered"
			if !submission.Success {
				result = "failed"
				if submission.Error != "" {
					result = submission.Error
				}
			}
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d</td><td>%s</td></tr>`,
				submission.CreatedAt.Format("2006-01-02 15:04"),
				submission.StatusCode,
				templ.EscapeString(result)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table></section>`)
		return err
	})
}
