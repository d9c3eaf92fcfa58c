package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// DashboardPage lists projects, or shows the onboarding scan flow when the
// account has none yet.
func DashboardPage(projects []projectdomain.Project, errorMessage string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ErrorBanner(errorMessage).Render(ctx, w); err != nil {
			return err
		}
		if len(projects) == 0 {
			return onboarding().Render(ctx, w)
		}
		if _, err := io.WriteString(w, `<h1>Projects</h1><ul class="projects">`); err != nil {
			return err
		}
		for _, project := range projects {
			status := "scanning"
			if project.Analyzed() {
				status = "ready"
			} else if project.Scanned() {
				status = "analyzing"
			}
			if _, err := fmt.Fprintf(w, `<li class="card"><a href=%q>%s</a><span class="url">%s</span><span class="status status-%s">%s</span></li>`,
				routepath.AppProject(project.ID),
				templ.EscapeString(project.Name),
				templ.EscapeString(project.URL),
				status, status); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</ul>`); err != nil {
			return err
		}
		return newProjectForm("Add another project").Render(ctx, w)
	})
}

func onboarding() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="onboarding"><h1>Welcome</h1><p>Add your website and we will scan it to learn what you do, then suggest blog posts that bring the right readers.</p>`); err != nil {
			return err
		}
		if err := newProjectForm("Scan my website").Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

func newProjectForm(label string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<form method="post" action=%q class="card new-project">
<label>Website URL<input type="url" name="url" placeholder="https://example.com" required></label>
<label>Name (optional)<input type="text" name="name"></label>
<button type="submit">%s</button>
</form>`, routepath.ProjectsPrefix, templ.EscapeString(label))
		return err
	})
}
