package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	contentdomain "github.com/inkhorn/inkhorn/internal/services/content/domain"
	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// ProjectView aggregates everything the project detail page shows.
type ProjectView struct {
	Project     projectdomain.Project
	Suggestions []contentdomain.TitleSuggestion
	Posts       []contentdomain.Post
	Keywords    []projectdomain.Keyword
	Associated  []projectdomain.ProjectKeyword
	Competitors []projectdomain.Competitor
	Pages       []projectdomain.Page
}

// ProjectPage renders the project detail page.
func ProjectPage(view ProjectView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		project := view.Project
		if _, err := fmt.Fprintf(w, `<article class="project" data-project-id=%q>
<header><h1>%s</h1><a class="url" href=%q target="_blank" rel="noopener">%s</a>
<a class="settings" href=%q>Publishing settings</a></header>`,
			project.ID,
			templ.EscapeString(project.Name),
			templ.EscapeString(project.URL),
			templ.EscapeString(project.URL),
			routepath.AppProjectSettings(project.ID)); err != nil {
			return err
		}
		if err := projectSummary(project).Render(ctx, w); err != nil {
			return err
		}
		if err := projectToggles(project).Render(ctx, w); err != nil {
			return err
		}
		if err := suggestionSection(project.ID, view.Suggestions).Render(ctx, w); err != nil {
			return err
		}
		if err := postSection(view.Posts).Render(ctx, w); err != nil {
			return err
		}
		if err := keywordSection(project.ID, view.Keywords, view.Associated).Render(ctx, w); err != nil {
			return err
		}
		if err := competitorSection(project.ID, view.Competitors).Render(ctx, w); err != nil {
			return err
		}
		if err := pageSection(project.ID, view.Pages).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</article>`)
		return err
	})
}

func projectSummary(project projectdomain.Project) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !project.Scanned() {
			_, err := fmt.Fprintf(w, `<section class="card scan-pending"><p>We have not scanned this site yet.</p><button data-scan-project=%q>Scan now</button></section>`, project.ID)
			return err
		}
		if _, err := fmt.Fprintf(w, `<section class="card summary"><h2>About this site</h2><p>%s</p>`, templ.EscapeString(project.Summary)); err != nil {
			return err
		}
		if project.Analyzed() {
			if _, err := fmt.Fprintf(w, `<dl><dt>Type</dt><dd>%s</dd><dt>Style</dt><dd>%s</dd><dt>Audience</dt><dd>%s</dd></dl>`,
				templ.EscapeString(string(project.Type)),
				templ.EscapeString(project.Analysis.Style),
				templ.EscapeString(project.Analysis.TargetAudience)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, `<button data-scan-project=%q class="secondary">Rescan</button></section>`, project.ID); err != nil {
			return err
		}
		return nil
	})
}

func projectToggles(project projectdomain.Project) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="card toggles">
<label data-tooltip="Suggest and draft posts automatically on a schedule"><input type="checkbox" data-toggle="auto_generation" data-project-id=%q%s> Automatic generation</label>
<label data-tooltip="Deliver finished posts to your publish endpoint"><input type="checkbox" data-toggle="auto_submission" data-project-id=%q%s> Automatic publishing</label>
</section>`,
			project.ID, checked(project.AutoGeneration),
			project.ID, checked(project.AutoSubmission))
		return err
	})
}

func suggestionSection(projectID string, suggestions []contentdomain.TitleSuggestion) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="card suggestions"><h2>Title suggestions</h2>
<form data-generate-suggestions=%q class="inline"><select name="content_type"><option value="seo">SEO</option><option value="sharing">Sharing</option></select><button type="submit">Suggest titles</button></form>
<form data-generate-idea=%q class="inline"><input type="text" name="idea" placeholder="Or start from your own idea" required><button type="submit">Turn into a title</button></form>
<ul>`, projectID, projectID); err != nil {
			return err
		}
		for _, suggestion := range suggestions {
			if _, err := fmt.Fprintf(w, `<li data-suggestion-id=%q><strong>%s</strong><span class="meta">%s</span>
<button data-score="1" title="Good suggestion">&#9650;</button><button data-score="-1" title="Poor suggestion">&#9660;</button>
<button data-start-generation=%q>Write this post</button><button data-archive="true" class="secondary">Archive</button></li>`,
				suggestion.ID,
				templ.EscapeString(suggestion.Title),
				templ.EscapeString(suggestion.MetaDescription),
				suggestion.ID); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></section>`)
		return err
	})
}

func postSection(posts []contentdomain.Post) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="card posts"><h2>Posts</h2><ul>`); err != nil {
			return err
		}
		for _, post := range posts {
			state := "generating"
			if post.Posted {
				state = "published"
			} else if post.Generated() {
				state = "ready"
			}
			if _, err := fmt.Fprintf(w, `<li><a href=%q>%s</a><span class="status status-%s">%s</span></li>`,
				routepath.AppPost(post.ID),
				templ.EscapeString(post.Title),
				state, state); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></section>`)
		return err
	})
}

func keywordSection(projectID string, keywords []projectdomain.Keyword, associated []projectdomain.ProjectKeyword) templ.Component {
	use := make(map[string]bool, len(associated))
	for _, association := range associated {
		use[association.KeywordID] = association.Use
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="card keywords"><h2>Keywords</h2>
<form data-add-keyword=%q class="inline"><input type="text" name="text" placeholder="Add a keyword" required><button type="submit">Add</button></form>
<table><thead><tr><th>Keyword</th><th>Volume</th><th>CPC</th><th>Use</th><th></th></tr></thead><tbody>`, projectID); err != nil {
			return err
		}
		for _, keyword := range keywords {
			if _, err := fmt.Fprintf(w, `<tr data-keyword-id=%q><td>%s</td><td>%d</td><td>%s %.2f</td><td><input type="checkbox" data-keyword-use%s></td><td><button data-remove-keyword class="secondary">Remove</button></td></tr>`,
				keyword.ID,
				templ.EscapeString(keyword.Text),
				keyword.Volume,
				templ.EscapeString(keyword.CPCCurrency),
				keyword.CPCValue,
				checked(use[keyword.ID])); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table></section>`)
		return err
	})
}

func competitorSection(projectID string, competitors []projectdomain.Competitor) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="card competitors"><h2>Competitors</h2>
<form data-add-competitor=%q class="inline"><input type="url" name="url" placeholder="https://rival.example" required><button type="submit">Track</button></form><ul>`, projectID); err != nil {
			return err
		}
		for _, competitor := range competitors {
			if _, err := fmt.Fprintf(w, `<li data-competitor-id=%q><strong>%s</strong><span class="url">%s</span>`,
				competitor.ID,
				templ.EscapeString(competitor.Name),
				templ.EscapeString(competitor.URL)); err != nil {
				return err
			}
			if !competitor.Analysis.AnalyzedAt.IsZero() {
				if _, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(competitor.Analysis.Summary)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `<button data-remove-competitor class="secondary">Remove</button></li>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></section>`)
		return err
	})
}

func pageSection(projectID string, pages []projectdomain.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="card pages"><h2>Site pages</h2>
<form data-add-page=%q class="inline"><input type="url" name="url" placeholder="Add a page, e.g. your pricing page" required><button type="submit">Add</button></form><ul>`, projectID); err != nil {
			return err
		}
		for _, page := range pages {
			if _, err := fmt.Fprintf(w, `<li><span class="url">%s</span><span class="type">%s</span>`,
				templ.EscapeString(page.URL),
				templ.EscapeString(string(page.Type))); err != nil {
				return err
			}
			if page.Summary != "" {
				if _, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(page.Summary)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</li>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul></section>`)
		return err
	})
}

func checked(on bool) string {
	if on {
		return " checked"
	}
	return ""
}
