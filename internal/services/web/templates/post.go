package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	contentdomain "github.com/inkhorn/inkhorn/internal/services/content/domain"
)

// PostPage renders a post with its generation progress. While the pipeline
// runs, app.js polls the status endpoint and reloads on completion.
func PostPage(post contentdomain.Post, step contentdomain.Step) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<article class="post" data-post-id=%q data-step=%q>
<header><h1>%s</h1><p class="meta">%s</p></header>`,
			post.ID, string(step),
			templ.EscapeString(post.Title),
			templ.EscapeString(post.Description)); err != nil {
			return err
		}
		if step != contentdomain.StepComplete {
			if _, err := fmt.Fprintf(w, `<section class="card progress" data-generation-poll=%q><h2>Writing in progress</h2><p>Current step: <strong class="step">%s</strong></p><progress></progress></section>`,
				post.ID, string(step)); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintf(w, `<section class="card content"><div class="markdown" data-copy-source>%s</div>
<button data-copy=%q>Copy Markdown</button>`,
				templ.EscapeString(post.Content),
				post.ID); err != nil {
				return err
			}
			if post.Posted {
				if _, err := io.WriteString(w, `<span class="status status-published">Published</span>`); err != nil {
					return err
				}
			} else {
				if _, err := fmt.Fprintf(w, `<button data-publish-post=%q>Publish now</button>`, post.ID); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, `<form data-fix-post=%q class="inline"><input type="text" name="instruction" placeholder="Ask for a revision, e.g. shorten the intro"><button type="submit" class="secondary">Revise</button></form></section>`, post.ID); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</article>`)
		return err
	})
}
