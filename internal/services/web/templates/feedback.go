package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// FeedbackPage renders the feedback form, with a thank-you notice after
// submission.
func FeedbackPage(sent bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if sent {
			if _, err := io.WriteString(w, `<p class="notice">Thanks, we read every message.</p>`); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `<form method="post" action=%q class="card feedback">
<h1>Feedback</h1>
<label>What should we improve?<textarea name="message" rows="6" required></textarea></label>
<button type="submit">Send</button>
</form>`, routepath.FeedbackPath)
		return err
	})
}
