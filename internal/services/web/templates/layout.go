// Package templates renders the web surface's pages as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// AppLayout wraps page content in the signed-in chrome.
func AppLayout(title string, viewer module.Viewer, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeHead(w, title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<header class="topbar"><a class="brand" href=%q>Inkhorn</a><nav><a href=%q>Dashboard</a><a href=%q>Feedback</a><form method="post" action=%q class="inline"><button type="submit" class="link">Sign out</button></form><span class="viewer">%s</span></nav></header>`,
			routepath.AppPrefix, routepath.AppPrefix, routepath.FeedbackPath, routepath.Logout,
			templ.EscapeString(viewer.Email)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<main class="app">`); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		return writeFoot(w)
	})
}

// PublicLayout wraps page content in the signed-out chrome.
func PublicLayout(title string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := writeHead(w, title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<header class="topbar"><a class="brand" href=%q>Inkhorn</a></header><main class="public">`, routepath.Root); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		return writeFoot(w)
	})
}

func writeHead(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><link rel="stylesheet" href="/static/app.css"></head><body>`,
		templ.EscapeString(title))
	return err
}

func writeFoot(w io.Writer) error {
	_, err := io.WriteString(w, `</main><script src="/static/app.js" defer></script></body></html>`)
	return err
}

// ErrorBanner renders an inline form error when message is not empty.
func ErrorBanner(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			return nil
		}
		_, err := fmt.Fprintf(w, `<p class="error" role="alert">%s</p>`, templ.EscapeString(message))
		return err
	})
}
