// Package pagerender centralizes module page rendering behavior.
package pagerender

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/templates"
)

// ModulePage describes a module page response.
type ModulePage struct {
	Title      string
	StatusCode int
	Fragment   templ.Component
}

// WriteModulePage writes a signed-in page inside the shared app chrome.
func WriteModulePage(w http.ResponseWriter, r *http.Request, deps module.Dependencies, page ModulePage) error {
	if w == nil {
		return nil
	}
	statusCode := page.StatusCode
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	viewer := module.Viewer{}
	if deps.ResolveViewer != nil {
		viewer = deps.ResolveViewer(r)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	return templates.AppLayout(page.Title, viewer, page.Fragment).Render(r.Context(), w)
}

// WritePublicPage writes a signed-out page inside the public chrome.
func WritePublicPage(w http.ResponseWriter, r *http.Request, page ModulePage) error {
	if w == nil {
		return nil
	}
	statusCode := page.StatusCode
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	return page.Fragment.Render(r.Context(), w)
}
