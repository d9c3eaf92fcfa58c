// Package api serves the JSON surface used by app.js.
package api

import (
	"net/http"

	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
)

// Module hosts the JSON API routes.
type Module struct{}

// New constructs the api module.
func New() Module { return Module{} }

// ID identifies the module in registry diagnostics.
func (Module) ID() string { return "api" }

// Mount builds the API route handler.
func (m Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	h := handlers{deps: deps}

	mux.HandleFunc(http.MethodDelete+" "+routepath.APIPrefix+"projects/{project}", h.handleDeleteProject)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"projects/{project}/scan", h.handleScan)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"projects/{project}/suggestions", h.handleGenerateSuggestions)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"projects/{project}/suggestions/idea", h.handleGenerateFromIdea)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"projects/{project}/toggles", h.handleToggles)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"projects/{project}/competitors", h.handleAddCompetitor)
	mux.HandleFunc(http.MethodDelete+" "+routepath.APIPrefix+"projects/{project}/competitors/{competitor}", h.handleRemoveCompetitor)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"projects/{project}/keywords", h.handleAddKeyword)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"projects/{project}/keywords/{keyword}/toggle", h.handleToggleKeyword)
	mux.HandleFunc(http.MethodDelete+" "+routepath.APIPrefix+"projects/{project}/keywords/{keyword}", h.handleRemoveKeyword)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"projects/{project}/pages", h.handleAddPage)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"projects/{project}/test-submit", h.handleTestSubmit)

	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"suggestions/{suggestion}/score", h.handleScoreSuggestion)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"suggestions/{suggestion}/archive", h.handleArchiveSuggestion)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"suggestions/{suggestion}/generate", h.handleStartGeneration)

	mux.HandleFunc(http.MethodGet+" "+routepath.APIPrefix+"posts/{post}/status", h.handleGenerationStatus)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"posts/{post}/publish", h.handlePublishPost)
	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"posts/{post}/fix", h.handleFixPost)

	mux.HandleFunc(http.MethodPost+" "+routepath.APIPrefix+"feedback", h.handleFeedback)

	return module.Mount{Prefix: routepath.APIPrefix, Handler: mux}, nil
}
