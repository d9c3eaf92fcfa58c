// Package posts serves the post detail page.
package posts

import (
	"net/http"

	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/pagerender"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/weberror"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
	"github.com/inkhorn/inkhorn/internal/services/web/templates"
)

// Module hosts the post detail route.
type Module struct{}

// New constructs the posts module.
func New() Module { return Module{} }

// ID identifies the module in registry diagnostics.
func (Module) ID() string { return "posts" }

// Mount builds the post route handler.
func (m Module) Mount(deps module.Dependencies) (module.Mount, error) {
	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodGet+" "+routepath.PostsPrefix+"{post}", func(w http.ResponseWriter, r *http.Request) {
		accountID := ""
		if deps.ResolveAccountID != nil {
			accountID = deps.ResolveAccountID(r)
		}
		status, err := deps.Content.GenerationStatus(r.Context(), accountID, r.PathValue("post"))
		if err != nil {
			weberror.WriteModuleError(w, r, err)
			return
		}
		_ = pagerender.WriteModulePage(w, r, deps, pagerender.ModulePage{
			Title:    status.Post.Title,
			Fragment: templates.PostPage(status.Post, status.Step),
		})
	})
	return module.Mount{Prefix: routepath.PostsPrefix, Handler: mux}, nil
}
