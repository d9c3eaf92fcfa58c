package dashboard

import (
	"net/http"
	"strings"

	analyticsdomain "github.com/inkhorn/inkhorn/internal/services/analytics/domain"
	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/pagerender"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/weberror"
	"github.com/inkhorn/inkhorn/internal/services/web/templates"
)

type handlers struct {
	deps module.Dependencies
}

func (h handlers) accountID(r *http.Request) string {
	if h.deps.ResolveAccountID == nil {
		return ""
	}
	return h.deps.ResolveAccountID(r)
}

func (h handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	accountID := h.accountID(r)
	projects, err := h.deps.Projects.ListProjects(r.Context(), accountID)
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	_ = pagerender.WriteModulePage(w, r, h.deps, pagerender.ModulePage{
		Title:    "Dashboard",
		Fragment: templates.DashboardPage(projects, ""),
	})
}

func (h handlers) handleFeedbackGet(w http.ResponseWriter, r *http.Request) {
	_ = pagerender.WriteModulePage(w, r, h.deps, pagerender.ModulePage{
		Title:    "Feedback",
		Fragment: templates.FeedbackPage(false),
	})
}

func (h handlers) handleFeedbackPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse feedback form", http.StatusBadRequest)
		return
	}
	message := strings.TrimSpace(r.FormValue("message"))
	if message != "" && h.deps.Recorder != nil {
		h.deps.Recorder.Capture(r.Context(), h.accountID(r), analyticsdomain.EventFeedbackSubmitted, map[string]any{"message": message})
	}
	_ = pagerender.WriteModulePage(w, r, h.deps, pagerender.ModulePage{
		Title:    "Feedback",
		Fragment: templates.FeedbackPage(true),
	})
}
