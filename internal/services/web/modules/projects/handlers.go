package projects

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	analyticsdomain "github.com/inkhorn/inkhorn/internal/services/analytics/domain"
	projectdomain "github.com/inkhorn/inkhorn/internal/services/project/domain"
	publisherapp "github.com/inkhorn/inkhorn/internal/services/publisher/app"
	publisherdomain "github.com/inkhorn/inkhorn/internal/services/publisher/domain"
	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/pagerender"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/weberror"
	"github.com/inkhorn/inkhorn/internal/services/web/routepath"
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

func (h handlers) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	accountID := h.accountID(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse project form", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	count, err := h.deps.Projects.CountProjects(ctx, accountID)
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	if err := h.deps.Auth.CheckProjectAllowance(ctx, accountID, count); err != nil {
		h.renderDashboardError(w, r, err)
		return
	}

	project, err := h.deps.Projects.CreateProject(ctx, projectdomain.CreateProjectInput{
		AccountID: accountID,
		URL:       strings.TrimSpace(r.FormValue("url")),
		Name:      strings.TrimSpace(r.FormValue("name")),
	})
	if err != nil {
		h.renderDashboardError(w, r, err)
		return
	}
	if err := h.deps.Auth.MarkOnboarded(ctx, accountID); err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	if err := h.deps.Projects.RequestScan(ctx, accountID, project.ID); err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	if h.deps.Recorder != nil {
		h.deps.Recorder.Capture(ctx, accountID, analyticsdomain.EventProjectCreated, map[string]any{"project_id": project.ID})
	}
	http.Redirect(w, r, routepath.AppProject(project.ID), http.StatusFound)
}

func (h handlers) renderDashboardError(w http.ResponseWriter, r *http.Request, cause error) {
	projects, err := h.deps.Projects.ListProjects(r.Context(), h.accountID(r))
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	_ = pagerender.WriteModulePage(w, r, h.deps, pagerender.ModulePage{
		Title:      "Dashboard",
		StatusCode: http.StatusBadRequest,
		Fragment:   templates.DashboardPage(projects, weberror.PublicMessage(cause)),
	})
}

func (h handlers) handleProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := h.accountID(r)
	projectID := r.PathValue("project")

	project, err := h.deps.Projects.GetProject(ctx, accountID, projectID)
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	view := templates.ProjectView{Project: project}
	if view.Suggestions, err = h.deps.Content.ListSuggestions(ctx, accountID, projectID, false); err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	if view.Posts, err = h.deps.Content.ListPosts(ctx, accountID, projectID); err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	if view.Keywords, view.Associated, err = h.deps.Projects.ListKeywords(ctx, accountID, projectID); err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	if view.Competitors, err = h.deps.Projects.ListCompetitors(ctx, accountID, projectID); err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	if view.Pages, err = h.deps.Projects.ListPages(ctx, accountID, projectID); err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	_ = pagerender.WriteModulePage(w, r, h.deps, pagerender.ModulePage{
		Title:    project.Name,
		Fragment: templates.ProjectPage(view),
	})
}

func (h handlers) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	h.renderSettings(w, r, http.StatusOK, "")
}

func (h handlers) handleSettingsPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := h.accountID(r)
	projectID := r.PathValue("project")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse settings form", http.StatusBadRequest)
		return
	}
	postsPerMonth, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("posts_per_month")))
	_, err := h.deps.Publisher.ConfigureSetting(ctx, accountID, projectID, publisherapp.SettingInput{
		Endpoint:       strings.TrimSpace(r.FormValue("endpoint")),
		HeaderTemplate: r.FormValue("header_template"),
		BodyTemplate:   r.FormValue("body_template"),
		PostsPerMonth:  postsPerMonth,
	})
	if err != nil {
		if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
			weberror.WriteModuleError(w, r, err)
			return
		}
		h.renderSettings(w, r, http.StatusBadRequest, weberror.PublicMessage(err))
		return
	}
	h.renderSettings(w, r, http.StatusOK, "Settings saved.")
}

func (h handlers) renderSettings(w http.ResponseWriter, r *http.Request, statusCode int, notice string) {
	ctx := r.Context()
	accountID := h.accountID(r)
	projectID := r.PathValue("project")

	project, err := h.deps.Projects.GetProject(ctx, accountID, projectID)
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	configured := true
	setting, err := h.deps.Publisher.GetSetting(ctx, accountID, projectID)
	if apperrors.CodeOf(err) == apperrors.CodePublishEndpointMissing {
		configured = false
		setting = publisherdomain.Setting{ProjectID: projectID}
	} else if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	var submissions []publisherdomain.Submission
	if configured {
		if submissions, err = h.deps.Publisher.ListSubmissions(ctx, accountID, projectID); err != nil {
			weberror.WriteModuleError(w, r, err)
			return
		}
	}
	_ = pagerender.WriteModulePage(w, r, h.deps, pagerender.ModulePage{
		Title:      "Publishing settings",
		StatusCode: statusCode,
		Fragment:   templates.SettingsPage(project, setting, configured, submissions, notice),
	})
}
