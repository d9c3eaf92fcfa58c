package api

import (
	"net/http"
	"strings"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	analyticsdomain "github.com/inkhorn/inkhorn/internal/services/analytics/domain"
	contentdomain "github.com/inkhorn/inkhorn/internal/services/content/domain"
	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/httpjson"
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

func (h handlers) capture(r *http.Request, name string, properties map[string]any) {
	if h.deps.Recorder != nil {
		h.deps.Recorder.Capture(r.Context(), h.accountID(r), name, properties)
	}
}

func (h handlers) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Projects.DeleteProject(r.Context(), h.accountID(r), r.PathValue("project")); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handlers) handleScan(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Projects.RequestScan(r.Context(), h.accountID(r), r.PathValue("project"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusAccepted, map[string]string{"status": "scanning"})
}

func (h handlers) handleGenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ContentType string `json:"content_type"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeContentTypeInvalid, "invalid request body"))
		return
	}
	suggestions, err := h.deps.Content.GenerateSuggestions(r.Context(), h.accountID(r), r.PathValue("project"), contentdomain.ContentType(body.ContentType))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"suggestions": suggestionDTOs(suggestions)})
}

func (h handlers) handleGenerateFromIdea(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Idea        string `json:"idea"`
		ContentType string `json:"content_type"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeSuggestionTitleEmpty, "invalid request body"))
		return
	}
	suggestion, err := h.deps.Content.GenerateFromIdea(r.Context(), h.accountID(r), r.PathValue("project"), body.Idea, contentdomain.ContentType(body.ContentType))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"suggestion": suggestionDTO(suggestion)})
}

func (h handlers) handleToggles(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AutoGeneration bool `json:"auto_generation"`
		AutoSubmission bool `json:"auto_submission"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeProjectNotFound, "invalid request body"))
		return
	}
	project, err := h.deps.Projects.UpdateToggles(r.Context(), h.accountID(r), r.PathValue("project"), body.AutoGeneration, body.AutoSubmission)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{
		"auto_generation": project.AutoGeneration,
		"auto_submission": project.AutoSubmission,
	})
}

func (h handlers) handleAddCompetitor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeProjectURLInvalid, "invalid request body"))
		return
	}
	competitor, err := h.deps.Projects.AddCompetitor(r.Context(), h.accountID(r), r.PathValue("project"), body.URL, body.Name)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]string{"id": competitor.ID, "name": competitor.Name, "url": competitor.URL})
}

func (h handlers) handleRemoveCompetitor(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Projects.RemoveCompetitor(r.Context(), h.accountID(r), r.PathValue("project"), r.PathValue("competitor"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusNoContent, nil)
}

func (h handlers) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeKeywordTextEmpty, "invalid request body"))
		return
	}
	keyword, err := h.deps.Projects.AddKeyword(r.Context(), h.accountID(r), r.PathValue("project"), body.Text)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]any{"id": keyword.ID, "text": keyword.Text, "volume": keyword.Volume})
}

func (h handlers) handleToggleKeyword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Use bool `json:"use"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeKeywordNotFound, "invalid request body"))
		return
	}
	err := h.deps.Projects.ToggleKeyword(r.Context(), h.accountID(r), r.PathValue("project"), r.PathValue("keyword"), body.Use)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"use": body.Use})
}

func (h handlers) handleRemoveKeyword(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Projects.RemoveKeyword(r.Context(), h.accountID(r), r.PathValue("project"), r.PathValue("keyword"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusNoContent, nil)
}

func (h handlers) handleAddPage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeProjectURLInvalid, "invalid request body"))
		return
	}
	page, err := h.deps.Projects.AddPage(r.Context(), h.accountID(r), r.PathValue("project"), body.URL)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]string{"id": page.ID, "url": page.URL, "type": string(page.Type)})
}

func (h handlers) handleTestSubmit(w http.ResponseWriter, r *http.Request) {
	submission, err := h.deps.Publisher.TestSubmit(r.Context(), h.accountID(r), r.PathValue("project"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"success":     submission.Success,
		"status_code": submission.StatusCode,
		"error":       submission.Error,
	})
}

func (h handlers) handleScoreSuggestion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Score int `json:"score"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeSuggestionScoreInvalid, "invalid request body"))
		return
	}
	suggestion, err := h.deps.Content.ScoreSuggestion(r.Context(), h.accountID(r), r.PathValue("suggestion"), body.Score)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int{"score": suggestion.UserScore})
}

func (h handlers) handleArchiveSuggestion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Archived bool `json:"archived"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeSuggestionNotFound, "invalid request body"))
		return
	}
	suggestion, err := h.deps.Content.SetSuggestionArchived(r.Context(), h.accountID(r), r.PathValue("suggestion"), body.Archived)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]bool{"archived": suggestion.Archived})
}

func (h handlers) handleStartGeneration(w http.ResponseWriter, r *http.Request) {
	post, err := h.deps.Content.StartGeneration(r.Context(), h.accountID(r), r.PathValue("suggestion"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	h.capture(r, analyticsdomain.EventGenerationStarted, map[string]any{"post_id": post.ID})
	httpjson.Write(w, http.StatusAccepted, map[string]string{"post_id": post.ID, "slug": post.Slug})
}

func (h handlers) handleGenerationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.deps.Content.GenerationStatus(r.Context(), h.accountID(r), r.PathValue("post"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, statusDTO(status))
}

func (h handlers) handlePublishPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.deps.Publisher.PublishPost(r.Context(), h.accountID(r), r.PathValue("post"))
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	h.capture(r, analyticsdomain.EventPostPublished, map[string]any{"post_id": post.ID})
	httpjson.Write(w, http.StatusOK, map[string]any{"posted": post.Posted, "posted_at": post.PostedAt.UnixMilli()})
}

func (h handlers) handleFixPost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Instruction string `json:"instruction"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodePostNotReady, "invalid request body"))
		return
	}
	post, err := h.deps.Content.FixPost(r.Context(), h.accountID(r), r.PathValue("post"), body.Instruction)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"content": post.Content})
}

func (h handlers) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := httpjson.Decode(r, &body); err != nil {
		httpjson.WriteError(w, apperrors.New(apperrors.CodeContentTypeInvalid, "invalid request body"))
		return
	}
	message := strings.TrimSpace(body.Message)
	if message != "" {
		h.capture(r, analyticsdomain.EventFeedbackSubmitted, map[string]any{"message": message})
	}
	httpjson.Write(w, http.StatusAccepted, map[string]string{"status": "received"})
}
