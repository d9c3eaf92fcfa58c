package api

import (
	contentapp "github.com/inkhorn/inkhorn/internal/services/content/app"
	contentdomain "github.com/inkhorn/inkhorn/internal/services/content/domain"
)

type suggestionPayload struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	ContentType     string   `json:"content_type"`
	TargetKeywords  []string `json:"target_keywords"`
	Score           int      `json:"score"`
	Archived        bool     `json:"archived"`
}

func suggestionDTO(suggestion contentdomain.TitleSuggestion) suggestionPayload {
	return suggestionPayload{
		ID:              suggestion.ID,
		Title:           suggestion.Title,
		MetaDescription: suggestion.MetaDescription,
		ContentType:     string(suggestion.ContentType),
		TargetKeywords:  suggestion.TargetKeywords,
		Score:           suggestion.UserScore,
		Archived:        suggestion.Archived,
	}
}

func suggestionDTOs(suggestions []contentdomain.TitleSuggestion) []suggestionPayload {
	payloads := make([]suggestionPayload, 0, len(suggestions))
	for _, suggestion := range suggestions {
		payloads = append(payloads, suggestionDTO(suggestion))
	}
	return payloads
}

type sectionPayload struct {
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Written bool   `json:"written"`
}

type statusPayload struct {
	PostID          string           `json:"post_id"`
	Title           string           `json:"title"`
	Slug            string           `json:"slug"`
	Step            string           `json:"step"`
	Posted          bool             `json:"posted"`
	PendingResearch int              `json:"pending_research"`
	Sections        []sectionPayload `json:"sections"`
}

func statusDTO(status contentapp.GenerationStatus) statusPayload {
	payload := statusPayload{
		PostID:          status.Post.ID,
		Title:           status.Post.Title,
		Slug:            status.Post.Slug,
		Step:            string(status.Step),
		Posted:          status.Post.Posted,
		PendingResearch: status.PendingResearch,
		Sections:        make([]sectionPayload, 0, len(status.Sections)),
	}
	for _, section := range status.Sections {
		payload.Sections = append(payload.Sections, sectionPayload{
			Title:   section.Title,
			Kind:    string(section.Kind),
			Written: section.Written,
		})
	}
	return payload
}
