// Package domain holds title suggestions, posts, and research models.
package domain

import (
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
)

// ContentType steers what kind of post a suggestion targets.
type ContentType string

const (
	ContentTypeSEO     ContentType = "seo"
	ContentTypeSharing ContentType = "sharing"
)

// ContentTypes lists the supported content types.
func ContentTypes() []ContentType {
	return []ContentType{ContentTypeSEO, ContentTypeSharing}
}

// ValidContentType reports whether t is a known content type.
func ValidContentType(t ContentType) bool {
	return t == ContentTypeSEO || t == ContentTypeSharing
}

// TitleSuggestion is one proposed blog post title for a project.
type TitleSuggestion struct {
	ID              string
	ProjectID       string
	Title           string
	ContentType     ContentType
	MetaDescription string
	TargetKeywords  []string
	// Prompt records the user idea this suggestion came from, when any.
	Prompt    string
	UserScore int
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTitleSuggestion validates and builds a suggestion.
func NewTitleSuggestion(projectID, title string, contentType ContentType, now time.Time, generateID func() (string, error)) (TitleSuggestion, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return TitleSuggestion{}, apperrors.New(apperrors.CodeSuggestionTitleEmpty, "suggestion title is required")
	}
	if !ValidContentType(contentType) {
		return TitleSuggestion{}, apperrors.New(apperrors.CodeContentTypeInvalid, "unknown content type")
	}
	suggestionID, err := generateID()
	if err != nil {
		return TitleSuggestion{}, err
	}
	return TitleSuggestion{
		ID:          suggestionID,
		ProjectID:   projectID,
		Title:       title,
		ContentType: contentType,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// ValidScore reports whether score is one of -1, 0, 1.
func ValidScore(score int) bool {
	return score >= -1 && score <= 1
}
