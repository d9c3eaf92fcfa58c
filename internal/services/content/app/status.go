package app

import (
	"context"
	"strings"

	"github.com/inkhorn/inkhorn/internal/services/content/domain"
)

// SectionProgress reports one section's place in the pipeline.
type SectionProgress struct {
	SectionID string
	Title     string
	Kind      domain.SectionKind
	Written   bool
}

// GenerationStatus is the poll response for one running or finished
// generation.
type GenerationStatus struct {
	Post     domain.Post
	Step     domain.Step
	Sections []SectionProgress
	// PendingResearch counts unsearched questions and unanalyzed links.
	PendingResearch int
}

// GenerationStatus derives where a post's generation stands from what has
// been persisted so far.
func (a *App) GenerationStatus(ctx context.Context, accountID, postID string) (GenerationStatus, error) {
	post, err := a.GetPost(ctx, accountID, postID)
	if err != nil {
		return GenerationStatus{}, err
	}
	sections, err := a.store.ListSections(ctx, postID)
	if err != nil {
		return GenerationStatus{}, err
	}

	status := GenerationStatus{Post: post}
	for _, section := range sections {
		status.Sections = append(status.Sections, SectionProgress{
			SectionID: section.ID,
			Title:     section.Title,
			Kind:      section.Kind,
			Written:   strings.TrimSpace(section.Content) != "",
		})
	}

	switch {
	case post.Generated():
		status.Step = domain.StepComplete
	case len(sections) == 0:
		status.Step = domain.StepOutline
	default:
		pending, err := a.store.CountUnprocessedLinks(ctx, postID)
		if err != nil {
			return GenerationStatus{}, err
		}
		status.PendingResearch = pending
		planned, err := a.questionsPlanned(ctx, sections)
		if err != nil {
			return GenerationStatus{}, err
		}
		switch {
		case pending > 0 || !planned:
			status.Step = domain.StepResearch
		case middlesWritten(sections):
			status.Step = domain.StepFinalize
		default:
			status.Step = domain.StepSynthesis
		}
	}
	return status, nil
}

// questionsPlanned reports whether every middle section has research
// questions yet. The pending count reads zero between outline and question
// creation even though research has not started.
func (a *App) questionsPlanned(ctx context.Context, sections []domain.Section) (bool, error) {
	for _, section := range sections {
		if section.Kind != domain.SectionMiddle {
			continue
		}
		questions, err := a.store.ListQuestions(ctx, section.ID)
		if err != nil {
			return false, err
		}
		if len(questions) == 0 {
			return false, nil
		}
	}
	return true, nil
}

func middlesWritten(sections []domain.Section) bool {
	for _, section := range sections {
		if section.Kind == domain.SectionMiddle && strings.TrimSpace(section.Content) == "" {
			return false
		}
	}
	return true
}
