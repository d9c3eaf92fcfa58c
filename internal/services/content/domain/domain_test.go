package domain

import (
	"strings"
	"testing"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
)

func TestNewTitleSuggestion(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	suggestion, err := NewTitleSuggestion("proj-1", "  Ten Widget Tips  ", ContentTypeSEO, now, func() (string, error) {
		return "sug-1", nil
	})
	if err != nil {
		t.Fatalf("NewTitleSuggestion() error = %v", err)
	}
	if suggestion.Title != "Ten Widget Tips" {
		t.Fatalf("suggestion.Title = %q, want trimmed title", suggestion.Title)
	}

	_, err = NewTitleSuggestion("proj-1", "   ", ContentTypeSEO, now, func() (string, error) { return "x", nil })
	if apperrors.CodeOf(err) != apperrors.CodeSuggestionTitleEmpty {
		t.Fatalf("CodeOf(err) = %q, want %q", apperrors.CodeOf(err), apperrors.CodeSuggestionTitleEmpty)
	}

	_, err = NewTitleSuggestion("proj-1", "Title", "newsletter", now, func() (string, error) { return "x", nil })
	if apperrors.CodeOf(err) != apperrors.CodeContentTypeInvalid {
		t.Fatalf("CodeOf(err) = %q, want %q", apperrors.CodeOf(err), apperrors.CodeContentTypeInvalid)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ten Widget Tips", "ten-widget-tips"},
		{"Café au Lait: A Guide!", "cafe-au-lait-a-guide"},
		{"  --Weird   spacing--  ", "weird-spacing"},
		{"日本語だけ", "post"},
		{strings.Repeat("very long title ", 20), "very-long-title-very-long-title-very-long-title-very-long-title-very-long-title"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"ten-widget-tips": true, "ten-widget-tips-2": true}
	got := UniqueSlug("ten-widget-tips", func(slug string) bool { return taken[slug] })
	if got != "ten-widget-tips-3" {
		t.Fatalf("UniqueSlug() = %q, want %q", got, "ten-widget-tips-3")
	}

	if got := UniqueSlug("fresh", func(string) bool { return false }); got != "fresh" {
		t.Fatalf("UniqueSlug() = %q, want %q", got, "fresh")
	}
}

func TestAssemblePost(t *testing.T) {
	sections := []Section{
		{Kind: SectionIntroduction, Content: "## Introduction\n\nHook."},
		{Kind: SectionMiddle, Content: "## First\n\nBody one."},
		{Kind: SectionMiddle, Content: ""},
		{Kind: SectionConclusion, Content: "## Conclusion\n\nWrap."},
	}
	got := AssemblePost("Ten Widget Tips", sections)
	want := "# Ten Widget Tips\n\n## Introduction\n\nHook.\n\n## First\n\nBody one.\n\n## Conclusion\n\nWrap.\n"
	if got != want {
		t.Fatalf("AssemblePost() = %q, want %q", got, want)
	}
}

func TestAssemblePostAddsMissingHeadings(t *testing.T) {
	sections := []Section{
		{Kind: SectionIntroduction, Content: "Hook without a heading."},
		{Kind: SectionMiddle, Title: "First", Content: "Body one."},
		{Kind: SectionConclusion, Content: "## Conclusion\n\nWrap."},
	}
	got := AssemblePost("Ten Widget Tips", sections)
	want := "# Ten Widget Tips\n\n## Introduction\n\nHook without a heading.\n\n## First\n\nBody one.\n\n## Conclusion\n\nWrap.\n"
	if got != want {
		t.Fatalf("AssemblePost() = %q, want %q", got, want)
	}
}
