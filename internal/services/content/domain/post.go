package domain

import (
	"strings"
	"time"
)

// Step names the pipeline stage a post generation is in. Steps are derived
// from persisted data, never stored, so a crashed run resumes from the same
// step it was in.
type Step string

const (
	StepOutline   Step = "outline"
	StepResearch  Step = "research"
	StepSynthesis Step = "synthesis"
	StepFinalize  Step = "finalize"
	StepComplete  Step = "complete"
)

// Post is one generated blog post.
type Post struct {
	ID           string
	ProjectID    string
	SuggestionID string
	Title        string
	Description  string
	Slug         string
	Tags         string
	// Content is empty until the assemble step concatenates the sections.
	Content   string
	Posted    bool
	PostedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Generated reports whether the pipeline finished assembling the post.
func (p Post) Generated() bool {
	return strings.TrimSpace(p.Content) != ""
}

// SectionKind orders a section within a post.
type SectionKind string

const (
	SectionIntroduction SectionKind = "introduction"
	SectionMiddle       SectionKind = "middle"
	SectionConclusion   SectionKind = "conclusion"
)

// Section is one ordered part of a post. Position 0 is the introduction and
// the highest position is the conclusion.
type Section struct {
	ID        string
	PostID    string
	Position  int
	Kind      SectionKind
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResearchQuestion is the factual question one middle section needs answered.
type ResearchQuestion struct {
	ID        string
	SectionID string
	Text      string
	// Searched is set once the search step ran, even when it found nothing.
	Searched  bool
	CreatedAt time.Time
}

// ResearchLink is one web source found for a research question.
type ResearchLink struct {
	ID          string
	QuestionID  string
	URL         string
	Title       string
	Author      string
	PublishedAt time.Time

	// Scraped content may legitimately be empty when the fetch failed; the
	// link still counts as processed.
	Content   string
	ScrapedAt time.Time

	Summary           string
	ContextualSummary string
	AnswerSnippet     string
	AnalyzedAt        time.Time

	CreatedAt time.Time
}

// Processed reports whether the link passed through scrape and analysis.
func (l ResearchLink) Processed() bool {
	return !l.AnalyzedAt.IsZero()
}

// AssemblePost concatenates ordered section contents under an H1 title.
// Sections whose content does not already open with a markdown heading get
// one from their title, so the document shape never depends on how the
// agent formatted its output.
func AssemblePost(title string, sections []Section) string {
	var b strings.Builder
	b.WriteString("# " + strings.TrimSpace(title) + "\n\n")
	for _, section := range sections {
		content := strings.TrimSpace(section.Content)
		if content == "" {
			continue
		}
		if !strings.HasPrefix(content, "##") {
			b.WriteString("## " + sectionHeading(section) + "\n\n")
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func sectionHeading(section Section) string {
	switch section.Kind {
	case SectionIntroduction:
		return "Introduction"
	case SectionConclusion:
		return "Conclusion"
	}
	return strings.TrimSpace(section.Title)
}
