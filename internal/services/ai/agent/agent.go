// Package agent defines the model-facing agent catalog.
//
// Agent definitions are intentionally metadata-first: pipeline steps pick an
// agent by name and hand it to the invocation adapter together with a rendered
// prompt; credentials and transport live entirely in the adapter.
package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Name identifies one agent in the catalog.
type Name string

const (
	// ProjectAnalysis extracts structured project details from scraped page markdown.
	ProjectAnalysis Name = "project-analysis"
	// TitleSuggestions proposes blog post titles for a project.
	TitleSuggestions Name = "title-suggestions"
	// TitleFromIdea turns a user-provided idea into a single title suggestion.
	TitleFromIdea Name = "title-from-idea"
	// Outline produces the middle-section titles for a post.
	Outline Name = "post-outline"
	// ResearchQuestions generates research questions for one outline section.
	ResearchQuestions Name = "research-questions"
	// LinkSummary summarizes one research link in the context of its question.
	LinkSummary Name = "link-summary"
	// SectionSynthesis writes one middle section from its research material.
	SectionSynthesis Name = "section-synthesis"
	// IntroConclusion writes the introduction and conclusion in one call.
	IntroConclusion Name = "intro-conclusion"
	// PostFixer revises a finished post according to a user instruction.
	PostFixer Name = "post-fixer"
	// CompetitorAnalysis summarizes a competitor page.
	CompetitorAnalysis Name = "competitor-analysis"
	// PricingStrategy drafts a pricing strategy from a scraped pricing page.
	PricingStrategy Name = "pricing-strategy"
)

// Definition is the metadata for one agent.
type Definition struct {
	Name         Name
	Model        string
	SystemPrompt string
	// OutputSchema is the strict JSON schema the provider must satisfy.
	OutputSchema json.RawMessage
}

// DefaultModel is used for every agent unless overridden per deployment.
const DefaultModel = "gpt-4o-mini"

// Catalog returns the full agent catalog keyed by name.
func Catalog() map[Name]Definition {
	defs := []Definition{
		{Name: ProjectAnalysis, Model: DefaultModel, SystemPrompt: projectAnalysisPrompt, OutputSchema: projectAnalysisSchema},
		{Name: TitleSuggestions, Model: DefaultModel, SystemPrompt: titleSuggestionsPrompt, OutputSchema: titleSuggestionsSchema},
		{Name: TitleFromIdea, Model: DefaultModel, SystemPrompt: titleFromIdeaPrompt, OutputSchema: titleSuggestionsSchema},
		{Name: Outline, Model: DefaultModel, SystemPrompt: outlinePrompt, OutputSchema: outlineSchema},
		{Name: ResearchQuestions, Model: DefaultModel, SystemPrompt: researchQuestionsPrompt, OutputSchema: researchQuestionsSchema},
		{Name: LinkSummary, Model: DefaultModel, SystemPrompt: linkSummaryPrompt, OutputSchema: linkSummarySchema},
		{Name: SectionSynthesis, Model: DefaultModel, SystemPrompt: sectionSynthesisPrompt, OutputSchema: sectionSynthesisSchema},
		{Name: IntroConclusion, Model: DefaultModel, SystemPrompt: introConclusionPrompt, OutputSchema: introConclusionSchema},
		{Name: PostFixer, Model: DefaultModel, SystemPrompt: postFixerPrompt, OutputSchema: postFixerSchema},
		{Name: CompetitorAnalysis, Model: DefaultModel, SystemPrompt: competitorAnalysisPrompt, OutputSchema: competitorAnalysisSchema},
		{Name: PricingStrategy, Model: DefaultModel, SystemPrompt: pricingStrategyPrompt, OutputSchema: pricingStrategySchema},
	}
	catalog := make(map[Name]Definition, len(defs))
	for _, def := range defs {
		catalog[def.Name] = def
	}
	return catalog
}

// Lookup resolves one agent definition by name.
func Lookup(name Name) (Definition, error) {
	trimmed := Name(strings.TrimSpace(string(name)))
	def, ok := Catalog()[trimmed]
	if !ok {
		return Definition{}, fmt.Errorf("unknown agent %q", name)
	}
	return def, nil
}
