package agent

import "encoding/json"

// Structure rules shared by every content-producing agent. Sections are
// markdown fragments that get concatenated into the final post.
const structureRules = `Formatting rules:
- Use markdown.
- Do not go deeper than h2 (##) headings.
- Never include placeholder items (insert image here, link suggestions, etc).
- Do not add a References section; weave links into the text organically.
- Do not end with a call-to-action paragraph.`

const projectAnalysisPrompt = `You analyze the scraped landing page of a website
and extract structured details that will steer SEO blog content for it.
Be factual; when a field cannot be inferred from the page, leave it empty.`

const titleSuggestionsPrompt = `You are an SEO content strategist. Given project
details and the requested content type, propose blog post titles that the
project's target audience would search for. Avoid titles the project already
has. For each title also produce a meta description under 160 characters and
2-5 target keywords.`

const titleFromIdeaPrompt = `You are an SEO content strategist. Turn the user's
raw post idea into one polished blog post title with a meta description under
160 characters and 2-5 target keywords, staying faithful to the idea.`

const outlinePrompt = `You outline an SEO blog post. Given project details and
a title suggestion, produce the ordered list of middle-section titles for the
post. Do not include Introduction or Conclusion; those are added separately.
Aim for 3 to 6 sections that together cover the title's promise.`

const researchQuestionsPrompt = `You prepare research for one section of a blog
post. Given the post title and the section title, write the single most
important factual question whose answer the section needs. Questions must be
answerable from public web sources.`

const linkSummaryPrompt = `You read one scraped web page that was found while
researching a question for a blog post section. Produce a general summary of
the page, a contextual summary focused on the section being written, and a
direct answer snippet for the research question grounded in the page. If the
page does not answer the question, say so in the answer snippet.`

const sectionSynthesisPrompt = `You write one middle section of an SEO blog
post. Use the section's research material (questions, answer snippets, link
summaries) and the prior sections for continuity. Start the section with its
h2 (##) heading. Insert researched source links organically where a claim is
grounded in them.
` + structureRules

const introConclusionPrompt = `You write the Introduction and Conclusion of an
SEO blog post whose middle sections are already written. The introduction
starts with "## Introduction" and hooks the reader; the conclusion starts with
"## Conclusion" and closes the arc without repeating every section.
` + structureRules

const postFixerPrompt = `You revise a finished blog post according to a user
instruction. Keep the overall structure and tone; apply only the requested
change. Return the full corrected markdown content.
` + structureRules

const competitorAnalysisPrompt = `You analyze the scraped landing page of a
competitor to a project. Summarize what the competitor offers, how it differs
from the project, its strengths, weaknesses, opportunities, and threats, and
its key features, benefits, and drawbacks. Leave a field empty when the page
gives no signal for it.`

const pricingStrategyPrompt = `You analyze a scraped pricing page and draft a
short pricing strategy memo: plans observed, anchoring, gaps, and one concrete
suggestion for the project.`

var projectAnalysisSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["name", "summary", "blog_theme", "founders", "key_features", "language", "target_audience_summary", "pain_points", "product_usage", "links", "proposed_keywords", "location"],
  "properties": {
    "name": {"type": "string"},
    "summary": {"type": "string"},
    "blog_theme": {"type": "string"},
    "founders": {"type": "string"},
    "key_features": {"type": "string"},
    "language": {"type": "string"},
    "target_audience_summary": {"type": "string"},
    "pain_points": {"type": "string"},
    "product_usage": {"type": "string"},
    "links": {"type": "array", "items": {"type": "string"}},
    "proposed_keywords": {"type": "array", "items": {"type": "string"}},
    "location": {"type": "string"}
  }
}`)

var titleSuggestionsSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["titles"],
  "properties": {
    "titles": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["title", "meta_description", "target_keywords"],
        "properties": {
          "title": {"type": "string"},
          "meta_description": {"type": "string"},
          "target_keywords": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`)

var outlineSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["sections"],
  "properties": {
    "sections": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["title"],
        "properties": {"title": {"type": "string"}}
      }
    }
  }
}`)

var researchQuestionsSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["questions"],
  "properties": {
    "questions": {"type": "array", "items": {"type": "string"}}
  }
}`)

var linkSummarySchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["summary", "contextual_summary", "answer_snippet"],
  "properties": {
    "summary": {"type": "string"},
    "contextual_summary": {"type": "string"},
    "answer_snippet": {"type": "string"}
  }
}`)

var sectionSynthesisSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["content"],
  "properties": {"content": {"type": "string"}}
}`)

var introConclusionSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["introduction", "conclusion"],
  "properties": {
    "introduction": {"type": "string"},
    "conclusion": {"type": "string"}
  }
}`)

var postFixerSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["content"],
  "properties": {"content": {"type": "string"}}
}`)

var competitorAnalysisSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["name", "summary", "key_differences", "strengths", "weaknesses", "opportunities", "threats", "key_features", "key_benefits", "key_drawbacks"],
  "properties": {
    "name": {"type": "string"},
    "summary": {"type": "string"},
    "key_differences": {"type": "string"},
    "strengths": {"type": "string"},
    "weaknesses": {"type": "string"},
    "opportunities": {"type": "string"},
    "threats": {"type": "string"},
    "key_features": {"type": "string"},
    "key_benefits": {"type": "string"},
    "key_drawbacks": {"type": "string"}
  }
}`)

var pricingStrategySchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["strategy"],
  "properties": {"strategy": {"type": "string"}}
}`)
