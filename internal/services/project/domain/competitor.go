package domain

import "time"

// CompetitorAnalysis holds the structured comparison produced by the
// competitor-analysis agent.
type CompetitorAnalysis struct {
	Summary        string
	KeyDifferences string
	Strengths      string
	Weaknesses     string
	Opportunities  string
	Threats        string
	KeyFeatures    string
	KeyBenefits    string
	KeyDrawbacks   string
	AnalyzedAt     time.Time
}

// Competitor is one rival site tracked against a project.
type Competitor struct {
	ID          string
	ProjectID   string
	Name        string
	URL         string
	Description string

	Scraped  Scraped
	Analysis CompetitorAnalysis

	CreatedAt time.Time
	UpdatedAt time.Time
}
