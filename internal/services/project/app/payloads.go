package app

// ScanPayload drives project-level tasks (scan, analyze, sitemap, keywords).
type ScanPayload struct {
	ProjectID string `json:"project_id"`
}

// PagePayload drives per-page tasks (page scan, pricing strategy).
type PagePayload struct {
	PageID string `json:"page_id"`
}

// CompetitorPayload drives per-competitor scan and analysis tasks.
type CompetitorPayload struct {
	CompetitorID string `json:"competitor_id"`
}
