package app

// PostPayload addresses a whole-post pipeline task.
type PostPayload struct {
	PostID string `json:"post_id"`
}

// SectionPayload addresses one section's research planning.
type SectionPayload struct {
	SectionID string `json:"section_id"`
}

// QuestionPayload addresses one question's web search.
type QuestionPayload struct {
	QuestionID string `json:"question_id"`
}

// LinkPayload addresses one research link's scrape or analysis.
type LinkPayload struct {
	LinkID string `json:"link_id"`
}
