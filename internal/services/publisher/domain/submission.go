package domain

import "time"

// Submission records one delivery attempt against a project's endpoint.
type Submission struct {
	ID         string
	ProjectID  string
	PostID     string
	Endpoint   string
	StatusCode int
	Success    bool
	Error      string
	CreatedAt  time.Time
}
