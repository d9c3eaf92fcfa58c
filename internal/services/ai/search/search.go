// Package search defines the web-search contract used to collect research links.
package search

import (
	"context"
	"time"
)

// Options bounds one research search.
type Options struct {
	// NumResults caps how many links come back.
	NumResults int
	// PublishedAfter restricts results to content published after this time.
	PublishedAfter time.Time
	// PublishedBefore restricts results to content published before this time.
	PublishedBefore time.Time
}

// Result is one discovered link.
type Result struct {
	URL         string
	Title       string
	Author      string
	PublishedAt time.Time
}

// Adapter finds web pages answering a research question.
type Adapter interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}
