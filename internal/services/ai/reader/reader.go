// Package reader defines the page-fetch contract used by scans and research scraping.
package reader

import "context"

// Page is the readable form of one fetched web page.
type Page struct {
	Title       string
	Description string
	Markdown    string
}

// Adapter fetches a web page as markdown.
type Adapter interface {
	Fetch(ctx context.Context, url string) (Page, error)
}
