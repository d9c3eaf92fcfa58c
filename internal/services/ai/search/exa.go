package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ExaConfig configures the Exa search endpoint and HTTP behavior.
type ExaConfig struct {
	SearchURL  string
	APIKey     string
	HTTPClient *http.Client
}

type exaAdapter struct {
	cfg ExaConfig
}

// NewExaAdapter builds a search adapter over the Exa search API.
func NewExaAdapter(cfg ExaConfig) Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.SearchURL) == "" {
		cfg.SearchURL = "https://api.exa.ai/search"
	}
	return &exaAdapter{cfg: cfg}
}

func (a *exaAdapter) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	apiKey := strings.TrimSpace(a.cfg.APIKey)
	query = strings.TrimSpace(query)
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	numResults := opts.NumResults
	if numResults <= 0 {
		numResults = 2
	}

	body := map[string]any{
		"query":       query,
		"num_results": numResults,
		"type":        "auto",
	}
	if !opts.PublishedAfter.IsZero() {
		after := opts.PublishedAfter.UTC().Format(time.RFC3339)
		body["start_published_date"] = after
		body["start_crawl_date"] = after
	}
	if !opts.PublishedBefore.IsZero() {
		before := opts.PublishedBefore.UTC().Format(time.RFC3339)
		body["end_published_date"] = before
		body["end_crawl_date"] = before
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.SearchURL, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)

	res, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, readErr := io.ReadAll(io.LimitReader(res.Body, 4096))
		if readErr != nil {
			return nil, fmt.Errorf("read search error body: %w", readErr)
		}
		return nil, fmt.Errorf("search request status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var payload struct {
		Results []struct {
			URL           string `json:"url"`
			Title         string `json:"title"`
			Author        string `json:"author"`
			PublishedDate string `json:"publishedDate"`
		} `json:"results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]Result, 0, len(payload.Results))
	for _, item := range payload.Results {
		url := strings.TrimSpace(item.URL)
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}
		// Overlong URLs break downstream storage columns; skip them.
		if len(url) > 200 {
			continue
		}
		result := Result{
			URL:    url,
			Title:  strings.TrimSpace(item.Title),
			Author: strings.TrimSpace(item.Author),
		}
		if raw := strings.TrimSpace(item.PublishedDate); raw != "" {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				result.PublishedAt = parsed.UTC()
			}
		}
		results = append(results, result)
	}
	return results, nil
}
