package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// JinaConfig configures the Jina reader endpoint and HTTP behavior.
type JinaConfig struct {
	ReaderURL  string
	APIKey     string
	HTTPClient *http.Client
}

type jinaAdapter struct {
	cfg JinaConfig
}

// NewJinaAdapter builds a reader adapter over the Jina reader API.
func NewJinaAdapter(cfg JinaConfig) Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.ReaderURL) == "" {
		cfg.ReaderURL = "https://r.jina.ai"
	}
	return &jinaAdapter{cfg: cfg}
}

func (a *jinaAdapter) Fetch(ctx context.Context, pageURL string) (Page, error) {
	pageURL = strings.TrimSpace(pageURL)
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return Page{}, fmt.Errorf("page url must be absolute: %q", pageURL)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(a.cfg.ReaderURL), "/") + "/" + pageURL
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build reader request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if apiKey := strings.TrimSpace(a.cfg.APIKey); apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	res, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("reader request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(res.Body, 4096))
		if readErr != nil {
			return Page{}, fmt.Errorf("read reader error body: %w", readErr)
		}
		return Page{}, fmt.Errorf("reader request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Content     string `json:"content"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return Page{}, fmt.Errorf("decode reader response: %w", err)
	}
	return Page{
		Title:       strings.TrimSpace(payload.Data.Title),
		Description: strings.TrimSpace(payload.Data.Description),
		Markdown:    payload.Data.Content,
	}, nil
}
