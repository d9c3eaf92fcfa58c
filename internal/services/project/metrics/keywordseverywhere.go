// Package metrics fetches keyword search metrics from the Keywords
// Everywhere API.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inkhorn/inkhorn/internal/services/project/domain"
)

// Provider fetches metrics for one keyword.
type Provider interface {
	FetchMetrics(ctx context.Context, keyword domain.Keyword) (domain.Keyword, error)
}

// Config configures the Keywords Everywhere endpoint and HTTP behavior.
type Config struct {
	DataURL    string
	APIKey     string
	Currency   string
	HTTPClient *http.Client
}

type keywordsEverywhere struct {
	cfg Config
}

// NewKeywordsEverywhere builds a keyword metrics provider over the Keywords
// Everywhere API.
func NewKeywordsEverywhere(cfg Config) Provider {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if strings.TrimSpace(cfg.DataURL) == "" {
		cfg.DataURL = "https://api.keywordseverywhere.com/v1/get_keyword_data"
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = "usd"
	}
	return &keywordsEverywhere{cfg: cfg}
}

// FetchMetrics enriches one keyword with volume, CPC, competition, and the
// monthly trend series.
func (p *keywordsEverywhere) FetchMetrics(ctx context.Context, keyword domain.Keyword) (domain.Keyword, error) {
	apiKey := strings.TrimSpace(p.cfg.APIKey)
	if apiKey == "" {
		return domain.Keyword{}, fmt.Errorf("api key is required")
	}
	text := strings.TrimSpace(keyword.Text)
	if text == "" {
		return domain.Keyword{}, fmt.Errorf("keyword text is required")
	}

	form := url.Values{}
	form.Set("country", keyword.Country)
	form.Set("currency", p.cfg.Currency)
	form.Set("dataSource", string(keyword.DataSource))
	form.Add("kw[]", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.DataURL, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Keyword{}, fmt.Errorf("build metrics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return domain.Keyword{}, fmt.Errorf("metrics request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		errBody, readErr := io.ReadAll(io.LimitReader(res.Body, 4096))
		if readErr != nil {
			return domain.Keyword{}, fmt.Errorf("read metrics error body: %w", readErr)
		}
		return domain.Keyword{}, fmt.Errorf("metrics request status %d: %s", res.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var payload struct {
		Data []struct {
			Keyword string `json:"keyword"`
			Volume  int    `json:"vol"`
			CPC     struct {
				Currency string `json:"currency"`
				Value    string `json:"value"`
			} `json:"cpc"`
			Competition float64 `json:"competition"`
			Trend       []struct {
				Month string `json:"month"`
				Year  int    `json:"year"`
				Value int    `json:"value"`
			} `json:"trend"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return domain.Keyword{}, fmt.Errorf("decode metrics response: %w", err)
	}
	if len(payload.Data) == 0 {
		return domain.Keyword{}, fmt.Errorf("no metrics returned for %q", text)
	}

	entry := payload.Data[0]
	keyword.Volume = entry.Volume
	keyword.CPCCurrency = entry.CPC.Currency
	keyword.Competition = entry.Competition
	if value := strings.TrimSpace(entry.CPC.Value); value != "" {
		if _, err := fmt.Sscanf(value, "%f", &keyword.CPCValue); err != nil {
			return domain.Keyword{}, fmt.Errorf("parse cpc value %q: %w", value, err)
		}
	}
	keyword.Trend = keyword.Trend[:0]
	for _, point := range entry.Trend {
		keyword.Trend = append(keyword.Trend, domain.TrendPoint{
			Month: point.Month,
			Year:  point.Year,
			Value: point.Value,
		})
	}
	return keyword, nil
}
