// Package domain holds project, competitor, and keyword models.
package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
)

// Type classifies the kind of website a project tracks.
type Type string

const (
	TypeSaaS              Type = "saas"
	TypeHospitality       Type = "hospitality"
	TypeJobBoard          Type = "job_board"
	TypeLegalServices     Type = "legal_services"
	TypeMarketing         Type = "marketing"
	TypeNewsAndMagazine   Type = "news_and_magazine"
	TypeOnlineTools       Type = "online_tools"
	TypeEcommerce         Type = "ecommerce"
	TypeEducational       Type = "educational"
	TypeEntertainment     Type = "entertainment"
	TypeFinancialServices Type = "financial_services"
	TypeHealthAndWellness Type = "health_and_wellness"
	TypePersonalBlog      Type = "personal_blog"
	TypeRealEstate        Type = "real_estate"
	TypeSports            Type = "sports"
	TypeTravelAndTourism  Type = "travel_and_tourism"
	TypeOther             Type = "other"
)

// Types lists every supported project type in display order.
func Types() []Type {
	return []Type{
		TypeSaaS,
		TypeHospitality,
		TypeJobBoard,
		TypeLegalServices,
		TypeMarketing,
		TypeNewsAndMagazine,
		TypeOnlineTools,
		TypeEcommerce,
		TypeEducational,
		TypeEntertainment,
		TypeFinancialServices,
		TypeHealthAndWellness,
		TypePersonalBlog,
		TypeRealEstate,
		TypeSports,
		TypeTravelAndTourism,
		TypeOther,
	}
}

// ValidType reports whether t is a known project type.
func ValidType(t Type) bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Scraped holds page content captured by the reader adapter.
type Scraped struct {
	Title       string
	Description string
	Markdown    string
	ScrapedAt   time.Time
}

// Analysis holds project details produced by the analysis agent.
type Analysis struct {
	BlogTheme        string
	Founders         string
	KeyFeatures      string
	Language         string
	TargetAudience   string
	PainPoints       string
	ProductUsage     string
	Links            string
	Style            string
	ProposedKeywords string
	Location         string
	AnalyzedAt       time.Time
}

// Project is one website tracked by an account.
type Project struct {
	ID         string
	AccountID  string
	URL        string
	Name       string
	Type       Type
	Summary    string
	SitemapURL string

	AutoGeneration bool
	AutoSubmission bool

	Scraped  Scraped
	Analysis Analysis

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Scanned reports whether the project homepage was fetched at least once.
func (p Project) Scanned() bool {
	return !p.Scraped.ScrapedAt.IsZero()
}

// Analyzed reports whether the analysis agent populated project details.
func (p Project) Analyzed() bool {
	return !p.Analysis.AnalyzedAt.IsZero()
}

// CreateProjectInput captures a new project submission.
type CreateProjectInput struct {
	AccountID string
	URL       string
	Name      string
	Type      Type
}

// NewProject validates input and builds a project with defaults applied.
func NewProject(input CreateProjectInput, now time.Time, generateID func() (string, error)) (Project, error) {
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return Project{}, fmt.Errorf("account id is required")
	}
	normalizedURL, err := NormalizeURL(input.URL)
	if err != nil {
		return Project{}, err
	}
	projectType := input.Type
	if projectType == "" {
		projectType = TypeSaaS
	}
	if !ValidType(projectType) {
		return Project{}, apperrors.New(apperrors.CodeProjectTypeInvalid, fmt.Sprintf("unknown project type %q", projectType))
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = hostOf(normalizedURL)
	}
	projectID, err := generateID()
	if err != nil {
		return Project{}, fmt.Errorf("generate project id: %w", err)
	}
	return Project{
		ID:             projectID,
		AccountID:      accountID,
		URL:            normalizedURL,
		Name:           name,
		Type:           projectType,
		AutoGeneration: true,
		Analysis:       Analysis{Location: "Global"},
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}, nil
}

// NormalizeURL validates an http(s) URL and strips trailing slashes and
// whitespace.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", apperrors.New(apperrors.CodeProjectURLEmpty, "url is required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeProjectURLInvalid, "parse url", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", apperrors.New(apperrors.CodeProjectURLInvalid, fmt.Sprintf("unsupported url scheme %q", parsed.Scheme))
	}
	if parsed.Host == "" {
		return "", apperrors.New(apperrors.CodeProjectURLInvalid, "url host is required")
	}
	parsed.Fragment = ""
	return strings.TrimSuffix(parsed.String(), "/"), nil
}

func hostOf(normalizedURL string) string {
	parsed, err := url.Parse(normalizedURL)
	if err != nil || parsed.Host == "" {
		return normalizedURL
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}
