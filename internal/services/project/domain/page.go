package domain

import (
	"strings"
	"time"
)

// PageType classifies a discovered project page.
type PageType string

const (
	PageTypeBlog           PageType = "blog"
	PageTypeAbout          PageType = "about"
	PageTypeContact        PageType = "contact"
	PageTypeFAQ            PageType = "faq"
	PageTypeTermsOfService PageType = "terms_of_service"
	PageTypePrivacyPolicy  PageType = "privacy_policy"
	PageTypePricing        PageType = "pricing"
	PageTypeOther          PageType = "other"
)

// PageSource records how a project page was discovered.
type PageSource string

const (
	PageSourceSitemap PageSource = "sitemap"
	PageSourceManual  PageSource = "manual"
	PageSourceAgent   PageSource = "agent"
)

// Page is one discovered page of a project site.
type Page struct {
	ID        string
	ProjectID string
	URL       string
	Source    PageSource
	Type      PageType
	TypeGuess string
	Summary   string

	Scraped Scraped

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GuessPageType classifies a URL path by its last segments. The agent refines
// this later; the guess only routes pricing pages to strategy analysis early.
func GuessPageType(pageURL string) PageType {
	lowered := strings.ToLower(pageURL)
	switch {
	case strings.Contains(lowered, "pricing") || strings.Contains(lowered, "plans"):
		return PageTypePricing
	case strings.Contains(lowered, "blog") || strings.Contains(lowered, "articles") || strings.Contains(lowered, "posts"):
		return PageTypeBlog
	case strings.Contains(lowered, "about"):
		return PageTypeAbout
	case strings.Contains(lowered, "contact"):
		return PageTypeContact
	case strings.Contains(lowered, "faq"):
		return PageTypeFAQ
	case strings.Contains(lowered, "terms"):
		return PageTypeTermsOfService
	case strings.Contains(lowered, "privacy"):
		return PageTypePrivacyPolicy
	default:
		return PageTypeOther
	}
}
