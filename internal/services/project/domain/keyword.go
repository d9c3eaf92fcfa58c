package domain

import (
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
)

// KeywordDataSource names where keyword metrics came from.
type KeywordDataSource string

const (
	DataSourceKeywordPlanner KeywordDataSource = "gkp"
	DataSourceClickstream    KeywordDataSource = "cli"
)

// TrendPoint is one month of search volume for a keyword.
type TrendPoint struct {
	Month string
	Year  int
	Value int
}

// Keyword is a search term with metrics, shared across projects.
type Keyword struct {
	ID          string
	Text        string
	Country     string
	DataSource  KeywordDataSource
	Volume      int
	CPCCurrency string
	CPCValue    float64
	Competition float64
	Trend       []TrendPoint
	FetchedAt   time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectKeyword associates a keyword with a project.
type ProjectKeyword struct {
	ProjectID    string
	KeywordID    string
	Use          bool
	AssociatedAt time.Time
}

// NormalizeKeywordText lowercases and collapses whitespace in a keyword.
func NormalizeKeywordText(text string) (string, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if normalized == "" {
		return "", apperrors.New(apperrors.CodeKeywordTextEmpty, "keyword text is required")
	}
	return normalized, nil
}

// SplitProposedKeywords splits an agent's comma or newline separated keyword
// list into normalized, de-duplicated terms.
func SplitProposedKeywords(proposed string) []string {
	fields := strings.FieldsFunc(proposed, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	seen := make(map[string]bool, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, field := range fields {
		normalized, err := NormalizeKeywordText(field)
		if err != nil || seen[normalized] {
			continue
		}
		seen[normalized] = true
		keywords = append(keywords, normalized)
	}
	return keywords
}
