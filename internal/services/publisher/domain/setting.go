// Package domain models auto-submission settings and publish cadence.
package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
)

// Setting configures how a project's posts are submitted to the user's site.
type Setting struct {
	ProjectID string
	// Endpoint receives the rendered submission as an HTTP POST.
	Endpoint string
	// HeaderTemplate holds one "Name: value" header per line. Values may use
	// the same placeholders as the body template.
	HeaderTemplate string
	// BodyTemplate is the request body with {{ title }}-style placeholders.
	BodyTemplate string
	// PostsPerMonth spaces automatic publishes across the month.
	PostsPerMonth int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSetting validates and normalizes an auto-submission configuration.
func NewSetting(projectID, endpoint, headerTemplate, bodyTemplate string, postsPerMonth int, now time.Time) (Setting, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Setting{}, apperrors.New(apperrors.CodePublishEndpointMissing, "submission endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Setting{}, apperrors.New(apperrors.CodePublishEndpointMissing,
			fmt.Sprintf("submission endpoint %q is not a valid http(s) url", endpoint))
	}
	if postsPerMonth < 0 {
		postsPerMonth = 0
	}
	return Setting{
		ProjectID:      projectID,
		Endpoint:       endpoint,
		HeaderTemplate: headerTemplate,
		BodyTemplate:   bodyTemplate,
		PostsPerMonth:  postsPerMonth,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)

// RenderTemplate substitutes {{ name }} placeholders from vars. Unknown
// placeholders render as empty strings so a typo never leaks template syntax
// to the user's endpoint.
func RenderTemplate(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return vars[name]
	})
}

// ParseHeaders renders the header template and splits it into header pairs.
// Blank lines and lines without a colon are skipped.
func ParseHeaders(headerTemplate string, vars map[string]string) map[string]string {
	headers := make(map[string]string)
	for _, line := range strings.Split(RenderTemplate(headerTemplate, vars), "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}
		headers[name] = value
	}
	return headers
}

// Due reports whether enough of the month has elapsed since the last publish
// to emit the next post. Spacing is the days of the current month divided by
// the posts-per-month target.
func Due(postsPerMonth int, lastPublished, now time.Time) bool {
	if postsPerMonth <= 0 {
		return false
	}
	if lastPublished.IsZero() {
		return true
	}
	days := daysInMonth(now)
	interval := time.Duration(days*86400/postsPerMonth) * time.Second
	return now.Sub(lastPublished) > interval
}

func daysInMonth(now time.Time) int {
	firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}
