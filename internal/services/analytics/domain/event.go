// Package domain defines the analytics event taxonomy and account state
// machine.
package domain

import (
	"encoding/json"
	"time"
)

// TaxonomyVersion is stamped into every captured event so downstream
// consumers can tell which schema produced it.
const TaxonomyVersion = 1

// Canonical event names.
const (
	EventSignupCompleted     = "signup_completed"
	EventProjectCreated      = "project_created"
	EventProjectDeleted      = "project_deleted"
	EventScanCompleted       = "scan_completed"
	EventGenerationStarted   = "generation_started"
	EventGenerationCompleted = "generation_completed"
	EventPostPublished       = "post_published"
	EventFeedbackSubmitted   = "feedback_submitted"
)

var eventNames = map[string]bool{
	EventSignupCompleted:     true,
	EventProjectCreated:      true,
	EventProjectDeleted:      true,
	EventScanCompleted:       true,
	EventGenerationStarted:   true,
	EventGenerationCompleted: true,
	EventPostPublished:       true,
	EventFeedbackSubmitted:   true,
}

// deprecatedAliases maps retired event names to their canonical replacement.
var deprecatedAliases = map[string]string{
	"user_signed_up": EventSignupCompleted,
	"blog_post_sent": EventPostPublished,
}

// NormalizeEventName resolves deprecated aliases to the canonical name.
// Unknown names pass through unchanged.
func NormalizeEventName(name string) string {
	if canonical, ok := deprecatedAliases[name]; ok {
		return canonical
	}
	return name
}

// KnownEventName reports whether the name, after normalization, belongs to
// the taxonomy.
func KnownEventName(name string) bool {
	return eventNames[NormalizeEventName(name)]
}

// EventNames returns the canonical taxonomy, useful for docs and tests.
func EventNames() []string {
	names := make([]string, 0, len(eventNames))
	for name := range eventNames {
		names = append(names, name)
	}
	return names
}

// Event is one captured analytics event.
type Event struct {
	ID         string
	AccountID  string
	Name       string
	Properties json.RawMessage
	CreatedAt  time.Time
}
