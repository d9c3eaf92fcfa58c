// Package storage defines persistence contracts for the publisher service.
package storage

import (
	"context"

	"github.com/inkhorn/inkhorn/internal/services/publisher/domain"
)

// Store persists auto-submission settings and delivery records.
type Store interface {
	// UpsertSetting replaces a project's submission configuration.
	UpsertSetting(ctx context.Context, setting domain.Setting) error
	GetSetting(ctx context.Context, projectID string) (domain.Setting, error)
	DeleteSetting(ctx context.Context, projectID string) error

	RecordSubmission(ctx context.Context, submission domain.Submission) error
	// ListSubmissions lists a project's delivery attempts newest first.
	ListSubmissions(ctx context.Context, projectID string) ([]domain.Submission, error)
}
