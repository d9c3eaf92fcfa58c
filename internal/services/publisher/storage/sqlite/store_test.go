package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitedb"
	"github.com/inkhorn/inkhorn/internal/services/publisher/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	sqlDB, err := sqlitedb.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	store, err := New(sqlDB)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return store
}

func TestSettingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

	setting, err := domain.NewSetting("proj-1", "https://example.com/publish", "X-Key: abc", `{"title": "{{ title }}"}`, 4, now)
	if err != nil {
		t.Fatalf("NewSetting() error = %v", err)
	}
	if err := store.UpsertSetting(ctx, setting); err != nil {
		t.Fatalf("UpsertSetting() error = %v", err)
	}

	got, err := store.GetSetting(ctx, "proj-1")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if diff := cmp.Diff(setting, got); diff != "" {
		t.Fatalf("setting mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertSettingReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

	first, err := domain.NewSetting("proj-1", "https://example.com/old", "", "", 2, now)
	if err != nil {
		t.Fatalf("NewSetting() error = %v", err)
	}
	if err := store.UpsertSetting(ctx, first); err != nil {
		t.Fatalf("UpsertSetting() error = %v", err)
	}

	second, err := domain.NewSetting("proj-1", "https://example.com/new", "", "", 8, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("NewSetting() error = %v", err)
	}
	if err := store.UpsertSetting(ctx, second); err != nil {
		t.Fatalf("UpsertSetting() replace error = %v", err)
	}

	got, err := store.GetSetting(ctx, "proj-1")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if got.Endpoint != "https://example.com/new" || got.PostsPerMonth != 8 {
		t.Fatalf("setting after upsert = %+v", got)
	}
}

func TestGetSettingMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSetting(context.Background(), "proj-none")
	if apperrors.CodeOf(err) != apperrors.CodePublishEndpointMissing {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodePublishEndpointMissing)
	}
}

func TestDeleteSetting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

	setting, err := domain.NewSetting("proj-1", "https://example.com/publish", "", "", 4, now)
	if err != nil {
		t.Fatalf("NewSetting() error = %v", err)
	}
	if err := store.UpsertSetting(ctx, setting); err != nil {
		t.Fatalf("UpsertSetting() error = %v", err)
	}
	if err := store.DeleteSetting(ctx, "proj-1"); err != nil {
		t.Fatalf("DeleteSetting() error = %v", err)
	}

	_, err = store.GetSetting(ctx, "proj-1")
	if apperrors.CodeOf(err) != apperrors.CodePublishEndpointMissing {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodePublishEndpointMissing)
	}
}

func TestSubmissionsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		submissionID, err := id.NewID()
		if err != nil {
			t.Fatalf("NewID() error = %v", err)
		}
		err = store.RecordSubmission(ctx, domain.Submission{
			ID:         submissionID,
			ProjectID:  "proj-1",
			PostID:     "post-1",
			Endpoint:   "https://example.com/publish",
			StatusCode: 200 + i,
			Success:    i == 0,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordSubmission() error = %v", err)
		}
	}

	submissions, err := store.ListSubmissions(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListSubmissions() error = %v", err)
	}
	if len(submissions) != 3 {
		t.Fatalf("len(submissions) = %d, want 3", len(submissions))
	}
	if submissions[0].StatusCode != 202 || submissions[2].StatusCode != 200 {
		t.Fatalf("order = %d, %d, %d; want newest first", submissions[0].StatusCode, submissions[1].StatusCode, submissions[2].StatusCode)
	}
}
