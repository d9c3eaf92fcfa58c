package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/inkhorn/inkhorn/internal/platform/errors"
	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitedb"
	"github.com/inkhorn/inkhorn/internal/services/content/domain"
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

var testTime = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

func seedSuggestion(t *testing.T, store *Store, projectID, title string) domain.TitleSuggestion {
	t.Helper()
	suggestion, err := domain.NewTitleSuggestion(projectID, title, domain.ContentTypeSEO, testTime, id.NewID)
	if err != nil {
		t.Fatalf("NewTitleSuggestion() error = %v", err)
	}
	suggestion.MetaDescription = "a meta description"
	suggestion.TargetKeywords = []string{"alpha", "beta"}
	if err := store.CreateSuggestion(context.Background(), suggestion); err != nil {
		t.Fatalf("CreateSuggestion() error = %v", err)
	}
	return suggestion
}

func seedPost(t *testing.T, store *Store, projectID, slug string) domain.Post {
	t.Helper()
	suggestion := seedSuggestion(t, store, projectID, "Post for "+slug)
	postID, err := id.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	post := domain.Post{
		ID:           postID,
		ProjectID:    projectID,
		SuggestionID: suggestion.ID,
		Title:        suggestion.Title,
		Slug:         slug,
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}
	if err := store.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	return post
}

func seedSections(t *testing.T, store *Store, postID string, middleTitles []string) []domain.Section {
	t.Helper()
	titles := append([]string{"Introduction"}, middleTitles...)
	titles = append(titles, "Conclusion")
	sections := make([]domain.Section, 0, len(titles))
	for i, title := range titles {
		sectionID, err := id.NewID()
		if err != nil {
			t.Fatalf("NewID() error = %v", err)
		}
		kind := domain.SectionMiddle
		if i == 0 {
			kind = domain.SectionIntroduction
		} else if i == len(titles)-1 {
			kind = domain.SectionConclusion
		}
		sections = append(sections, domain.Section{
			ID:        sectionID,
			PostID:    postID,
			Position:  i,
			Kind:      kind,
			Title:     title,
			CreatedAt: testTime,
			UpdatedAt: testTime,
		})
	}
	if err := store.CreateSections(context.Background(), postID, sections); err != nil {
		t.Fatalf("CreateSections() error = %v", err)
	}
	return sections
}

func seedQuestion(t *testing.T, store *Store, sectionID, text string) domain.ResearchQuestion {
	t.Helper()
	questionID, err := id.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	question := domain.ResearchQuestion{
		ID:        questionID,
		SectionID: sectionID,
		Text:      text,
		CreatedAt: testTime,
	}
	if err := store.CreateQuestions(context.Background(), sectionID, []domain.ResearchQuestion{question}); err != nil {
		t.Fatalf("CreateQuestions() error = %v", err)
	}
	return question
}

func TestSuggestionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seeded := seedSuggestion(t, store, "proj-1", "How to Brew Coffee")

	got, err := store.GetSuggestion(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetSuggestion() error = %v", err)
	}
	if diff := cmp.Diff(seeded, got); diff != "" {
		t.Fatalf("suggestion mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSuggestionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSuggestion(context.Background(), "missing")
	if apperrors.CodeOf(err) != apperrors.CodeSuggestionNotFound {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodeSuggestionNotFound)
	}
}

func TestListSuggestionsFiltersArchived(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	kept := seedSuggestion(t, store, "proj-1", "Kept title")
	archived := seedSuggestion(t, store, "proj-1", "Archived title")
	archived.Archived = true
	if err := store.UpdateSuggestion(ctx, archived); err != nil {
		t.Fatalf("UpdateSuggestion() error = %v", err)
	}

	visible, err := store.ListSuggestions(ctx, "proj-1", false)
	if err != nil {
		t.Fatalf("ListSuggestions() error = %v", err)
	}
	if len(visible) != 1 || visible[0].ID != kept.ID {
		t.Fatalf("visible suggestions = %v, want only %s", visible, kept.ID)
	}

	all, err := store.ListSuggestions(ctx, "proj-1", true)
	if err != nil {
		t.Fatalf("ListSuggestions() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}
}

func TestUpdateSuggestionScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	suggestion := seedSuggestion(t, store, "proj-1", "Scored title")
	suggestion.UserScore = -1
	if err := store.UpdateSuggestion(ctx, suggestion); err != nil {
		t.Fatalf("UpdateSuggestion() error = %v", err)
	}

	got, err := store.GetSuggestion(ctx, suggestion.ID)
	if err != nil {
		t.Fatalf("GetSuggestion() error = %v", err)
	}
	if got.UserScore != -1 {
		t.Fatalf("UserScore = %d, want -1", got.UserScore)
	}
}

func TestPostRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seeded := seedPost(t, store, "proj-1", "how-to-brew-coffee")

	got, err := store.GetPost(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if diff := cmp.Diff(seeded, got); diff != "" {
		t.Fatalf("post mismatch (-want +got):\n%s", diff)
	}

	bySuggestion, err := store.GetPostBySuggestion(ctx, seeded.SuggestionID)
	if err != nil {
		t.Fatalf("GetPostBySuggestion() error = %v", err)
	}
	if bySuggestion.ID != seeded.ID {
		t.Fatalf("GetPostBySuggestion().ID = %s, want %s", bySuggestion.ID, seeded.ID)
	}
}

func TestGetPostBySuggestionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPostBySuggestion(context.Background(), "missing")
	if apperrors.CodeOf(err) != apperrors.CodePostNotFound {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodePostNotFound)
	}
}

func TestSlugTaken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedPost(t, store, "proj-1", "taken-slug")

	taken, err := store.SlugTaken(ctx, "proj-1", "taken-slug")
	if err != nil {
		t.Fatalf("SlugTaken() error = %v", err)
	}
	if !taken {
		t.Fatal("SlugTaken() = false, want true")
	}

	free, err := store.SlugTaken(ctx, "proj-2", "taken-slug")
	if err != nil {
		t.Fatalf("SlugTaken() error = %v", err)
	}
	if free {
		t.Fatal("SlugTaken() on other project = true, want false")
	}
}

func TestCountGenerationsSince(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedPost(t, store, "proj-1", "first")
	seedPost(t, store, "proj-1", "second")
	seedPost(t, store, "proj-2", "other-project")

	count, err := store.CountGenerationsSince(ctx, []string{"proj-1"}, testTime.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountGenerationsSince() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	count, err = store.CountGenerationsSince(ctx, []string{"proj-1", "proj-2"}, testTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("CountGenerationsSince() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("count after window = %d, want 0", count)
	}

	count, err = store.CountGenerationsSince(ctx, nil, testTime.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountGenerationsSince() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("count with no projects = %d, want 0", count)
	}
}

func TestCreateSectionsOnlyOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	post := seedPost(t, store, "proj-1", "sectioned")
	sections := seedSections(t, store, post.ID, []string{"Middle A", "Middle B"})

	listed, err := store.ListSections(ctx, post.ID)
	if err != nil {
		t.Fatalf("ListSections() error = %v", err)
	}
	if diff := cmp.Diff(sections, listed); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}

	err = store.CreateSections(ctx, post.ID, sections)
	if apperrors.CodeOf(err) != apperrors.CodePipelineStepInvalid {
		t.Fatalf("CodeOf(err) = %v, want %v", apperrors.CodeOf(err), apperrors.CodePipelineStepInvalid)
	}
}

func TestUpdateSectionContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	post := seedPost(t, store, "proj-1", "updated")
	sections := seedSections(t, store, post.ID, []string{"Middle"})

	section := sections[1]
	section.Content = "## Middle\n\nWritten."
	if err := store.UpdateSection(ctx, section); err != nil {
		t.Fatalf("UpdateSection() error = %v", err)
	}

	got, err := store.GetSection(ctx, section.ID)
	if err != nil {
		t.Fatalf("GetSection() error = %v", err)
	}
	if got.Content != section.Content {
		t.Fatalf("Content = %q, want %q", got.Content, section.Content)
	}
}

func TestCreateQuestionsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	post := seedPost(t, store, "proj-1", "researched")
	sections := seedSections(t, store, post.ID, []string{"Middle"})
	middle := sections[1]

	first := seedQuestion(t, store, middle.ID, "What is the first question?")

	duplicateID, err := id.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	err = store.CreateQuestions(ctx, middle.ID, []domain.ResearchQuestion{{
		ID:        duplicateID,
		SectionID: middle.ID,
		Text:      "A second round that must not land",
		CreatedAt: testTime,
	}})
	if err != nil {
		t.Fatalf("CreateQuestions() rerun error = %v", err)
	}

	questions, err := store.ListQuestions(ctx, middle.ID)
	if err != nil {
		t.Fatalf("ListQuestions() error = %v", err)
	}
	if len(questions) != 1 || questions[0].ID != first.ID {
		t.Fatalf("questions = %v, want only %s", questions, first.ID)
	}
}

func TestMarkQuestionSearched(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	post := seedPost(t, store, "proj-1", "searched")
	sections := seedSections(t, store, post.ID, []string{"Middle"})
	question := seedQuestion(t, store, sections[1].ID, "Has it been searched?")

	if err := store.MarkQuestionSearched(ctx, question.ID); err != nil {
		t.Fatalf("MarkQuestionSearched() error = %v", err)
	}

	got, err := store.GetQuestion(ctx, question.ID)
	if err != nil {
		t.Fatalf("GetQuestion() error = %v", err)
	}
	if !got.Searched {
		t.Fatal("Searched = false, want true")
	}
}

func TestUpsertLinkReturnsExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	post := seedPost(t, store, "proj-1", "linked")
	sections := seedSections(t, store, post.ID, []string{"Middle"})
	question := seedQuestion(t, store, sections[1].ID, "Where do links live?")

	firstID, err := id.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	first, err := store.UpsertLink(ctx, domain.ResearchLink{
		ID:         firstID,
		QuestionID: question.ID,
		URL:        "https://example.com/source",
		Title:      "Source",
		CreatedAt:  testTime,
	})
	if err != nil {
		t.Fatalf("UpsertLink() error = %v", err)
	}

	secondID, err := id.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	second, err := store.UpsertLink(ctx, domain.ResearchLink{
		ID:         secondID,
		QuestionID: question.ID,
		URL:        "https://example.com/source",
		Title:      "Same source again",
		CreatedAt:  testTime,
	})
	if err != nil {
		t.Fatalf("UpsertLink() repeat error = %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second.ID = %s, want existing %s", second.ID, first.ID)
	}
}

func TestCountUnprocessedLinks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	post := seedPost(t, store, "proj-1", "counted")
	sections := seedSections(t, store, post.ID, []string{"Middle"})
	question := seedQuestion(t, store, sections[1].ID, "How many remain?")

	count, err := store.CountUnprocessedLinks(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountUnprocessedLinks() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("count with unsearched question = %d, want 1", count)
	}

	if err := store.MarkQuestionSearched(ctx, question.ID); err != nil {
		t.Fatalf("MarkQuestionSearched() error = %v", err)
	}

	linkID, err := id.NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	link, err := store.UpsertLink(ctx, domain.ResearchLink{
		ID:         linkID,
		QuestionID: question.ID,
		URL:        "https://example.com/source",
		CreatedAt:  testTime,
	})
	if err != nil {
		t.Fatalf("UpsertLink() error = %v", err)
	}

	count, err = store.CountUnprocessedLinks(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountUnprocessedLinks() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("count with unanalyzed link = %d, want 1", count)
	}

	link.AnalyzedAt = testTime
	if err := store.UpdateLink(ctx, link); err != nil {
		t.Fatalf("UpdateLink() error = %v", err)
	}

	count, err = store.CountUnprocessedLinks(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountUnprocessedLinks() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("count after analysis = %d, want 0", count)
	}
}

func TestGuardSingleFlight(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := testTime
	expiry := now.Add(time.Hour)

	acquired, err := store.AcquireGuard(ctx, "synthesis:post-1", "worker-a", expiry, now)
	if err != nil {
		t.Fatalf("AcquireGuard() error = %v", err)
	}
	if !acquired {
		t.Fatal("first AcquireGuard() = false, want true")
	}

	blocked, err := store.AcquireGuard(ctx, "synthesis:post-1", "worker-b", expiry, now)
	if err != nil {
		t.Fatalf("AcquireGuard() second error = %v", err)
	}
	if blocked {
		t.Fatal("second AcquireGuard() = true, want false while held")
	}

	later := expiry.Add(time.Minute)
	takeover, err := store.AcquireGuard(ctx, "synthesis:post-1", "worker-b", later.Add(time.Hour), later)
	if err != nil {
		t.Fatalf("AcquireGuard() after expiry error = %v", err)
	}
	if !takeover {
		t.Fatal("AcquireGuard() after expiry = false, want true")
	}
}

func TestGuardRelease(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := testTime

	if _, err := store.AcquireGuard(ctx, "synthesis:post-2", "worker-a", now.Add(time.Hour), now); err != nil {
		t.Fatalf("AcquireGuard() error = %v", err)
	}
	if err := store.ReleaseGuard(ctx, "synthesis:post-2", "worker-a"); err != nil {
		t.Fatalf("ReleaseGuard() error = %v", err)
	}

	acquired, err := store.AcquireGuard(ctx, "synthesis:post-2", "worker-b", now.Add(time.Hour), now)
	if err != nil {
		t.Fatalf("AcquireGuard() after release error = %v", err)
	}
	if !acquired {
		t.Fatal("AcquireGuard() after release = false, want true")
	}
}
