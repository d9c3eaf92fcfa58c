// Package stack assembles the application services the server and worker
// commands share. Both processes point at the same SQLite database, so the
// wiring lives in one place.
package stack

import (
	"database/sql"
	"fmt"

	"github.com/inkhorn/inkhorn/internal/platform/storage/sqlitedb"
	"github.com/inkhorn/inkhorn/internal/services/ai/invoke"
	"github.com/inkhorn/inkhorn/internal/services/ai/reader"
	"github.com/inkhorn/inkhorn/internal/services/ai/search"
	analyticsapp "github.com/inkhorn/inkhorn/internal/services/analytics/app"
	analyticssqlite "github.com/inkhorn/inkhorn/internal/services/analytics/storage/sqlite"
	authapp "github.com/inkhorn/inkhorn/internal/services/auth/app"
	authsqlite "github.com/inkhorn/inkhorn/internal/services/auth/storage/sqlite"
	contentapp "github.com/inkhorn/inkhorn/internal/services/content/app"
	contentsqlite "github.com/inkhorn/inkhorn/internal/services/content/storage/sqlite"
	projectapp "github.com/inkhorn/inkhorn/internal/services/project/app"
	"github.com/inkhorn/inkhorn/internal/services/project/metrics"
	projectsqlite "github.com/inkhorn/inkhorn/internal/services/project/storage/sqlite"
	publisherapp "github.com/inkhorn/inkhorn/internal/services/publisher/app"
	"github.com/inkhorn/inkhorn/internal/services/publisher/grant"
	publishersqlite "github.com/inkhorn/inkhorn/internal/services/publisher/storage/sqlite"
	workersqlite "github.com/inkhorn/inkhorn/internal/services/worker/storage/sqlite"
)

// AIConfig carries credentials and endpoint overrides for external providers.
// Empty endpoint fields fall back to each provider's production URL.
type AIConfig struct {
	OpenAIURL  string
	OpenAIKey  string
	ExaURL     string
	ExaKey     string
	JinaURL    string
	JinaKey    string
	MetricsURL string
	MetricsKey string
}

// Stack holds the wired application services over one database.
type Stack struct {
	DB        *sql.DB
	Tasks     *workersqlite.Store
	Analytics *analyticsapp.App
	Auth      *authapp.App
	Projects  *projectapp.App
	Content   *contentapp.App
	Publisher *publisherapp.App
}

// Build opens the database, applies every service's migrations, and wires the
// application services. A nil signer disables publishing but not generation.
func Build(dbPath string, ai AIConfig, signer *grant.Signer) (*Stack, error) {
	db, err := sqlitedb.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s, err := build(db, ai, signer)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func build(db *sql.DB, ai AIConfig, signer *grant.Signer) (*Stack, error) {
	tasks, err := workersqlite.New(db)
	if err != nil {
		return nil, fmt.Errorf("task store: %w", err)
	}
	analyticsStore, err := analyticssqlite.New(db)
	if err != nil {
		return nil, fmt.Errorf("analytics store: %w", err)
	}
	authStore, err := authsqlite.New(db)
	if err != nil {
		return nil, fmt.Errorf("auth store: %w", err)
	}
	projectStore, err := projectsqlite.New(db)
	if err != nil {
		return nil, fmt.Errorf("project store: %w", err)
	}
	contentStore, err := contentsqlite.New(db)
	if err != nil {
		return nil, fmt.Errorf("content store: %w", err)
	}
	publisherStore, err := publishersqlite.New(db)
	if err != nil {
		return nil, fmt.Errorf("publisher store: %w", err)
	}

	invoker := invoke.NewOpenAIAdapter(invoke.OpenAIConfig{
		ResponsesURL: ai.OpenAIURL,
		APIKey:       ai.OpenAIKey,
	})
	searcher := search.NewExaAdapter(search.ExaConfig{
		SearchURL: ai.ExaURL,
		APIKey:    ai.ExaKey,
	})
	pageReader := reader.NewJinaAdapter(reader.JinaConfig{
		ReaderURL: ai.JinaURL,
		APIKey:    ai.JinaKey,
	})
	var keywordMetrics metrics.Provider
	if ai.MetricsKey != "" {
		keywordMetrics = metrics.NewKeywordsEverywhere(metrics.Config{
			DataURL: ai.MetricsURL,
			APIKey:  ai.MetricsKey,
		})
	}

	analytics := analyticsapp.New(analyticsStore)
	auth := authapp.New(authStore, analytics)
	projects := projectapp.New(projectStore, pageReader, invoker, keywordMetrics, tasks)
	content := contentapp.New(contentStore, projectStore, auth, invoker, searcher, pageReader, tasks)
	publisher := publisherapp.New(publisherStore, projectStore, contentStore, content, signer, nil)

	return &Stack{
		DB:        db,
		Tasks:     tasks,
		Analytics: analytics,
		Auth:      auth,
		Projects:  projects,
		Content:   content,
		Publisher: publisher,
	}, nil
}

// Close releases the underlying database.
func (s *Stack) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
