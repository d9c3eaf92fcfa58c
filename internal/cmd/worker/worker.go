// Package worker parses worker command flags and launches the task loop.
package worker

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/oklog/run"

	"github.com/inkhorn/inkhorn/internal/cmd/stack"
	entrypoint "github.com/inkhorn/inkhorn/internal/platform/cmd"
	publisherapp "github.com/inkhorn/inkhorn/internal/services/publisher/app"
	"github.com/inkhorn/inkhorn/internal/services/publisher/grant"
	workerapp "github.com/inkhorn/inkhorn/internal/services/worker/app"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
)

// Config holds worker command configuration.
type Config struct {
	DBPath        string        `env:"INKHORN_DB_PATH"                envDefault:"data/inkhorn.db"`
	Consumer      string        `env:"INKHORN_WORKER_CONSUMER"        envDefault:"inkhorn-worker"`
	PollInterval  time.Duration `env:"INKHORN_WORKER_POLL_INTERVAL"   envDefault:"2s"`
	LeaseTTL      time.Duration `env:"INKHORN_WORKER_LEASE_TTL"       envDefault:"2m"`
	RetryBackoff  time.Duration `env:"INKHORN_WORKER_RETRY_BACKOFF"   envDefault:"5s"`
	RetryMaxDelay time.Duration `env:"INKHORN_WORKER_RETRY_MAX_DELAY" envDefault:"10m"`
	CycleInterval time.Duration `env:"INKHORN_PUBLISH_CYCLE_INTERVAL" envDefault:"1h"`
	PruneInterval time.Duration `env:"INKHORN_SESSION_PRUNE_INTERVAL" envDefault:"1h"`

	OpenAIURL  string `env:"INKHORN_OPENAI_URL"`
	OpenAIKey  string `env:"INKHORN_OPENAI_API_KEY"`
	ExaURL     string `env:"INKHORN_EXA_URL"`
	ExaKey     string `env:"INKHORN_EXA_API_KEY"`
	JinaURL    string `env:"INKHORN_JINA_URL"`
	JinaKey    string `env:"INKHORN_JINA_API_KEY"`
	MetricsURL string `env:"INKHORN_KEYWORD_METRICS_URL"`
	MetricsKey string `env:"INKHORN_KEYWORD_METRICS_API_KEY"`

	PublishGrants bool `env:"INKHORN_PUBLISH_GRANTS_ENABLED" envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path")
	fs.StringVar(&cfg.Consumer, "consumer", cfg.Consumer, "Task queue consumer name")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Task queue poll interval")
	fs.DurationVar(&cfg.LeaseTTL, "lease-ttl", cfg.LeaseTTL, "Task lease duration")
	fs.DurationVar(&cfg.RetryBackoff, "retry-backoff", cfg.RetryBackoff, "Base retry backoff delay")
	fs.DurationVar(&cfg.RetryMaxDelay, "retry-max-delay", cfg.RetryMaxDelay, "Maximum retry delay")
	fs.DurationVar(&cfg.CycleInterval, "cycle-interval", cfg.CycleInterval, "Auto-publish cycle interval")
	fs.DurationVar(&cfg.PruneInterval, "prune-interval", cfg.PruneInterval, "Expired session prune interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the worker runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWorker, func(ctx context.Context) error {
		var signer *grant.Signer
		if cfg.PublishGrants {
			loaded, err := grant.LoadSignerFromEnv(nil)
			if err != nil {
				return fmt.Errorf("load publish grant signer: %w", err)
			}
			signer = loaded
		}

		services, err := stack.Build(cfg.DBPath, stack.AIConfig{
			OpenAIURL:  cfg.OpenAIURL,
			OpenAIKey:  cfg.OpenAIKey,
			ExaURL:     cfg.ExaURL,
			ExaKey:     cfg.ExaKey,
			JinaURL:    cfg.JinaURL,
			JinaKey:    cfg.JinaKey,
			MetricsURL: cfg.MetricsURL,
			MetricsKey: cfg.MetricsKey,
		}, signer)
		if err != nil {
			return err
		}
		defer func() { _ = services.Close() }()

		loop := workerapp.New(services.Tasks, MergedHandlers(services), workerapp.Config{
			Consumer:      cfg.Consumer,
			PollInterval:  cfg.PollInterval,
			LeaseTTL:      cfg.LeaseTTL,
			RetryBackoff:  cfg.RetryBackoff,
			RetryMaxDelay: cfg.RetryMaxDelay,
		}, nil)

		var group run.Group
		loopCtx, cancel := context.WithCancel(ctx)
		group.Add(func() error {
			return loop.Run(loopCtx)
		}, func(error) {
			cancel()
		})
		group.Add(func() error {
			return runSchedules(loopCtx, cfg, services)
		}, func(error) {
			cancel()
		})
		err = group.Run()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// MergedHandlers combines every service's task handler map. Task types are
// namespaced per service, so collisions indicate a wiring bug.
func MergedHandlers(services *stack.Stack) map[string]queue.Handler {
	handlers := map[string]queue.Handler{}
	for _, m := range []map[string]queue.Handler{
		services.Projects.Handlers(),
		services.Content.Handlers(),
		services.Publisher.Handlers(),
	} {
		for taskType, handler := range m {
			handlers[taskType] = handler
		}
	}
	return handlers
}

// runSchedules enqueues the recurring auto-publish cycle and prunes expired
// sessions. The cycle task carries a dedupe key so overlapping schedules
// collapse into one pending task.
func runSchedules(ctx context.Context, cfg Config, services *stack.Stack) error {
	cycle := time.NewTicker(cfg.CycleInterval)
	defer cycle.Stop()
	prune := time.NewTicker(cfg.PruneInterval)
	defer prune.Stop()

	enqueueCycle := func() {
		_, err := services.Tasks.Enqueue(ctx, queue.EnqueueInput{
			Type:        publisherapp.TaskCycle,
			MaxAttempts: 1,
			DedupeKey:   publisherapp.TaskCycle,
		})
		if err != nil {
			log.Printf("worker: enqueue publish cycle: %v", err)
		}
	}
	enqueueCycle()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cycle.C:
			enqueueCycle()
		case <-prune.C:
			if deleted, err := services.Auth.PruneSessions(ctx); err != nil {
				log.Printf("worker: prune sessions: %v", err)
			} else if deleted > 0 {
				log.Printf("worker: pruned %d expired sessions", deleted)
			}
		}
	}
}
