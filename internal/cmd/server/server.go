// Package server parses server command flags and launches the HTTP runtime.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/oklog/run"

	"github.com/inkhorn/inkhorn/internal/cmd/stack"
	entrypoint "github.com/inkhorn/inkhorn/internal/platform/cmd"
	"github.com/inkhorn/inkhorn/internal/services/publisher/grant"
	"github.com/inkhorn/inkhorn/internal/services/web"
)

// Config holds server command configuration.
type Config struct {
	HTTPAddr string `env:"INKHORN_HTTP_ADDR" envDefault:"localhost:8080"`
	DBPath   string `env:"INKHORN_DB_PATH"   envDefault:"data/inkhorn.db"`

	OpenAIURL  string `env:"INKHORN_OPENAI_URL"`
	OpenAIKey  string `env:"INKHORN_OPENAI_API_KEY"`
	ExaURL     string `env:"INKHORN_EXA_URL"`
	ExaKey     string `env:"INKHORN_EXA_API_KEY"`
	JinaURL    string `env:"INKHORN_JINA_URL"`
	JinaKey    string `env:"INKHORN_JINA_API_KEY"`
	MetricsURL string `env:"INKHORN_KEYWORD_METRICS_URL"`
	MetricsKey string `env:"INKHORN_KEYWORD_METRICS_API_KEY"`

	// PublishGrants enables outgoing publish signing. The signer itself
	// reads its own INKHORN_PUBLISH_GRANT_* variables.
	PublishGrants bool `env:"INKHORN_PUBLISH_GRANTS_ENABLED" envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the HTTP server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
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

		server, err := web.NewServer(ctx, web.Config{
			HTTPAddr:  cfg.HTTPAddr,
			Auth:      services.Auth,
			Projects:  services.Projects,
			Content:   services.Content,
			Publisher: services.Publisher,
			Recorder:  services.Analytics,
		})
		if err != nil {
			return err
		}

		var group run.Group
		serveCtx, cancel := context.WithCancel(ctx)
		group.Add(func() error {
			return server.ListenAndServe(serveCtx)
		}, func(error) {
			cancel()
			server.Close()
		})
		group.Add(func() error {
			<-serveCtx.Done()
			return serveCtx.Err()
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
