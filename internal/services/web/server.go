// Package web hosts the browser-facing HTTP service.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/inkhorn/inkhorn/internal/platform/timeouts"
	webapp "github.com/inkhorn/inkhorn/internal/services/web/app"
	"github.com/inkhorn/inkhorn/internal/services/web/module"
	"github.com/inkhorn/inkhorn/internal/services/web/modules"
	"github.com/inkhorn/inkhorn/internal/services/web/platform/httpx"
	webstatic "github.com/inkhorn/inkhorn/internal/services/web/static"
)

// Config defines startup inputs for the web service.
type Config struct {
	HTTPAddr  string
	Auth      module.AuthService
	Projects  module.ProjectService
	Content   module.ContentService
	Publisher module.PublisherService
	Recorder  module.Recorder
}

// Server hosts the web HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds a root handler from the default module registry groups.
func NewHandler(cfg Config) (http.Handler, error) {
	principal := newPrincipalResolver(cfg)
	deps := module.Dependencies{
		Auth:             cfg.Auth,
		Projects:         cfg.Projects,
		Content:          cfg.Content,
		Publisher:        cfg.Publisher,
		Recorder:         cfg.Recorder,
		ResolveViewer:    principal.resolveViewer,
		ResolveAccountID: principal.resolveRequestAccountID,
	}
	h, err := webapp.Compose(webapp.ComposeInput{
		Dependencies:     deps,
		AuthRequired:     principal.authRequired(),
		PublicModules:    modules.PublicModules(),
		ProtectedModules: modules.ProtectedModules(),
	})
	if err != nil {
		return nil, err
	}
	rootMux := http.NewServeMux()
	rootMux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(webstatic.FS))))
	rootMux.Handle("/", h)
	return httpx.Chain(rootMux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		withRequestPrincipalState(),
		httpx.RequestLogger(log.Default()),
	), nil
}

// NewServer validates config and constructs a web server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose web handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown web http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve web http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}
