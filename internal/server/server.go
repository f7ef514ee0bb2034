// Package server wires configuration, templates, the greeting component and
// the HTTP server together and runs them until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"code.soquee.net/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	hyperdemo "github.com/goliatone/go-hyperdemo"
	"github.com/goliatone/go-hyperdemo/components/greeting"
	"github.com/goliatone/go-hyperdemo/internal/config"
	"github.com/goliatone/go-hyperdemo/internal/logging"
	"github.com/goliatone/go-hyperdemo/pkg/render/template/pongo"
	"github.com/goliatone/go-hyperdemo/pkg/render/template/reload"
	"github.com/goliatone/go-hyperdemo/pkg/view"
)

// HealthPath answers liveness probes.
const HealthPath = "/healthz"

// Stack is everything needed to render pages, with or without HTTP.
type Stack struct {
	Engine    *pongo.Engine
	Renderer  *view.Renderer
	Component *greeting.Component
}

// Build assembles the template engine, renderer and greeting component
// described by cfg.
func Build(cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	if cfg == nil {
		return nil, errors.New("server: missing config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	engineOpts := []pongo.Option{
		pongo.WithFS(hyperdemo.EmbeddedTemplates()),
		pongo.WithExtension(cfg.Templates.Extension),
	}
	if dir := strings.TrimSpace(cfg.Templates.Dir); dir != "" {
		engineOpts = append(engineOpts, pongo.WithBaseDir(dir))
	}
	engine, err := pongo.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("server: template engine: %w", err)
	}

	component := greeting.New(
		greeting.WithBasePath(cfg.Greeting.BasePath),
		greeting.WithWelcome(cfg.Greeting.Welcome),
		greeting.WithDefaultName(cfg.Greeting.DefaultName),
		greeting.WithSanitizeInput(cfg.Greeting.SanitizeInput),
		greeting.WithMarkers(cfg.Markers()...),
		greeting.WithLogger(logger.Named("greeting")),
	)
	if err := engine.GlobalContext(map[string]any{"urls": component.URLs()}); err != nil {
		return nil, fmt.Errorf("server: template globals: %w", err)
	}

	renderer := view.NewRenderer(engine,
		view.WithTitle(cfg.Greeting.Title),
		view.WithScripts(cfg.Greeting.Scripts...),
		view.WithTheme(view.ThemeConfig(cfg.Manifest(), cfg.Theme.Variant)),
	)

	return &Stack{
		Engine:    engine,
		Renderer:  renderer,
		Component: component,
	}, nil
}

// Server runs the HTTP listener and, when configured, the template watcher.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	stack   *Stack
	handler http.Handler
}

func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	stack, err := Build(cfg, logger)
	if err != nil {
		return nil, err
	}

	routes, err := stack.Component.Handler(stack.Renderer,
		mux.HandleFunc(http.MethodGet, HealthPath, health),
	)
	if err != nil {
		return nil, fmt.Errorf("server: routes: %w", err)
	}

	return &Server{
		cfg:     cfg,
		logger:  logger,
		stack:   stack,
		handler: logging.Middleware(logger.Named("http"), routes),
	}, nil
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Stack exposes the rendering pieces the server was built from.
func (s *Server) Stack() *Stack {
	return s.stack
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down within the
// configured grace period. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout(),
		WriteTimeout: s.cfg.WriteTimeout(),
		ErrorLog:     zap.NewStdLog(s.logger.Named("http")),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace())
		defer cancel()
		s.logger.Info("shutting down", zap.Duration("grace", s.cfg.ShutdownGrace()))
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})

	if s.cfg.Templates.Watch && strings.TrimSpace(s.cfg.Templates.Dir) != "" {
		watcher, err := reload.New(s.stack.Engine, s.cfg.Templates.Dir,
			reload.WithDebounce(s.cfg.ReloadDebounce()),
			reload.WithExtension(s.stack.Engine.Extension()),
			reload.WithLogger(s.logger.Named("reload")),
		)
		if err != nil {
			s.logger.Warn("template watcher disabled", zap.Error(err))
		} else {
			g.Go(func() error {
				return watcher.Run(gctx)
			})
		}
	}

	return g.Wait()
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
