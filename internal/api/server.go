// Package api exposes schema editing, rendering and submission over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/goliatone/go-formkit/internal/backend"
	"github.com/goliatone/go-formkit/internal/store"
	"github.com/goliatone/go-formkit/pkg/builder"
	"github.com/goliatone/go-formkit/pkg/render"
	htmlrenderer "github.com/goliatone/go-formkit/pkg/renderers/html"
)

// Server wires the store, the builder and the renderers to echo routes.
type Server struct {
	store     store.Store
	builder   *builder.Builder
	renderers *render.Registry
	forwarder backend.Forwarder
	logger    *slog.Logger
	now       func() time.Time
	echo      *echo.Echo
}

// Option configures a Server.
type Option func(*Server)

func WithBuilder(b *builder.Builder) Option {
	return func(s *Server) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithRenderers replaces the default json and html renderers.
func WithRenderers(r *render.Registry) Option {
	return func(s *Server) {
		if r != nil {
			s.renderers = r
		}
	}
}

// WithForwarder sets where accepted submissions are sent. Without one they
// are logged and discarded.
func WithForwarder(f backend.Forwarder) Option {
	return func(s *Server) {
		if f != nil {
			s.forwarder = f
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds the server and registers every route.
func New(st store.Store, options ...Option) (*Server, error) {
	if st == nil {
		return nil, errors.New("api: store is required")
	}
	s := &Server{
		store:   st,
		builder: builder.New(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.forwarder == nil {
		s.forwarder = backend.Discard{Logger: s.logger}
	}
	if s.renderers == nil {
		registry, err := defaultRenderers()
		if err != nil {
			return nil, err
		}
		s.renderers = registry
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			s.logger.LogAttrs(context.Background(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	s.routes()
	return s, nil
}

func defaultRenderers() (*render.Registry, error) {
	registry := render.NewRegistry()
	registry.MustRegister(render.NewJSONRenderer())
	html, err := htmlrenderer.New()
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}
	registry.MustRegister(html)
	return registry, nil
}

func (s *Server) routes() {
	g := s.echo.Group("/api/forms")
	g.POST("", s.createForm)
	g.GET("", s.listForms)
	g.GET("/:id", s.getForm)
	g.PUT("/:id", s.replaceForm)
	g.PATCH("/:id", s.updateDetails)
	g.DELETE("/:id", s.deleteForm)

	g.POST("/:id/fields", s.addField)
	g.PATCH("/:id/fields/:fieldId", s.updateField)
	g.DELETE("/:id/fields/:fieldId", s.removeField)
	g.POST("/:id/fields/:fieldId/move", s.moveField)
	g.PUT("/:id/fields/:fieldId/visibility", s.setVisibility)

	g.POST("/:id/render", s.renderForm)
	g.POST("/:id/submissions", s.submit)
	g.POST("/:id/hydrate", s.hydrate)
	g.GET("/:id/openapi", s.contract)

	s.echo.GET("/forms/:id", s.formPage)
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
}

// Handler returns the root handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("formkit api listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
