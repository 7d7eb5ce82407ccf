// Package server wires the HTTP surface: feed and post routes, the
// websocket upgrade endpoint, health and metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/souvik017/livefeed/internal/config"
	"github.com/souvik017/livefeed/internal/domain"
)

type appService interface {
	GetFeed(ctx context.Context) (*domain.FeedResult, error)
	GetUserFeed(ctx context.Context, uid string) ([]domain.Post, error)
	CreatePost(ctx context.Context, actor *domain.User, in domain.CreatePostInput) (*domain.Post, error)
	UpdatePost(ctx context.Context, actor *domain.User, postID uuid.UUID, in domain.UpdatePostInput) (*domain.Post, error)
	DeletePost(ctx context.Context, actor *domain.User, postID uuid.UUID) error
}

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app      appService
	verifier domain.TokenVerifier
	users    domain.UserRepository

	websocketHandler echo.HandlerFunc
	healthChecks     []HealthCheck
}

func NewServer(cfg *config.Config, app appService, verifier domain.TokenVerifier, users domain.UserRepository, websocketHandler echo.HandlerFunc, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:             e,
		config:           cfg,
		app:              app,
		verifier:         verifier,
		users:            users,
		websocketHandler: websocketHandler,
		healthChecks:     healthChecks,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
