package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/auth"
	"github.com/marquee/marquee/internal/config"
	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/scheduler"
	"github.com/marquee/marquee/internal/store"
)

// ScheduleReader reads the persisted schedule.
type ScheduleReader interface {
	ListMovies(ctx context.Context) ([]metadata.EnrichedMovie, error)
	GetMovieByTitle(ctx context.Context, title string) (*metadata.EnrichedMovie, error)
	ListRefreshRuns(ctx context.Context, limit int) ([]store.RefreshRun, error)
}

// Refresher triggers a schedule refresh.
type Refresher interface {
	Run(ctx context.Context) (store.RefreshRun, error)
}

// TaskLister exposes scheduled task state.
type TaskLister interface {
	ListTasks() []scheduler.TaskInfo
}

// CacheInvalidator discards cached metadata ahead of a forced refresh.
type CacheInvalidator interface {
	InvalidateCache()
}

// Server handles HTTP requests for the marquee API.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	logger    zerolog.Logger
	schedule  ScheduleReader
	refresher Refresher
	tasks     TaskLister
	cache     CacheInvalidator
	authSvc   *auth.Service
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, schedule ScheduleReader, refresher Refresher, tasks TaskLister, cache CacheInvalidator, authSvc *auth.Service, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		cfg:       cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		schedule:  schedule,
		refresher: refresher,
		tasks:     tasks,
		cache:     cache,
		authSvc:   authSvc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.BodyLimit("1M"))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Debug().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/auth/login", s.handleLogin)

	protected := v1.Group("")
	if s.authSvc != nil && s.authSvc.Enabled() {
		protected.Use(s.requireAuth)
	}

	protected.GET("/movies", s.handleListMovies)
	protected.GET("/movies/:title", s.handleGetMovie)
	protected.POST("/refresh", s.handleRefresh)
	protected.GET("/refresh/runs", s.handleListRuns)
	protected.GET("/tasks", s.handleListTasks)
}

// Start begins serving HTTP requests. It blocks until the server stops.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address()
	s.logger.Info().Str("addr", addr).Msg("Starting API server")

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying echo instance, used by tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
