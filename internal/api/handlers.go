package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marquee/marquee/internal/refresh"
	"github.com/marquee/marquee/internal/store"
)

type LoginRequest struct {
	APIKey string `json:"apiKey"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// GET /health
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// POST /api/v1/auth/login - exchange the configured API key for a bearer token
func (s *Server) handleLogin(c echo.Context) error {
	if s.authSvc == nil || !s.authSvc.Enabled() {
		return echo.NewHTTPError(http.StatusBadRequest, "authentication is not enabled")
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.authSvc.ValidateAPIKey(req.APIKey); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := s.authSvc.GenerateToken()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(http.StatusOK, LoginResponse{Token: token})
}

// requireAuth validates the bearer token on protected routes.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		if _, err := s.authSvc.ValidateToken(token); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		return next(c)
	}
}

// GET /api/v1/movies - the current schedule in display order
func (s *Server) handleListMovies(c echo.Context) error {
	movies, err := s.schedule.ListMovies(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list movies")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list movies")
	}
	return c.JSON(http.StatusOK, movies)
}

// GET /api/v1/movies/:title - one movie by its exact listing title
func (s *Server) handleGetMovie(c echo.Context) error {
	title := c.Param("title")

	movie, err := s.schedule.GetMovieByTitle(c.Request().Context(), title)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "movie not found")
		}
		s.logger.Error().Err(err).Str("title", title).Msg("Failed to get movie")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get movie")
	}

	return c.JSON(http.StatusOK, movie)
}

// POST /api/v1/refresh - trigger a refresh cycle and wait for it. With
// ?force=true the metadata cache is invalidated first, so every title is
// re-matched instead of served from cache.
func (s *Server) handleRefresh(c echo.Context) error {
	if c.QueryParam("force") == "true" && s.cache != nil {
		s.cache.InvalidateCache()
	}

	run, err := s.refresher.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, refresh.ErrAlreadyRunning) {
			return echo.NewHTTPError(http.StatusConflict, "refresh already in progress")
		}
		// The run record carries the failure detail.
		return c.JSON(http.StatusInternalServerError, run)
	}
	return c.JSON(http.StatusOK, run)
}

// GET /api/v1/refresh/runs - recent refresh run history
func (s *Server) handleListRuns(c echo.Context) error {
	runs, err := s.schedule.ListRefreshRuns(c.Request().Context(), 20)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list refresh runs")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list refresh runs")
	}
	return c.JSON(http.StatusOK, runs)
}

// GET /api/v1/tasks - scheduled task state
func (s *Server) handleListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.tasks.ListTasks())
}
