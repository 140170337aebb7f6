package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/schedule"
	"github.com/marquee/marquee/internal/store"
)

// EventSource provides the raw screening events for one refresh cycle.
type EventSource interface {
	FetchEvents(ctx context.Context) ([]schedule.ScreeningEvent, error)
}

// Enricher merges movie metadata into schedule aggregates.
type Enricher interface {
	EnrichAll(ctx context.Context, aggregates []schedule.MovieAggregate) []metadata.EnrichedMovie
}

// ScheduleStore persists refresh results.
type ScheduleStore interface {
	ReplaceMovies(ctx context.Context, movies []metadata.EnrichedMovie) error
	CreateRefreshRun(ctx context.Context, run store.RefreshRun) error
	FinishRefreshRun(ctx context.Context, run store.RefreshRun) error
}

// Service runs the full refresh pipeline: scrape the cinema's schedule page,
// aggregate events into movies, enrich them with metadata, and persist the
// result. Only one refresh runs at a time.
type Service struct {
	source   EventSource
	enricher Enricher
	store    ScheduleStore
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

// NewService creates a refresh service.
func NewService(source EventSource, enricher Enricher, scheduleStore ScheduleStore, logger zerolog.Logger) *Service {
	return &Service{
		source:   source,
		enricher: enricher,
		store:    scheduleStore,
		logger:   logger.With().Str("component", "refresh").Logger(),
		now:      time.Now,
	}
}

// ErrAlreadyRunning is returned when a refresh is requested while one is in
// progress.
var ErrAlreadyRunning = fmt.Errorf("refresh already in progress")

// Run executes one refresh cycle and records its outcome.
func (s *Service) Run(ctx context.Context) (store.RefreshRun, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return store.RefreshRun{}, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	run := store.RefreshRun{
		ID:        uuid.New().String(),
		StartedAt: s.now(),
		Status:    store.RunStatusRunning,
	}
	if err := s.store.CreateRefreshRun(ctx, run); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record refresh run start")
	}

	s.logger.Info().Str("runId", run.ID).Msg("Starting schedule refresh")

	result, err := s.execute(ctx, &run)
	finished := s.now()
	run.FinishedAt = &finished

	if err != nil {
		run.Status = store.RunStatusFailed
		run.Error = err.Error()
		s.logger.Error().Err(err).Str("runId", run.ID).Msg("Schedule refresh failed")
	} else {
		run.Status = store.RunStatusCompleted
		run.MoviesStored = len(result)
		s.logger.Info().
			Str("runId", run.ID).
			Int("events", run.EventsScraped).
			Int("movies", run.MoviesStored).
			Dur("elapsed", finished.Sub(run.StartedAt)).
			Msg("Schedule refresh completed")
	}

	if finishErr := s.store.FinishRefreshRun(ctx, run); finishErr != nil {
		s.logger.Warn().Err(finishErr).Str("runId", run.ID).Msg("Failed to record refresh run outcome")
	}

	return run, err
}

func (s *Service) execute(ctx context.Context, run *store.RefreshRun) ([]metadata.EnrichedMovie, error) {
	events, err := s.source.FetchEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}
	run.EventsScraped = len(events)

	aggregates := schedule.AggregateAt(events, s.now())
	enriched := s.enricher.EnrichAll(ctx, aggregates)

	if err := s.store.ReplaceMovies(ctx, enriched); err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	return enriched, nil
}
