package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/schedule"
	"github.com/marquee/marquee/internal/store"
)

type fakeSource struct {
	events []schedule.ScreeningEvent
	err    error
	block  chan struct{}
}

func (f *fakeSource) FetchEvents(_ context.Context) ([]schedule.ScreeningEvent, error) {
	if f.block != nil {
		<-f.block
	}
	return f.events, f.err
}

type fakeEnricher struct{}

func (fakeEnricher) EnrichAll(_ context.Context, aggregates []schedule.MovieAggregate) []metadata.EnrichedMovie {
	enriched := make([]metadata.EnrichedMovie, 0, len(aggregates))
	for _, aggregate := range aggregates {
		enriched = append(enriched, metadata.EnrichedMovie{
			Title:     aggregate.Title,
			Showtimes: aggregate.Showtimes,
		})
	}
	return enriched
}

type fakeStore struct {
	mu         sync.Mutex
	replaced   [][]metadata.EnrichedMovie
	created    []store.RefreshRun
	finished   []store.RefreshRun
	replaceErr error
}

func (f *fakeStore) ReplaceMovies(_ context.Context, movies []metadata.EnrichedMovie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = append(f.replaced, movies)
	return nil
}

func (f *fakeStore) CreateRefreshRun(_ context.Context, run store.RefreshRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, run)
	return nil
}

func (f *fakeStore) FinishRefreshRun(_ context.Context, run store.RefreshRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, run)
	return nil
}

func newTestService(source EventSource, scheduleStore ScheduleStore) *Service {
	svc := NewService(source, fakeEnricher{}, scheduleStore, zerolog.Nop())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestRun_Success(t *testing.T) {
	source := &fakeSource{events: []schedule.ScreeningEvent{
		{Title: "Dune", Start: "2026-08-28T20:00:00Z"},
		{Title: "Dune", Start: "2026-08-29T20:00:00Z"},
		{Title: "Metropolis", Start: "2026-08-28T19:30:00Z"},
	}}
	st := &fakeStore{}

	run, err := newTestService(source, st).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, store.RunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.EventsScraped)
	assert.Equal(t, 2, run.MoviesStored)
	assert.NotEmpty(t, run.ID)
	require.NotNil(t, run.FinishedAt)

	require.Len(t, st.replaced, 1)
	require.Len(t, st.replaced[0], 2)
	assert.Equal(t, "Metropolis", st.replaced[0][0].Title, "earliest upcoming showtime first")

	require.Len(t, st.finished, 1)
	assert.Equal(t, store.RunStatusCompleted, st.finished[0].Status)
}

func TestRun_FetchFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}
	st := &fakeStore{}

	run, err := newTestService(source, st).Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, store.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "connection refused")
	assert.Empty(t, st.replaced, "a failed fetch must not touch the stored schedule")

	require.Len(t, st.finished, 1)
	assert.Equal(t, store.RunStatusFailed, st.finished[0].Status)
}

func TestRun_PersistFailure(t *testing.T) {
	source := &fakeSource{events: []schedule.ScreeningEvent{
		{Title: "Dune", Start: "2026-08-28T20:00:00Z"},
	}}
	st := &fakeStore{replaceErr: errors.New("disk full")}

	run, err := newTestService(source, st).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, store.RunStatusFailed, run.Status)
	assert.Equal(t, 1, run.EventsScraped)
}

func TestRun_RejectsConcurrentRefresh(t *testing.T) {
	source := &fakeSource{block: make(chan struct{})}
	st := &fakeStore{}
	svc := newTestService(source, st)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Run(context.Background())
	}()

	// Wait for the first run to take the slot.
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.running
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(source.block)
	<-done
}
