package metadata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/metadata/tmdb"
	"github.com/marquee/marquee/internal/schedule"
	"github.com/marquee/marquee/internal/titlematch"
)

// MovieSource is the subset of the TMDB client the enrichment service uses.
type MovieSource interface {
	SearchMovies(ctx context.Context, query string, year int) ([]tmdb.MovieResult, error)
	GetMovie(ctx context.Context, id int) (*tmdb.MovieDetails, error)
	IsConfigured() bool
}

// EnrichedMovie is a schedule aggregate merged with the metadata of its best
// TMDB match. When no match was found (or the source is unconfigured), only
// the listing-derived fields are populated.
type EnrichedMovie struct {
	Title          string              `json:"title"` // listing title, unmodified
	Normalized     string              `json:"normalized"`
	Year           int                 `json:"year,omitempty"` // year from the listing title, if any
	SpecialEdition bool                `json:"specialEdition,omitempty"`
	ImageRef       string              `json:"imageRef,omitempty"` // listing poster, fallback when TMDB has none
	Showtimes      []schedule.Showtime `json:"showtimes"`

	TMDBID       int     `json:"tmdbId,omitempty"`
	MatchScore   int     `json:"matchScore,omitempty"`
	MatchedTitle string  `json:"matchedTitle,omitempty"`
	ReleaseDate  string  `json:"releaseDate,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"posterPath,omitempty"`
	Tagline      string  `json:"tagline,omitempty"`
	Runtime      int     `json:"runtime,omitempty"`
	VoteAverage  float64 `json:"voteAverage,omitempty"`
	VoteCount    int     `json:"voteCount,omitempty"`
	Genres       []string `json:"genres,omitempty"`
}

// Service enriches schedule aggregates with movie metadata. The matching
// core stays stateless; caching lives here, keyed by normalized title.
type Service struct {
	source MovieSource
	cache  *Cache
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new enrichment service.
func NewService(source MovieSource, cache *Cache, logger zerolog.Logger) *Service {
	return &Service{
		source: source,
		cache:  cache,
		logger: logger.With().Str("component", "metadata").Logger(),
		now:    time.Now,
	}
}

// InvalidateCache discards all cached enrichment results.
func (s *Service) InvalidateCache() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// EnrichAll enriches every aggregate in display order. Metadata failures are
// per-title and recoverable: a title whose search fails keeps its
// listing-derived fields and the batch proceeds.
func (s *Service) EnrichAll(ctx context.Context, aggregates []schedule.MovieAggregate) []EnrichedMovie {
	enriched := make([]EnrichedMovie, 0, len(aggregates))
	for _, aggregate := range aggregates {
		enriched = append(enriched, s.Enrich(ctx, aggregate))
	}
	return enriched
}

// Enrich matches one aggregate against the metadata source and merges the
// winning candidate's details into the result.
func (s *Service) Enrich(ctx context.Context, aggregate schedule.MovieAggregate) EnrichedMovie {
	parsed := titlematch.Parse(aggregate.Title)

	movie := EnrichedMovie{
		Title:          aggregate.Title,
		Normalized:     parsed.Normalized,
		Year:           parsed.Year,
		SpecialEdition: parsed.SpecialEdition,
		ImageRef:       aggregate.ImageRef,
		Showtimes:      aggregate.Showtimes,
	}

	if s.source == nil || !s.source.IsConfigured() {
		return movie
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(parsed.Normalized); ok {
			if hit, ok := cached.(EnrichedMovie); ok {
				return s.withSchedule(hit, movie)
			}
		}
	}

	results, err := s.source.SearchMovies(ctx, parsed.Normalized, parsed.Year)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("title", aggregate.Title).
			Msg("Metadata search failed, keeping listing-only record")
		return movie
	}
	if len(results) == 0 {
		s.logger.Debug().
			Str("title", aggregate.Title).
			Str("query", parsed.Normalized).
			Msg("No metadata candidates")
		return movie
	}

	candidates := make([]titlematch.Candidate, len(results))
	for i, result := range results {
		candidates[i] = titlematch.Candidate{
			Title:         result.Title,
			OriginalTitle: result.OriginalTitle,
			ReleaseDate:   result.ReleaseDate,
			VoteAverage:   result.VoteAverage,
			VoteCount:     result.VoteCount,
		}
	}

	currentYear := s.now().Year()
	bestIdx := titlematch.BestIndex(parsed, candidates, currentYear)
	winner := results[bestIdx]
	score := titlematch.ScoreMatch(parsed, candidates[bestIdx], currentYear)

	s.logger.Debug().
		Str("title", aggregate.Title).
		Str("matched", winner.Title).
		Int("tmdbId", winner.ID).
		Int("score", score).
		Msg("Selected metadata candidate")

	movie.TMDBID = winner.ID
	movie.MatchScore = score
	movie.MatchedTitle = winner.Title
	movie.ReleaseDate = winner.ReleaseDate
	movie.Overview = winner.Overview
	movie.VoteAverage = winner.VoteAverage
	movie.VoteCount = winner.VoteCount
	if winner.PosterPath != nil {
		movie.PosterPath = *winner.PosterPath
	}

	// Details are best-effort on top of the search result.
	if details, err := s.source.GetMovie(ctx, winner.ID); err != nil {
		s.logger.Warn().
			Err(err).
			Int("tmdbId", winner.ID).
			Msg("Detail fetch failed, keeping search-level metadata")
	} else {
		movie.Overview = details.Overview
		movie.Tagline = details.Tagline
		movie.Runtime = details.Runtime
		if details.PosterPath != nil {
			movie.PosterPath = *details.PosterPath
		}
		for _, genre := range details.Genres {
			movie.Genres = append(movie.Genres, genre.Name)
		}
	}

	if s.cache != nil {
		s.cache.Set(parsed.Normalized, movie)
	}

	return movie
}

// withSchedule overlays the current cycle's schedule fields onto a cached
// metadata record, since showtimes change every fetch while metadata is
// stable.
func (s *Service) withSchedule(cached, current EnrichedMovie) EnrichedMovie {
	cached.Title = current.Title
	cached.Showtimes = current.Showtimes
	if current.ImageRef != "" {
		cached.ImageRef = current.ImageRef
	}
	return cached
}
