package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marquee/marquee/internal/metadata"
	"github.com/marquee/marquee/internal/schedule"
)

var ErrMovieNotFound = errors.New("movie not found")

// ReplaceMovies swaps the stored schedule for a fresh refresh cycle's
// result, preserving the display order the enrichment layer produced.
// The swap is transactional: a failed refresh never leaves a half-written
// schedule behind.
func (s *Store) ReplaceMovies(ctx context.Context, movies []metadata.EnrichedMovie) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM movies`); err != nil {
		return fmt.Errorf("failed to clear movies: %w", err)
	}

	for order, movie := range movies {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO movies (
				title, normalized_title, year, special_edition, image_ref,
				tmdb_id, match_score, matched_title, release_date, overview,
				poster_path, tagline, runtime, vote_average, vote_count,
				genres, sort_order
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			movie.Title, movie.Normalized, movie.Year, movie.SpecialEdition, movie.ImageRef,
			movie.TMDBID, movie.MatchScore, movie.MatchedTitle, movie.ReleaseDate, movie.Overview,
			movie.PosterPath, movie.Tagline, movie.Runtime, movie.VoteAverage, movie.VoteCount,
			strings.Join(movie.Genres, ","), order,
		)
		if err != nil {
			return fmt.Errorf("failed to insert movie %q: %w", movie.Title, err)
		}

		movieID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get movie id: %w", err)
		}

		for _, showtime := range movie.Showtimes {
			var end sql.NullString
			if showtime.End != nil {
				end = sql.NullString{String: showtime.End.Format(time.RFC3339), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO showtimes (movie_id, start_time, end_time) VALUES (?, ?, ?)`,
				movieID, showtime.Start.Format(time.RFC3339), end,
			); err != nil {
				return fmt.Errorf("failed to insert showtime for %q: %w", movie.Title, err)
			}
		}
	}

	return tx.Commit()
}

// ListMovies returns all stored movies in display order with their showtimes.
func (s *Store) ListMovies(ctx context.Context) ([]metadata.EnrichedMovie, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, title, normalized_title, year, special_edition, image_ref,
		       tmdb_id, match_score, matched_title, release_date, overview,
		       poster_path, tagline, runtime, vote_average, vote_count, genres
		FROM movies ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	movies := make([]metadata.EnrichedMovie, 0)
	ids := make([]int64, 0)

	for rows.Next() {
		var id int64
		movie, err := scanMovie(rows, &id)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate movies: %w", err)
	}

	for i, id := range ids {
		showtimes, err := s.showtimesFor(ctx, id)
		if err != nil {
			return nil, err
		}
		movies[i].Showtimes = showtimes
	}

	return movies, nil
}

// GetMovieByTitle returns one stored movie by its exact listing title.
func (s *Store) GetMovieByTitle(ctx context.Context, title string) (*metadata.EnrichedMovie, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, title, normalized_title, year, special_edition, image_ref,
		       tmdb_id, match_score, matched_title, release_date, overview,
		       poster_path, tagline, runtime, vote_average, vote_count, genres
		FROM movies WHERE title = ?`, title)

	var id int64
	movie, err := scanMovie(row, &id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}

	showtimes, err := s.showtimesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	movie.Showtimes = showtimes

	return &movie, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner, id *int64) (metadata.EnrichedMovie, error) {
	var movie metadata.EnrichedMovie
	var genres string

	err := row.Scan(
		id, &movie.Title, &movie.Normalized, &movie.Year, &movie.SpecialEdition, &movie.ImageRef,
		&movie.TMDBID, &movie.MatchScore, &movie.MatchedTitle, &movie.ReleaseDate, &movie.Overview,
		&movie.PosterPath, &movie.Tagline, &movie.Runtime, &movie.VoteAverage, &movie.VoteCount, &genres,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return movie, err
		}
		return movie, fmt.Errorf("failed to scan movie: %w", err)
	}

	if genres != "" {
		movie.Genres = strings.Split(genres, ",")
	}

	return movie, nil
}

func (s *Store) showtimesFor(ctx context.Context, movieID int64) ([]schedule.Showtime, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT start_time, end_time FROM showtimes WHERE movie_id = ? ORDER BY start_time`, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to query showtimes: %w", err)
	}
	defer rows.Close()

	showtimes := make([]schedule.Showtime, 0)
	for rows.Next() {
		var startRaw string
		var endRaw sql.NullString

		if err := rows.Scan(&startRaw, &endRaw); err != nil {
			return nil, fmt.Errorf("failed to scan showtime: %w", err)
		}

		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			// Stored by us in RFC 3339; anything else is corruption.
			return nil, fmt.Errorf("failed to parse stored showtime %q: %w", startRaw, err)
		}

		showtime := schedule.Showtime{Start: start}
		if endRaw.Valid {
			if end, err := time.Parse(time.RFC3339, endRaw.String); err == nil {
				showtime.End = &end
			}
		}
		showtimes = append(showtimes, showtime)
	}

	return showtimes, rows.Err()
}
