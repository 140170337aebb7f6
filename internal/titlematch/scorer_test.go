package titlematch

import (
	"testing"
)

const testCurrentYear = 2026

func TestScoreMatch_TitleFactor(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate Candidate
		want      int
	}{
		{
			name:      "exact normalized match",
			query:     "Dune",
			candidate: Candidate{Title: "Dune"},
			want:      100,
		},
		{
			name:      "exact match through normalization",
			query:     "The Godfather",
			candidate: Candidate{Title: "Godfather"},
			want:      100,
		},
		{
			name:      "exact match on original title",
			query:     "Seven Samurai",
			candidate: Candidate{Title: "Shichinin no Samurai", OriginalTitle: "Seven Samurai"},
			want:      100,
		},
		{
			name:      "candidate contains query",
			query:     "Dune",
			candidate: Candidate{Title: "Dune: Part Two"},
			want:      50,
		},
		{
			name:      "query contains candidate",
			query:     "Alien Resurrection",
			candidate: Candidate{Title: "Alien"},
			want:      50,
		},
		{
			name:      "close fuzzy match earns scaled bonus",
			query:     "Casablanca",
			candidate: Candidate{Title: "Casablance"},
			// distance 1 over len 10 -> similarity 0.9 -> floor(0.9*40) = 36
			want: 36,
		},
		{
			name:      "distant titles earn nothing",
			query:     "Casablanca",
			candidate: Candidate{Title: "Jurassic Park"},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreMatch(Parse(tt.query), tt.candidate, testCurrentYear)
			if got != tt.want {
				t.Errorf("ScoreMatch = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreMatch_YearFactor(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate Candidate
		want      int
	}{
		{
			name:      "exact year match",
			query:     "Nosferatu 1922",
			candidate: Candidate{Title: "Nosferatu", ReleaseDate: "1922-03-04"},
			want:      100 + 50,
		},
		{
			name:      "one year off",
			query:     "Dune (2020)",
			candidate: Candidate{Title: "Dune", ReleaseDate: "2021-10-22"},
			want:      100 + 20,
		},
		{
			name:      "year mismatch penalty",
			query:     "Dune (2020)",
			candidate: Candidate{Title: "Dune", ReleaseDate: "1984-12-14"},
			want:      100 - 30,
		},
		{
			name:      "no query year, recent release",
			query:     "Dune",
			candidate: Candidate{Title: "Dune", ReleaseDate: "2025-06-01"},
			want:      100 + 25,
		},
		{
			name:      "no query year, released within five years",
			query:     "Dune",
			candidate: Candidate{Title: "Dune", ReleaseDate: "2022-06-01"},
			want:      100 + 10,
		},
		{
			name:      "no query year, mid-range dead zone",
			query:     "Dune",
			candidate: Candidate{Title: "Dune", ReleaseDate: "2010-06-01"},
			want:      100,
		},
		{
			name:      "no query year, classic revival",
			query:     "Metropolis",
			candidate: Candidate{Title: "Metropolis", ReleaseDate: "1927-01-10"},
			want:      100 + 5,
		},
		{
			name:      "no year information on either side",
			query:     "Metropolis",
			candidate: Candidate{Title: "Metropolis"},
			want:      100,
		},
		{
			name:      "query year but candidate date missing",
			query:     "Metropolis (1927)",
			candidate: Candidate{Title: "Metropolis"},
			want:      100,
		},
		{
			name:      "malformed release date treated as absent",
			query:     "Metropolis (1927)",
			candidate: Candidate{Title: "Metropolis", ReleaseDate: "n/a"},
			want:      100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreMatch(Parse(tt.query), tt.candidate, testCurrentYear)
			if got != tt.want {
				t.Errorf("ScoreMatch = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreMatch_PopularityAndRating(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		want      int
	}{
		{
			name:      "huge vote count",
			candidate: Candidate{Title: "Dune", VoteCount: 5000},
			want:      100 + 15,
		},
		{
			name:      "mid vote count",
			candidate: Candidate{Title: "Dune", VoteCount: 500},
			want:      100 + 10,
		},
		{
			name:      "low vote count",
			candidate: Candidate{Title: "Dune", VoteCount: 50},
			want:      100 + 5,
		},
		{
			name:      "negligible vote count",
			candidate: Candidate{Title: "Dune", VoteCount: 3},
			want:      100,
		},
		{
			name:      "well rated",
			candidate: Candidate{Title: "Dune", VoteAverage: 8.1},
			want:      100 + 5,
		},
		{
			name:      "rating at the floor earns nothing",
			candidate: Candidate{Title: "Dune", VoteAverage: 7.0},
			want:      100,
		},
		{
			name:      "votes and rating stack",
			candidate: Candidate{Title: "Dune", VoteCount: 5000, VoteAverage: 7.8},
			want:      100 + 15 + 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreMatch(Parse("Dune"), tt.candidate, testCurrentYear)
			if got != tt.want {
				t.Errorf("ScoreMatch = %d, want %d", got, tt.want)
			}
		})
	}
}

// A popular but wrong-year candidate must still lose to an obscure
// correct-year one; factors are additive with no early exit.
func TestScoreMatch_WrongYearLosesDespitePopularity(t *testing.T) {
	query := Parse("Nosferatu 1922")

	original := Candidate{Title: "Nosferatu", ReleaseDate: "1922-03-04", VoteCount: 20}
	remake := Candidate{Title: "Nosferatu", ReleaseDate: "2024-12-25", VoteCount: 8000, VoteAverage: 7.5}

	originalScore := ScoreMatch(query, original, testCurrentYear)
	remakeScore := ScoreMatch(query, remake, testCurrentYear)

	if originalScore <= remakeScore {
		t.Errorf("original scored %d, remake %d; correct-year candidate must win", originalScore, remakeScore)
	}

	best := FindBestMatch(query, []Candidate{remake, original}, testCurrentYear)
	if best == nil || best.ReleaseDate != original.ReleaseDate {
		t.Errorf("FindBestMatch picked %+v, want the 1922 original", best)
	}
}

func TestFindBestMatch_Selection(t *testing.T) {
	t.Run("empty list yields no match", func(t *testing.T) {
		if got := FindBestMatch(Parse("Dune"), nil, testCurrentYear); got != nil {
			t.Errorf("FindBestMatch on empty list = %+v, want nil", got)
		}
	})

	t.Run("all non-positive falls back to first original candidate", func(t *testing.T) {
		query := Parse("Stalker (1979)")
		candidates := []Candidate{
			{Title: "Completely Unrelated", ReleaseDate: "2001-01-01"},
			{Title: "Also Unrelated", ReleaseDate: "2002-01-01"},
		}

		got := FindBestMatch(query, candidates, testCurrentYear)
		if got == nil {
			t.Fatal("FindBestMatch returned nil for non-empty candidate list")
		}
		if got.Title != "Completely Unrelated" {
			t.Errorf("fallback = %q, want first candidate in original order", got.Title)
		}
	})

	t.Run("ties keep original relative order", func(t *testing.T) {
		query := Parse("Dune")
		first := Candidate{Title: "Dune", ReleaseDate: "2010-01-01"}
		second := Candidate{Title: "Dune", ReleaseDate: "2012-01-01"}

		got := FindBestMatch(query, []Candidate{first, second}, testCurrentYear)
		if got == nil || got.ReleaseDate != first.ReleaseDate {
			t.Errorf("stable tie-break violated: got %+v", got)
		}
	})
}

func TestScoreCandidates_SortedDescending(t *testing.T) {
	query := Parse("Dune")
	candidates := []Candidate{
		{Title: "Something Else"},
		{Title: "Dune", VoteCount: 5000},
		{Title: "Dune: Part Two"},
	}

	scored := ScoreCandidates(query, candidates, testCurrentYear)
	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[i-1].Score {
			t.Fatalf("scores not descending: %d before %d", scored[i-1].Score, scored[i].Score)
		}
	}
	if scored[0].Candidate.VoteCount != 5000 {
		t.Errorf("best candidate = %+v, want the exact-title popular one", scored[0].Candidate)
	}
}

// Full pipeline walk-through: listing "Nosferatu 1922" against the 1922 original
// with strong votes and rating.
func TestScoreMatch_EndToEnd(t *testing.T) {
	query := Parse("Nosferatu 1922")
	if query.Year != 1922 || query.Normalized != "nosferatu" {
		t.Fatalf("Parse = %+v", query)
	}

	candidate := Candidate{
		Title:       "Nosferatu",
		ReleaseDate: "1922-03-04",
		VoteCount:   5000,
		VoteAverage: 7.8,
	}

	got := ScoreMatch(query, candidate, testCurrentYear)
	want := 100 + 50 + 15 + 5
	if got != want {
		t.Errorf("ScoreMatch = %d, want %d", got, want)
	}
}
