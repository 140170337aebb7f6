package titlematch

import (
	"sort"
	"strconv"
	"strings"
)

// Candidate is a metadata-source search result being evaluated as a possible
// match for a listing title. The scorer never mutates it.
type Candidate struct {
	Title         string  `json:"title"`
	OriginalTitle string  `json:"originalTitle,omitempty"` // alternate-language title
	ReleaseDate   string  `json:"releaseDate,omitempty"`   // YYYY-MM-DD, may be empty
	VoteAverage   float64 `json:"voteAverage,omitempty"`   // 0-10
	VoteCount     int     `json:"voteCount,omitempty"`
}

// ReleaseYear extracts the release year from the candidate's release date.
// Returns 0 when the date is missing or unparseable.
func (c Candidate) ReleaseYear() int {
	if len(c.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(c.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// ScoredCandidate pairs a candidate with its match score for the duration of
// a single selection.
type ScoredCandidate struct {
	Candidate Candidate `json:"candidate"`
	Score     int       `json:"score"`
}

// Scoring weights. These are tuned heuristics carried over from observed
// matching behavior against real repertory listings; treat them as tunable
// constants, not derived values.
const (
	scoreExactTitle     = 100
	scoreSubstringTitle = 50
	fuzzyThreshold      = 0.7
	fuzzyScale          = 40

	scoreYearExact    = 50
	scoreYearAdjacent = 20
	scoreYearMismatch = -30

	// Applied when the listing has no year of its own: favor very recent
	// releases and decades-old revivals over the mid-range, which matches
	// how repertory programming actually skews.
	scoreRecentRelease  = 25 // released within the last 2 years
	scoreNewishRelease  = 10 // within the last 5
	scoreClassicRevival = 5  // older than 30 years

	scoreVotesHigh = 15 // more than 1000 votes
	scoreVotesMid  = 10 // more than 100
	scoreVotesLow  = 5  // more than 10

	scoreWellRated    = 5 // vote average above ratingFloor
	ratingFloor       = 7.0
	recentYearsWindow = 2
	newishYearsWindow = 5
	revivalYearsFloor = 30
)

// ScoreMatch computes the additive match score between a parsed listing
// title and one candidate. The factors are independent: exactly one title
// branch and one year branch apply, while popularity and rating always do,
// so a popular wrong-year candidate can still lose to an obscure
// correct-year one.
func ScoreMatch(query ParsedTitle, candidate Candidate, currentYear int) int {
	score := scoreTitleFactor(query.Normalized, candidate)
	score += scoreYearFactor(query.Year, candidate.ReleaseYear(), currentYear)

	switch {
	case candidate.VoteCount > 1000:
		score += scoreVotesHigh
	case candidate.VoteCount > 100:
		score += scoreVotesMid
	case candidate.VoteCount > 10:
		score += scoreVotesLow
	}

	if candidate.VoteAverage > ratingFloor {
		score += scoreWellRated
	}

	return score
}

// scoreTitleFactor picks exactly one title-similarity branch, first match wins.
func scoreTitleFactor(queryNorm string, candidate Candidate) int {
	candNorm := Parse(candidate.Title).Normalized

	if queryNorm == candNorm {
		return scoreExactTitle
	}
	if candidate.OriginalTitle != "" && queryNorm == Parse(candidate.OriginalTitle).Normalized {
		return scoreExactTitle
	}
	if queryNorm != "" && candNorm != "" &&
		(strings.Contains(candNorm, queryNorm) || strings.Contains(queryNorm, candNorm)) {
		return scoreSubstringTitle
	}
	if similarity := similarityRatio(queryNorm, candNorm); similarity > fuzzyThreshold {
		return int(similarity * fuzzyScale)
	}
	return 0
}

// scoreYearFactor picks the single applicable year-agreement branch.
func scoreYearFactor(queryYear, candidateYear, currentYear int) int {
	switch {
	case queryYear != 0 && candidateYear != 0:
		diff := queryYear - candidateYear
		if diff < 0 {
			diff = -diff
		}
		switch diff {
		case 0:
			return scoreYearExact
		case 1:
			return scoreYearAdjacent
		default:
			return scoreYearMismatch
		}
	case queryYear == 0 && candidateYear != 0:
		yearsAgo := currentYear - candidateYear
		switch {
		case yearsAgo <= recentYearsWindow:
			return scoreRecentRelease
		case yearsAgo <= newishYearsWindow:
			return scoreNewishRelease
		case yearsAgo > revivalYearsFloor:
			return scoreClassicRevival
		}
	}
	return 0
}

// FindBestMatch scores every candidate against the query and returns the
// highest scorer, provided its score is positive. When every candidate
// scores zero or below, the first candidate in original order is returned
// as a last-resort fallback; nil is returned only for an empty list.
func FindBestMatch(query ParsedTitle, candidates []Candidate, currentYear int) *Candidate {
	idx := BestIndex(query, candidates, currentYear)
	if idx < 0 {
		return nil
	}
	best := candidates[idx]
	return &best
}

// BestIndex returns the index into candidates that FindBestMatch would pick,
// or -1 for an empty list. Callers that carry richer records alongside the
// candidates use the index to recover the full record of the winner.
func BestIndex(query ParsedTitle, candidates []Candidate, currentYear int) int {
	if len(candidates) == 0 {
		return -1
	}

	bestIdx := -1
	bestScore := 0
	for i, candidate := range candidates {
		score := ScoreMatch(query, candidate, currentYear)
		// Strict > keeps the earliest candidate on ties.
		if score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx < 0 {
		// Nothing scored above zero; fall back to the source's own first result.
		return 0
	}
	return bestIdx
}

// ScoreCandidates scores all candidates and returns them sorted by score
// descending. The sort is stable: ties keep their original relative order.
func ScoreCandidates(query ParsedTitle, candidates []Candidate, currentYear int) []ScoredCandidate {
	scored := make([]ScoredCandidate, len(candidates))
	for i, candidate := range candidates {
		scored[i] = ScoredCandidate{
			Candidate: candidate,
			Score:     ScoreMatch(query, candidate, currentYear),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}
