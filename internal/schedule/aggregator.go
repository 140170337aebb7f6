package schedule

import (
	"sort"
	"time"
)

// ScreeningEvent is one listing entry exactly as the cinema's schedule
// produced it: a raw title and ISO-8601-ish timestamps as strings.
type ScreeningEvent struct {
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	ImageRef string `json:"imageRef,omitempty"`
}

// Showtime is one parsed screening slot.
type Showtime struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// MovieAggregate merges every screening of one title into a single record.
// The title is the grouping key, exact and case-sensitive as received.
type MovieAggregate struct {
	Title     string     `json:"title"`
	ImageRef  string     `json:"imageRef,omitempty"`
	Showtimes []Showtime `json:"showtimes"`
}

// startTimeLayouts are the timestamp shapes cinema listing feeds use.
// Tried in order; the first parse wins.
var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Aggregate groups screenings by title and orders the result for display,
// using the current wall clock to decide which showtimes count as upcoming.
func Aggregate(events []ScreeningEvent) []MovieAggregate {
	return AggregateAt(events, time.Now())
}

// AggregateAt is Aggregate with an explicit "now", which keeps the ordering
// rule deterministic under test.
//
// Events with an unparseable start time are dropped individually; the rest
// of the batch proceeds. Duplicate identical showtimes from the source pass
// through unchanged, since the listing may genuinely run the same film on
// two screens at once.
func AggregateAt(events []ScreeningEvent, now time.Time) []MovieAggregate {
	groups := make(map[string]*MovieAggregate)
	order := make([]string, 0)

	for _, event := range events {
		start, ok := parseTimestamp(event.Start)
		if !ok {
			continue
		}

		group, exists := groups[event.Title]
		if !exists {
			group = &MovieAggregate{Title: event.Title}
			groups[event.Title] = group
			order = append(order, event.Title)
		}

		showtime := Showtime{Start: start}
		if end, ok := parseTimestamp(event.End); ok {
			showtime.End = &end
		}
		group.Showtimes = append(group.Showtimes, showtime)

		// First non-empty image wins for the whole group.
		if group.ImageRef == "" && event.ImageRef != "" {
			group.ImageRef = event.ImageRef
		}
	}

	aggregates := make([]MovieAggregate, 0, len(order))
	for _, title := range order {
		group := groups[title]
		sort.SliceStable(group.Showtimes, func(i, j int) bool {
			return group.Showtimes[i].Start.Before(group.Showtimes[j].Start)
		})
		aggregates = append(aggregates, *group)
	}

	sort.SliceStable(aggregates, func(i, j int) bool {
		left, leftOK := nextShowtime(aggregates[i], now)
		right, rightOK := nextShowtime(aggregates[j], now)
		if leftOK != rightOK {
			return leftOK
		}
		if !leftOK {
			return aggregates[i].Title < aggregates[j].Title
		}
		if !left.Equal(right) {
			return left.Before(right)
		}
		return aggregates[i].Title < aggregates[j].Title
	})

	return aggregates
}

// nextShowtime returns the earliest upcoming showtime, falling back to the
// group's first showtime when everything has already screened.
func nextShowtime(aggregate MovieAggregate, now time.Time) (time.Time, bool) {
	for _, showtime := range aggregate.Showtimes {
		if showtime.Start.After(now) {
			return showtime.Start, true
		}
	}
	if len(aggregate.Showtimes) > 0 {
		return aggregate.Showtimes[0].Start, true
	}
	return time.Time{}, false
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range startTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
