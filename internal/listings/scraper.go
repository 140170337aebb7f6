package listings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/marquee/marquee/internal/config"
	"github.com/marquee/marquee/internal/schedule"
)

var ErrNoScheduleURL = errors.New("cinema schedule URL is not configured")

// Scraper fetches a cinema's schedule page and extracts the raw screening
// events. Titles and timestamps come out exactly as published; cleaning them
// up is the matching core's job.
type Scraper struct {
	httpClient *http.Client
	cfg        config.CinemaConfig
	def        Definition
	location   *time.Location
	logger     zerolog.Logger
}

// NewScraper creates a scraper for the configured cinema.
func NewScraper(cfg config.CinemaConfig, logger zerolog.Logger) (*Scraper, error) {
	def, err := LoadDefinition(cfg.Definition)
	if err != nil {
		return nil, err
	}

	location := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		location, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid cinema timezone %q: %w", cfg.Timezone, err)
		}
	}

	timeout := cfg.TimeoutSecs
	if timeout <= 0 {
		timeout = 30
	}

	return &Scraper{
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		cfg:        cfg,
		def:        def,
		location:   location,
		logger:     logger.With().Str("component", "listings").Logger(),
	}, nil
}

// FetchEvents downloads the schedule page and extracts its screening events.
func (s *Scraper) FetchEvents(ctx context.Context) ([]schedule.ScreeningEvent, error) {
	if s.cfg.ScheduleURL == "" {
		return nil, ErrNoScheduleURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.ScheduleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule page returned status %d", resp.StatusCode)
	}

	events, err := s.ParseSchedule(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("url", s.cfg.ScheduleURL).
		Int("events", len(events)).
		Msg("Fetched cinema schedule")

	return events, nil
}

// ParseSchedule extracts screening events from schedule page HTML.
func (s *Scraper) ParseSchedule(body io.Reader) ([]schedule.ScreeningEvent, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule HTML: %w", err)
	}

	sel := s.def.Selectors
	events := make([]schedule.ScreeningEvent, 0)

	doc.Find(sel.Event).Each(func(_ int, node *goquery.Selection) {
		title := extract(node, sel.Title, sel.TitleAttr)
		start := extract(node, sel.Start, sel.StartAttr)
		if title == "" || start == "" {
			return
		}

		event := schedule.ScreeningEvent{
			Title: title,
			Start: s.normalizeTimestamp(start),
		}
		if sel.End != "" {
			event.End = s.normalizeTimestamp(extract(node, sel.End, sel.EndAttr))
		}
		if sel.Image != "" {
			event.ImageRef = extract(node, sel.Image, sel.ImageAttr)
		}

		events = append(events, event)
	})

	return events, nil
}

// extract reads either an attribute or the trimmed text of the first node
// matching the selector.
func extract(node *goquery.Selection, selector, attr string) string {
	if selector == "" {
		return ""
	}
	found := node.Find(selector).First()
	if attr != "" {
		value, _ := found.Attr(attr)
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(found.Text())
}

// normalizeTimestamp re-emits a raw page timestamp as RFC 3339 when one of
// the definition's layouts matches, interpreting zone-less values in the
// cinema's timezone. Anything unparseable passes through raw; the aggregator
// decides whether to drop it.
func (s *Scraper) normalizeTimestamp(raw string) string {
	if raw == "" || len(s.def.TimeLayouts) == 0 {
		return raw
	}
	for _, layout := range s.def.TimeLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, s.location); err == nil {
			return parsed.Format(time.RFC3339)
		}
	}
	return raw
}
