package titlematch

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedTitle is the canonical, comparable form of a raw cinema listing title.
// It is recomputed on every Parse call and carries no identity of its own.
type ParsedTitle struct {
	Original       string `json:"original"`
	Normalized     string `json:"normalized"`
	Year           int    `json:"year,omitempty"`           // 0 when the listing carries no year
	SpecialEdition bool   `json:"specialEdition,omitempty"` // true if a cut/restoration marker was stripped
}

// Event markers are cinema-specific promotional suffixes ("+ Q&A",
// "– Presented by ...") unrelated to the film's actual title. Each pattern
// is applied once, in order, before year or edition extraction.
var eventMarkerPatterns = []*regexp.Regexp{
	// Dash-introduced host/event text: "The Room – Presented by Greg Sestero"
	regexp.MustCompile(`(?i)\s+[-–—]\s*(presented by|introduced by|hosted by|with|live|special)\b.*$`),
	// Dash-introduced screening formats: "Frozen - Sing-Along"
	regexp.MustCompile(`(?i)\s+[-–—]\s*(sing-?along|double feature|marathon|free screening|sneak preview|advance screening)\b.*$`),
	// Plus-prefixed extras: "Eraserhead + Shorts", "Clerks + Q&A"
	regexp.MustCompile(`(?i)\s*\+\s*(shorts?|q\s*&\s*a)\b.*$`),
	// Parenthetical extras: "The Host (with Q&A)"
	regexp.MustCompile(`(?i)\s*\((with q\s*&\s*a|live commentary)\)\s*$`),
	// Colon-prefixed event branding: "Interstellar: The Experience"
	regexp.MustCompile(`(?i)\s*:\s*the experience\s*$`),
}

// Trailing year extraction. The wrapped form is tried first; only one rule fires.
var (
	yearWrappedRegex = regexp.MustCompile(`\s*[(\[]((?:19|20)\d{2})[)\]]\s*$`)
	yearBareRegex    = regexp.MustCompile(`\s+((?:19|20)\d{2})\s*$`)
)

// specialEditionMarkers lists the cut/restoration variants that are ignored
// for title matching. Each marker is attempted through four separator shapes:
// a [:-–—]-separated suffix, a parenthesized form, a bracketed form, and a
// bare suffix.
var specialEditionMarkers = []string{
	"director's cut",
	"directors cut",
	"extended cut",
	"extended edition",
	"special edition",
	"final cut",
	"theatrical cut",
	"unrated",
	"remastered",
	"restored",
	"reconstructed",
	"anniversary edition",
	"collector's edition",
	"4k restoration",
	"4k remaster",
	"criterion",
}

type editionStripShapes struct {
	suffix  *regexp.Regexp // ": marker" / "- marker" / "– marker" / "— marker" at end
	paren   *regexp.Regexp // "(marker)"
	bracket *regexp.Regexp // "[marker]"
	bare    *regexp.Regexp // " marker" at end
}

var editionStrippers []editionStripShapes

func init() {
	editionStrippers = make([]editionStripShapes, 0, len(specialEditionMarkers))
	for _, marker := range specialEditionMarkers {
		quoted := regexp.QuoteMeta(marker)
		editionStrippers = append(editionStrippers, editionStripShapes{
			suffix:  regexp.MustCompile(`(?i)\s*[:\-–—]\s*` + quoted + `\s*$`),
			paren:   regexp.MustCompile(`(?i)\s*\(` + quoted + `\)`),
			bracket: regexp.MustCompile(`(?i)\s*\[` + quoted + `\]`),
			bare:    regexp.MustCompile(`(?i)\s+` + quoted + `\s*$`),
		})
	}
}

// Leading articles stripped during normalization, including the European ones
// that show up in repertory programming.
var leadingArticles = []string{
	"the", "a", "an", "le", "la", "les", "el", "los", "das", "der", "die",
}

var (
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s&]`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
)

// Parse converts a raw listing title into its canonical comparable form,
// extracting an embedded release year and special-edition markers along the
// way. It never fails: absent matches leave Year at 0 and SpecialEdition
// false. The strip order is fixed: event markers, then the trailing year,
// then edition markers, then casing/punctuation/article normalization.
func Parse(rawTitle string) ParsedTitle {
	working := strings.TrimSpace(rawTitle)

	for _, pattern := range eventMarkerPatterns {
		working = strings.TrimSpace(pattern.ReplaceAllString(working, ""))
	}

	working, year := extractYear(working)
	working, isSpecial := stripEditionMarkers(working)

	return ParsedTitle{
		Original:       rawTitle,
		Normalized:     normalize(working),
		Year:           year,
		SpecialEdition: isSpecial,
	}
}

// extractYear removes a trailing 4-digit year (1900-2099) from the title.
// Parenthesized/bracketed years win over bare ones; only one rule fires.
func extractYear(title string) (string, int) {
	for _, pattern := range []*regexp.Regexp{yearWrappedRegex, yearBareRegex} {
		match := pattern.FindStringSubmatch(title)
		if match == nil {
			continue
		}
		year, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return strings.TrimSpace(pattern.ReplaceAllString(title, "")), year
	}
	return title, 0
}

// stripEditionMarkers removes special-edition markers and reports whether any
// removal changed the title.
func stripEditionMarkers(title string) (string, bool) {
	stripped := title
	for _, shapes := range editionStrippers {
		for _, pattern := range []*regexp.Regexp{shapes.suffix, shapes.paren, shapes.bracket, shapes.bare} {
			stripped = strings.TrimSpace(pattern.ReplaceAllString(stripped, ""))
		}
	}
	return stripped, stripped != title
}

// normalize lowercases, strips one leading article, removes punctuation
// except the ampersand, collapses whitespace, and rewrites " and " to " & "
// so titles compare consistently with ones that already use "&".
func normalize(title string) string {
	normalized := strings.ToLower(title)
	normalized = stripLeadingArticle(normalized)
	normalized = punctuationRegex.ReplaceAllString(normalized, "")
	normalized = whitespaceRegex.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)
	normalized = strings.ReplaceAll(normalized, " and ", " & ")
	return normalized
}

// stripLeadingArticle removes at most one whole-word article prefix.
func stripLeadingArticle(title string) string {
	for _, article := range leadingArticles {
		if strings.HasPrefix(title, article+" ") {
			return title[len(article)+1:]
		}
	}
	return title
}
