package titlematch

import (
	"testing"
)

func TestParse_YearExtraction(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantNormalized string
		wantYear       int
	}{
		{
			name:           "parenthesized trailing year",
			raw:            "Dune (2021)",
			wantNormalized: "dune",
			wantYear:       2021,
		},
		{
			name:           "bracketed trailing year",
			raw:            "Metropolis [1927]",
			wantNormalized: "metropolis",
			wantYear:       1927,
		},
		{
			name:           "bare trailing year",
			raw:            "Nosferatu 1922",
			wantNormalized: "nosferatu",
			wantYear:       1922,
		},
		{
			name:           "no year",
			raw:            "Metropolis",
			wantNormalized: "metropolis",
			wantYear:       0,
		},
		{
			name:           "year inside the title is kept",
			raw:            "2001: A Space Odyssey",
			wantNormalized: "2001 a space odyssey",
			wantYear:       0,
		},
		{
			name:           "title year plus release year",
			raw:            "Blade Runner 2049 (2017)",
			wantNormalized: "blade runner 2049",
			wantYear:       2017,
		},
		{
			name:           "out-of-range number is not a year",
			raw:            "Cinema 3000",
			wantNormalized: "cinema 3000",
			wantYear:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Normalized != tt.wantNormalized {
				t.Errorf("Normalized = %q, want %q", got.Normalized, tt.wantNormalized)
			}
			if got.Year != tt.wantYear {
				t.Errorf("Year = %d, want %d", got.Year, tt.wantYear)
			}
			if got.Original != tt.raw {
				t.Errorf("Original = %q, want untouched input %q", got.Original, tt.raw)
			}
		})
	}
}

func TestParse_SpecialEditions(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantNormalized string
		wantSpecial    bool
	}{
		{
			name:           "colon-separated director's cut",
			raw:            "Blade Runner: Director's Cut",
			wantNormalized: "blade runner",
			wantSpecial:    true,
		},
		{
			name:           "dash-separated extended edition",
			raw:            "The Lord of the Rings – Extended Edition",
			wantNormalized: "lord of the rings",
			wantSpecial:    true,
		},
		{
			name:           "parenthesized remaster",
			raw:            "Apocalypse Now (Remastered)",
			wantNormalized: "apocalypse now",
			wantSpecial:    true,
		},
		{
			name:           "bracketed 4k restoration",
			raw:            "Seven Samurai [4K Restoration]",
			wantNormalized: "seven samurai",
			wantSpecial:    true,
		},
		{
			name:           "bare trailing marker",
			raw:            "Alien Unrated",
			wantNormalized: "alien",
			wantSpecial:    true,
		},
		{
			name:           "edition before trailing year",
			raw:            "Metropolis Restored (1927)",
			wantNormalized: "metropolis",
			wantSpecial:    true,
		},
		{
			name:           "plain title is not special",
			raw:            "The Godfather",
			wantNormalized: "godfather",
			wantSpecial:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Normalized != tt.wantNormalized {
				t.Errorf("Normalized = %q, want %q", got.Normalized, tt.wantNormalized)
			}
			if got.SpecialEdition != tt.wantSpecial {
				t.Errorf("SpecialEdition = %v, want %v", got.SpecialEdition, tt.wantSpecial)
			}
		})
	}
}

func TestParse_EventMarkers(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantNormalized string
	}{
		{
			name:           "en-dash presented by",
			raw:            "The Room – Presented by Greg Sestero",
			wantNormalized: "room",
		},
		{
			name:           "hyphen hosted by",
			raw:            "Casablanca - Hosted by the Film Society",
			wantNormalized: "casablanca",
		},
		{
			name:           "em-dash with live score",
			raw:            "Nosferatu — with live organ accompaniment",
			wantNormalized: "nosferatu",
		},
		{
			name:           "plus q&a",
			raw:            "Clerks + Q&A",
			wantNormalized: "clerks",
		},
		{
			name:           "plus shorts",
			raw:            "Eraserhead + Shorts",
			wantNormalized: "eraserhead",
		},
		{
			name:           "parenthetical q&a",
			raw:            "The Host (with Q&A)",
			wantNormalized: "host",
		},
		{
			name:           "sing-along",
			raw:            "Frozen - Sing-Along",
			wantNormalized: "frozen",
		},
		{
			name:           "double feature",
			raw:            "Grindhouse - Double Feature",
			wantNormalized: "grindhouse",
		},
		{
			name:           "the experience branding",
			raw:            "Interstellar: The Experience",
			wantNormalized: "interstellar",
		},
		{
			name:           "marker then year",
			raw:            "Jaws (1975) - Free Screening",
			wantNormalized: "jaws",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Normalized != tt.wantNormalized {
				t.Errorf("Parse(%q).Normalized = %q, want %q", tt.raw, got.Normalized, tt.wantNormalized)
			}
		})
	}
}

func TestParse_Normalization(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantNormalized string
	}{
		{"strips leading the", "The Godfather", "godfather"},
		{"strips leading french article", "La Haine", "haine"},
		{"strips leading german article", "Das Boot", "boot"},
		{"only one article stripped", "The A Team", "a team"},
		{"punctuation removed", "What's Up, Doc?", "whats up doc"},
		{"ampersand kept", "Fast & Furious", "fast & furious"},
		{"and becomes ampersand", "Crouching Tiger and Hidden Dragon", "crouching tiger & hidden dragon"},
		{"whitespace collapsed", "  The   Thing  ", "thing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got.Normalized != tt.wantNormalized {
				t.Errorf("Parse(%q).Normalized = %q, want %q", tt.raw, got.Normalized, tt.wantNormalized)
			}
		})
	}
}

// Normalization is a fixed point: feeding a normalized title back through
// Parse yields the same normalized string.
func TestParse_Idempotent(t *testing.T) {
	inputs := []string{
		"The Room – Presented by Greg Sestero",
		"Dune (2021)",
		"Blade Runner: Director's Cut",
		"Fast & Furious",
		"What's Up, Doc?",
	}

	for _, raw := range inputs {
		once := Parse(raw).Normalized
		twice := Parse(once).Normalized
		if once != twice {
			t.Errorf("Parse(Parse(%q)) = %q, want fixed point %q", raw, twice, once)
		}
	}
}

func TestParse_NeverPanicsOnOddInput(t *testing.T) {
	inputs := []string{"", "   ", "–", "+", "(1999)", "1999", "&&&&"}

	for _, raw := range inputs {
		got := Parse(raw)
		if got.Original != raw {
			t.Errorf("Parse(%q).Original = %q", raw, got.Original)
		}
	}
}
