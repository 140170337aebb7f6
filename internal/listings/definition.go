package listings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition describes how to extract screening events from a cinema's
// schedule page. Cinemas differ wildly in markup, so the selectors live in a
// small YAML document instead of code; the built-in default covers pages
// that use schema.org ScreeningEvent microdata.
type Definition struct {
	Name      string      `yaml:"name"`
	Selectors SelectorSet `yaml:"selectors"`
	// TimeLayouts are Go reference layouts tried against raw start/end text.
	// Parsed times are re-emitted as RFC 3339 in the cinema's timezone;
	// unparseable ones pass through raw for the aggregator to judge.
	TimeLayouts []string `yaml:"time_layouts"`
}

// SelectorSet holds the CSS selectors for one schedule page. Attr fields
// name the attribute to read; empty means element text.
type SelectorSet struct {
	Event     string `yaml:"event"` // container matching one screening
	Title     string `yaml:"title"`
	TitleAttr string `yaml:"title_attr"`
	Start     string `yaml:"start"`
	StartAttr string `yaml:"start_attr"`
	End       string `yaml:"end"`
	EndAttr   string `yaml:"end_attr"`
	Image     string `yaml:"image"`
	ImageAttr string `yaml:"image_attr"`
}

// DefaultDefinition returns the built-in schema.org microdata definition.
func DefaultDefinition() Definition {
	return Definition{
		Name: "schema.org ScreeningEvent",
		Selectors: SelectorSet{
			Event:     `[itemtype$="ScreeningEvent"]`,
			Title:     `[itemprop="name"]`,
			Start:     `[itemprop="startDate"]`,
			StartAttr: "content",
			End:       `[itemprop="endDate"]`,
			EndAttr:   "content",
			Image:     `[itemprop="image"]`,
			ImageAttr: "src",
		},
	}
}

// LoadDefinition reads a selector definition from a YAML file. An empty path
// yields the built-in default.
func LoadDefinition(path string) (Definition, error) {
	if path == "" {
		return DefaultDefinition(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to read definition file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("failed to parse definition file: %w", err)
	}

	if def.Selectors.Event == "" || def.Selectors.Title == "" || def.Selectors.Start == "" {
		return Definition{}, fmt.Errorf("definition %q is missing required selectors (event, title, start)", def.Name)
	}

	return def, nil
}
