// Package catalog holds the read-only theme reference data: weekly themes,
// their daily facets, and the sabbat lead-up sequences.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var defaultThemes []byte

// Category is the thematic bucket a theme belongs to.
type Category string

const (
	CategoryZodiac     Category = "zodiac"
	CategoryTarot      Category = "tarot"
	CategoryLunar      Category = "lunar"
	CategoryPlanetary  Category = "planetary"
	CategoryCrystals   Category = "crystals"
	CategoryNumerology Category = "numerology"
	CategoryChakras    Category = "chakras"
	CategorySabbat     Category = "sabbat"
)

const (
	FacetsPerTheme  = 7
	LeadUpDays      = 4
	maxLeadUpOffset = LeadUpDays - 1
)

func (c Category) valid() bool {
	switch c {
	case CategoryZodiac, CategoryTarot, CategoryLunar, CategoryPlanetary,
		CategoryCrystals, CategoryNumerology, CategoryChakras, CategorySabbat:
		return true
	}
	return false
}

// Thread is a conversational hook attached to a facet.
type Thread struct {
	Keyword string   `yaml:"keyword"`
	Angles  []string `yaml:"angles"`
}

// Facet is one day-slot sub-topic within a theme.
type Facet struct {
	Title         string   `yaml:"title"`
	Focus         string   `yaml:"focus"`
	ShortFormHook string   `yaml:"short_form_hook"`
	GrimoireSlug  string   `yaml:"grimoire_slug"`
	Threads       []Thread `yaml:"threads"`
}

// Theme is a weekly thematic bucket with one facet per weekday.
type Theme struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Category    Category `yaml:"category"`
	Description string   `yaml:"description"`
	Facets      []Facet  `yaml:"facets"`
}

// MonthDay is a calendar date without a year.
type MonthDay struct {
	Month int `yaml:"month"`
	Day   int `yaml:"day"`
}

// Sabbat is a seasonal theme whose lead-up facets replace the regular
// facets on the days just before and on the sabbat itself.
type Sabbat struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Category     Category `yaml:"category"`
	Date         MonthDay `yaml:"date"`
	Description  string   `yaml:"description"`
	LeadUpFacets []Facet  `yaml:"lead_up_facets"`
}

// Catalog is the immutable set of themes and sabbats loaded at start.
type Catalog struct {
	Themes  []Theme  `yaml:"themes"`
	Sabbats []Sabbat `yaml:"sabbats"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultThemes)
}

// Load reads a catalog file from disk.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Themes) == 0 {
		return errors.New("themes: at least one theme is required")
	}

	seen := make(map[string]bool, len(c.Themes)+len(c.Sabbats))
	for i, th := range c.Themes {
		if strings.TrimSpace(th.ID) == "" {
			return fmt.Errorf("themes[%d]: id is required", i)
		}
		if seen[th.ID] {
			return fmt.Errorf("themes[%d]: duplicate id %q", i, th.ID)
		}
		seen[th.ID] = true
		if !th.Category.valid() || th.Category == CategorySabbat {
			return fmt.Errorf("theme %s: unknown category %q", th.ID, th.Category)
		}
		if len(th.Facets) != FacetsPerTheme {
			return fmt.Errorf("theme %s: has %d facets, want %d", th.ID, len(th.Facets), FacetsPerTheme)
		}
		if err := validateFacets(th.ID, th.Facets); err != nil {
			return err
		}
	}

	for i, sb := range c.Sabbats {
		if strings.TrimSpace(sb.ID) == "" {
			return fmt.Errorf("sabbats[%d]: id is required", i)
		}
		if seen[sb.ID] {
			return fmt.Errorf("sabbats[%d]: duplicate id %q", i, sb.ID)
		}
		seen[sb.ID] = true
		if sb.Date.Month < 1 || sb.Date.Month > 12 || sb.Date.Day < 1 || sb.Date.Day > 31 {
			return fmt.Errorf("sabbat %s: invalid date %d/%d", sb.ID, sb.Date.Month, sb.Date.Day)
		}
		if len(sb.LeadUpFacets) != LeadUpDays {
			return fmt.Errorf("sabbat %s: has %d lead-up facets, want %d", sb.ID, len(sb.LeadUpFacets), LeadUpDays)
		}
		if err := validateFacets(sb.ID, sb.LeadUpFacets); err != nil {
			return err
		}
	}
	return nil
}

func validateFacets(owner string, facets []Facet) error {
	for i, f := range facets {
		if strings.TrimSpace(f.Title) == "" {
			return fmt.Errorf("%s: facets[%d]: title is required", owner, i)
		}
	}
	return nil
}

// Theme returns the theme at index, wrapping around the theme list.
func (c *Catalog) Theme(index int) Theme {
	n := len(c.Themes)
	i := index % n
	if i < 0 {
		i += n
	}
	return c.Themes[i]
}

// ThemeByID looks up a theme by id.
func (c *Catalog) ThemeByID(id string) (Theme, bool) {
	for _, th := range c.Themes {
		if th.ID == id {
			return th, true
		}
	}
	return Theme{}, false
}

// ThemeIndexByName returns the catalog position of the theme with the given
// display name, or -1.
func (c *Catalog) ThemeIndexByName(name string) int {
	for i, th := range c.Themes {
		if th.Name == name {
			return i
		}
	}
	return -1
}
