package weekplan

import (
	"time"

	"github.com/ppiankov/orbitplan/internal/catalog"
)

// Source says where a day's facet came from.
type Source string

const (
	SourceTheme  Source = "theme"
	SourceSabbat Source = "sabbat"
)

// Day is one planned day: its date, weekday offset and the facet it covers.
type Day struct {
	Date   time.Time
	Offset int
	Facet  catalog.Facet
	Source Source

	// Theme is the week's primary theme, set on every day.
	Theme catalog.Theme

	// LeadUp is set when Source is SourceSabbat; SabbatDay when the date is
	// the sabbat itself.
	LeadUp    catalog.LeadUp
	SabbatDay bool
}

// DateKey is the day as YYYY-MM-DD.
func (d Day) DateKey() string { return d.Date.Format(time.DateOnly) }

// Topic is the facet title.
func (d Day) Topic() string { return d.Facet.Title }

// ThemeName is the sabbat name on lead-up days and the primary theme name
// otherwise.
func (d Day) ThemeName() string {
	if d.Source == SourceSabbat {
		return d.LeadUp.Sabbat.Name
	}
	return d.Theme.Name
}

// Category is the catalog category of the facet's owner.
func (d Day) Category() catalog.Category {
	if d.Source == SourceSabbat {
		return d.LeadUp.Sabbat.Category
	}
	return d.Theme.Category
}

// Plan is the facet assignment for one week.
type Plan struct {
	Week       Week
	ThemeIndex int
	Theme      catalog.Theme
	Days       []Day
}

// Build assigns one facet per day in theme order, substituting sabbat
// lead-up facets on the days leading to a sabbat.
func Build(cat *catalog.Catalog, week Week, themeIndex int) Plan {
	theme := cat.Theme(themeIndex)
	plan := Plan{
		Week:       week,
		ThemeIndex: themeIndex,
		Theme:      theme,
		Days:       make([]Day, 0, daysPerWeek),
	}
	for i, date := range week.Days() {
		day := Day{
			Date:   date,
			Offset: i,
			Facet:  theme.Facets[i%len(theme.Facets)],
			Source: SourceTheme,
			Theme:  theme,
		}
		if lead, ok := cat.SabbatFor(date); ok {
			day.Facet = lead.Facet
			day.Source = SourceSabbat
			day.LeadUp = lead
			day.SabbatDay = lead.DaysUntil == 0
		}
		plan.Days = append(plan.Days, day)
	}
	return plan
}

// FilterFrom drops days whose offset is before offset.
func FilterFrom(days []Day, offset int) []Day {
	out := make([]Day, 0, len(days))
	for _, d := range days {
		if d.Offset >= offset {
			out = append(out, d)
		}
	}
	return out
}

// Topics returns the distinct facet titles in day order.
func (p Plan) Topics() []string {
	seen := make(map[string]bool, len(p.Days))
	var out []string
	for _, d := range p.Days {
		if seen[d.Topic()] {
			continue
		}
		seen[d.Topic()] = true
		out = append(out, d.Topic())
	}
	return out
}
