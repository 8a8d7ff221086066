package catalog

import "time"

// LeadUp describes a day that falls inside a sabbat's lead-up window.
type LeadUp struct {
	Sabbat    Sabbat
	Facet     Facet
	DaysUntil int
}

// SabbatFor reports whether date is one of the LeadUpDays days ending on a
// sabbat. The facet is LeadUpFacets[3-daysUntil], so the sabbat day itself
// gets the last lead-up facet.
func (c *Catalog) SabbatFor(date time.Time) (LeadUp, bool) {
	day := truncateDay(date)
	for _, sb := range c.Sabbats {
		for _, year := range []int{day.Year(), day.Year() + 1} {
			target := time.Date(year, time.Month(sb.Date.Month), sb.Date.Day, 0, 0, 0, 0, time.UTC)
			until := int(target.Sub(day).Hours() / 24)
			if until < 0 || until > maxLeadUpOffset {
				continue
			}
			return LeadUp{
				Sabbat:    sb,
				Facet:     sb.LeadUpFacets[maxLeadUpOffset-until],
				DaysUntil: until,
			}, true
		}
	}
	return LeadUp{}, false
}

// IsSabbatDay reports whether date is the sabbat itself.
func (c *Catalog) IsSabbatDay(date time.Time) (Sabbat, bool) {
	lu, ok := c.SabbatFor(date)
	if !ok || lu.DaysUntil != 0 {
		return Sabbat{}, false
	}
	return lu.Sabbat, true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
