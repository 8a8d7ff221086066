// Package scoring turns raw content performance into per-category
// scheduling weights and draws categories from them.
package scoring

import (
	"sort"

	"github.com/ppiankov/orbitplan/internal/config"
)

const (
	TierS = "S"
	TierA = "A"
	TierB = "B"
	TierC = "C"
	TierD = "D"

	// DefaultSeedWeight applies to categories with no seed entry.
	DefaultSeedWeight = 0.3
)

// SeedWeight is a historically derived prior for a content category.
type SeedWeight struct {
	Weight     float64
	Tier       string
	AvgViews   float64
	MaxPerWeek int // 0 means uncapped
}

var defaultSeeds = map[string]SeedWeight{
	"angel-number":        {Weight: 0.90, Tier: TierS, AvgViews: 1200, MaxPerWeek: 3},
	"sign-identity":       {Weight: 0.85, Tier: TierS, AvgViews: 950, MaxPerWeek: 3},
	"tarot-card":          {Weight: 0.70, Tier: TierA, AvgViews: 620, MaxPerWeek: 2},
	"moon-phase":          {Weight: 0.65, Tier: TierA, AvgViews: 540, MaxPerWeek: 2},
	"retrograde":          {Weight: 0.60, Tier: TierA, AvgViews: 500, MaxPerWeek: 2},
	"compatibility":       {Weight: 0.55, Tier: TierB, AvgViews: 410, MaxPerWeek: 2},
	"crystal-guide":       {Weight: 0.45, Tier: TierB, AvgViews: 320, MaxPerWeek: 1},
	"planet-placement":    {Weight: 0.40, Tier: TierB, AvgViews: 290, MaxPerWeek: 1},
	"life-path":           {Weight: 0.35, Tier: TierC, AvgViews: 210, MaxPerWeek: 1},
	"myth-busting":        {Weight: 0.30, Tier: TierC, AvgViews: 180, MaxPerWeek: 1},
	"chakra-check":        {Weight: 0.25, Tier: TierC, AvgViews: 150, MaxPerWeek: 1},
	"sabbat-ritual":       {Weight: 0.20, Tier: TierD, AvgViews: 120, MaxPerWeek: 1},
	"daily-horoscope":     {Weight: 0.10, Tier: TierD, AvgViews: 70, MaxPerWeek: 0},
	"generic-affirmation": {Weight: 0.10, Tier: TierD, AvgViews: 55, MaxPerWeek: 0},
}

// Verified poor performers; weight is always 0.
var defaultSuppress = []string{"daily-horoscope", "generic-affirmation"}

// SeedTable is the immutable set of priors and the static suppress list.
type SeedTable struct {
	seeds    map[string]SeedWeight
	suppress map[string]bool
}

// DefaultSeeds returns the built-in seed table.
func DefaultSeeds() *SeedTable {
	return NewSeedTable(nil)
}

// NewSeedTable merges a seed profile over the built-in table. A profile
// suppress list replaces the built-in one.
func NewSeedTable(profile *config.SeedProfile) *SeedTable {
	t := &SeedTable{
		seeds:    make(map[string]SeedWeight, len(defaultSeeds)),
		suppress: make(map[string]bool),
	}
	for k, v := range defaultSeeds {
		t.seeds[k] = v
	}
	suppress := defaultSuppress
	if profile != nil {
		for k, e := range profile.Seeds {
			t.seeds[k] = SeedWeight{Weight: e.Weight, Tier: e.Tier, AvgViews: e.AvgViews, MaxPerWeek: e.MaxPerWeek}
		}
		if profile.Suppress != nil {
			suppress = profile.Suppress
		}
	}
	for _, s := range suppress {
		t.suppress[s] = true
	}
	return t
}

// Seed returns the prior for category, or the default weight.
func (t *SeedTable) Seed(category string) (SeedWeight, bool) {
	s, ok := t.seeds[category]
	if !ok {
		return SeedWeight{Weight: DefaultSeedWeight, Tier: TierC}, false
	}
	return s, true
}

// Suppressed reports whether category is on the static suppress list.
func (t *SeedTable) Suppressed(category string) bool {
	return t.suppress[category]
}

// Categories returns the seeded category names in sorted order.
func (t *SeedTable) Categories() []string {
	out := make([]string, 0, len(t.seeds))
	for k := range t.seeds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// StaticSuppressed returns the static suppress list, sorted.
func (t *SeedTable) StaticSuppressed() []string {
	out := make([]string, 0, len(t.suppress))
	for k := range t.suppress {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TopTier returns unsuppressed S and A tier categories, sorted.
func (t *SeedTable) TopTier() []string {
	var out []string
	for _, k := range t.Categories() {
		s := t.seeds[k]
		if (s.Tier == TierS || s.Tier == TierA) && !t.suppress[k] {
			out = append(out, k)
		}
	}
	return out
}
