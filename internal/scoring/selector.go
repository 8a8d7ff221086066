package scoring

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"
)

// seedStream is xored into the second PCG word so a zero seed still yields
// a well-mixed stream.
const seedStream = 0x9e3779b97f4a7c15

// WeightedSelect draws one category with probability proportional to its
// weight. Excluded and non-positive entries are skipped. The same inputs and
// seed always return the same category. ok is false when nothing is eligible.
func WeightedSelect(weights map[string]float64, exclude map[string]bool, seed uint64) (string, bool) {
	candidates := make([]string, 0, len(weights))
	total := 0.0
	for cat, w := range weights {
		if exclude[cat] || !(w > 0) {
			continue
		}
		candidates = append(candidates, cat)
		total += w
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)

	rng := rand.New(rand.NewPCG(seed, seed^seedStream))
	target := rng.Float64() * total

	cum := 0.0
	for _, cat := range candidates {
		cum += weights[cat]
		if target < cum {
			return cat, true
		}
	}
	return candidates[len(candidates)-1], true
}

// SlotSeed derives a selector seed from the parts naming a logical slot,
// e.g. week start, date and facet.
func SlotSeed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// WeeklyPicker draws categories for one week, honouring suppression and
// each seed's MaxPerWeek cap.
type WeeklyPicker struct {
	weights map[string]float64
	seeds   *SeedTable
	exclude map[string]bool
	used    map[string]int
}

// NewWeeklyPicker creates a picker over scores with suppressed categories
// excluded up front.
func NewWeeklyPicker(scores map[string]CategoryScore, seeds *SeedTable, suppressed []string) *WeeklyPicker {
	if seeds == nil {
		seeds = DefaultSeeds()
	}
	exclude := make(map[string]bool, len(suppressed))
	for _, s := range suppressed {
		exclude[s] = true
	}
	return &WeeklyPicker{
		weights: Weights(scores),
		seeds:   seeds,
		exclude: exclude,
		used:    make(map[string]int),
	}
}

// Pick draws a category for the slot seed and counts it against its cap.
func (p *WeeklyPicker) Pick(seed uint64) (string, bool) {
	cat, ok := WeightedSelect(p.weights, p.exclude, seed)
	if !ok {
		return "", false
	}
	p.used[cat]++
	if s, seeded := p.seeds.Seed(cat); seeded && s.MaxPerWeek > 0 && p.used[cat] >= s.MaxPerWeek {
		p.exclude[cat] = true
	}
	return cat, true
}

// Used returns how many times each category was picked.
func (p *WeeklyPicker) Used() map[string]int {
	out := make(map[string]int, len(p.used))
	for k, v := range p.used {
		out[k] = v
	}
	return out
}
