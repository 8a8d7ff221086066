package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ppiankov/orbitplan/internal/telemetry"
)

const (
	DefaultWindowDays      = 30
	DefaultMinDataPoints   = 10
	DefaultNudgeMinPoints  = 3
	DefaultHalfLifeDays    = 14
	DefaultTrendRecentDays = 7

	maxNudge          = 0.2
	trendBoost        = 0.15
	strongDeclineMark = -0.3

	autoSuppressViews = 100
	autoPromoteViews  = 400
)

// CategoryScore is the derived per-run view of one content category.
type CategoryScore struct {
	Category   string
	Score      float64 // recency-decayed mean engagement
	Count      int
	AvgViews   float64
	Trend      float64 // recent vs prior avg views, in [-1,1]
	Weight     float64 // final scheduling weight, in [0,1]
	Seeded     bool    // weight came from the seed prior
	Suppressed bool    // on the static suppress list
}

// PerformanceSource supplies raw performance rows recorded at or after since.
type PerformanceSource interface {
	PerformanceSince(ctx context.Context, since time.Time) ([]telemetry.Record, error)
}

// Options tunes the score engine. Zero values take defaults.
type Options struct {
	MinDataPoints   int
	NudgeMinPoints  int
	HalfLifeDays    float64
	TrendRecentDays int
}

func (o Options) withDefaults() Options {
	if o.MinDataPoints <= 0 {
		o.MinDataPoints = DefaultMinDataPoints
	}
	if o.NudgeMinPoints <= 0 {
		o.NudgeMinPoints = DefaultNudgeMinPoints
	}
	if o.HalfLifeDays <= 0 {
		o.HalfLifeDays = DefaultHalfLifeDays
	}
	if o.TrendRecentDays <= 0 {
		o.TrendRecentDays = DefaultTrendRecentDays
	}
	return o
}

// Engine blends live performance with seed priors.
type Engine struct {
	seeds  *SeedTable
	source PerformanceSource
	opts   Options
	now    func() time.Time
}

// NewEngine creates a score engine. A nil seed table uses the defaults.
func NewEngine(seeds *SeedTable, source PerformanceSource, opts Options) *Engine {
	if seeds == nil {
		seeds = DefaultSeeds()
	}
	return &Engine{
		seeds:  seeds,
		source: source,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

// Seeds returns the engine's seed table.
func (e *Engine) Seeds() *SeedTable {
	return e.seeds
}

// ContentTypeWeights computes a weight for every seeded category and every
// category seen in the last windowDays of performance data.
func (e *Engine) ContentTypeWeights(ctx context.Context, windowDays int) (map[string]CategoryScore, error) {
	if e == nil {
		return nil, errors.New("score engine is not initialized")
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	now := e.now()
	var records []telemetry.Record
	if e.source != nil {
		var err error
		records, err = e.source.PerformanceSince(ctx, now.AddDate(0, 0, -windowDays))
		if err != nil {
			return nil, fmt.Errorf("load performance: %w", err)
		}
	}
	return ComputeWeights(records, e.seeds, e.opts, now), nil
}

// SuppressedCategories returns the static suppress list plus any category
// with enough data and poor average views.
func (e *Engine) SuppressedCategories(ctx context.Context, windowDays int) ([]string, error) {
	scores, err := e.ContentTypeWeights(ctx, windowDays)
	if err != nil {
		return nil, err
	}
	return Suppressed(scores, e.seeds, e.opts.MinDataPoints), nil
}

// PromotedCategories returns categories performing well on live data,
// falling back to the S and A tier seeds.
func (e *Engine) PromotedCategories(ctx context.Context, windowDays int) ([]string, error) {
	scores, err := e.ContentTypeWeights(ctx, windowDays)
	if err != nil {
		return nil, err
	}
	return Promoted(scores, e.seeds, e.opts.NudgeMinPoints), nil
}

type aggregate struct {
	count       int
	views       float64
	decayedSum  float64
	decayWeight float64
	recentViews float64
	recentCount int
	priorViews  float64
	priorCount  int
}

// ComputeWeights is the pure part of ContentTypeWeights.
func ComputeWeights(records []telemetry.Record, seeds *SeedTable, opts Options, now time.Time) map[string]CategoryScore {
	if seeds == nil {
		seeds = DefaultSeeds()
	}
	opts = opts.withDefaults()
	recentCutoff := now.AddDate(0, 0, -opts.TrendRecentDays)

	aggs := make(map[string]*aggregate)
	for _, r := range records {
		if r.Category == "" {
			continue
		}
		a := aggs[r.Category]
		if a == nil {
			a = &aggregate{}
			aggs[r.Category] = a
		}
		ageDays := now.Sub(r.RecordedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		decay := math.Pow(0.5, ageDays/opts.HalfLifeDays)
		a.count++
		a.views += float64(r.Views)
		a.decayedSum += decay * engagement(r)
		a.decayWeight += decay
		if r.RecordedAt.Before(recentCutoff) {
			a.priorViews += float64(r.Views)
			a.priorCount++
		} else {
			a.recentViews += float64(r.Views)
			a.recentCount++
		}
	}

	out := make(map[string]CategoryScore, len(aggs)+len(seeds.seeds))
	maxScore := 0.0
	for cat, a := range aggs {
		cs := CategoryScore{Category: cat, Count: a.count}
		if a.decayWeight > 0 {
			cs.Score = a.decayedSum / a.decayWeight
		}
		cs.AvgViews = a.views / float64(a.count)
		cs.Trend = trend(a)
		if cs.Score > maxScore {
			maxScore = cs.Score
		}
		out[cat] = cs
	}
	for _, cat := range seeds.Categories() {
		if _, ok := out[cat]; !ok {
			out[cat] = CategoryScore{Category: cat}
		}
	}

	for cat, cs := range out {
		cs.Weight, cs.Seeded = weightFor(cs, seeds, opts, maxScore)
		cs.Suppressed = seeds.Suppressed(cat)
		out[cat] = cs
	}
	return out
}

func weightFor(cs CategoryScore, seeds *SeedTable, opts Options, maxScore float64) (float64, bool) {
	if seeds.Suppressed(cs.Category) {
		return 0, false
	}
	if cs.Count < opts.MinDataPoints {
		seed, _ := seeds.Seed(cs.Category)
		w := seed.Weight
		if cs.Count >= opts.NudgeMinPoints && maxScore > 0 {
			w += maxNudge * (cs.Score / maxScore)
		}
		return clamp(w, 0, 1), true
	}

	w := 0.0
	if maxScore > 0 {
		w = cs.Score / maxScore
	}
	switch {
	case cs.Trend > 0:
		w += trendBoost * math.Min(cs.Trend, 1)
	case cs.Trend < strongDeclineMark:
		w -= trendBoost * math.Min(-cs.Trend, 1)
	}
	return clamp(w, 0, 1), false
}

func engagement(r telemetry.Record) float64 {
	return float64(r.Views) + 3*float64(r.Likes) + 5*float64(r.Comments) + 8*float64(r.Shares)
}

func trend(a *aggregate) float64 {
	if a.recentCount == 0 || a.priorCount == 0 {
		return 0
	}
	recent := a.recentViews / float64(a.recentCount)
	prior := a.priorViews / float64(a.priorCount)
	return clamp((recent-prior)/math.Max(prior, 1), -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Suppressed derives the suppressed view from computed scores.
func Suppressed(scores map[string]CategoryScore, seeds *SeedTable, minDataPoints int) []string {
	if minDataPoints <= 0 {
		minDataPoints = DefaultMinDataPoints
	}
	set := make(map[string]bool)
	for _, s := range seeds.StaticSuppressed() {
		set[s] = true
	}
	for cat, cs := range scores {
		if cs.Count >= minDataPoints && cs.AvgViews < autoSuppressViews {
			set[cat] = true
		}
	}
	return sortedKeys(set)
}

// Promoted derives the promoted view from computed scores.
func Promoted(scores map[string]CategoryScore, seeds *SeedTable, minPoints int) []string {
	if minPoints <= 0 {
		minPoints = DefaultNudgeMinPoints
	}
	set := make(map[string]bool)
	for cat, cs := range scores {
		if cs.Count >= minPoints && cs.AvgViews > autoPromoteViews && !seeds.Suppressed(cat) {
			set[cat] = true
		}
	}
	if len(set) == 0 {
		return seeds.TopTier()
	}
	return sortedKeys(set)
}

// Weights flattens scores into the selector's input.
func Weights(scores map[string]CategoryScore) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for cat, cs := range scores {
		out[cat] = cs.Weight
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
