package scoring

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ppiankov/orbitplan/internal/config"
	"github.com/ppiankov/orbitplan/internal/telemetry"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	records []telemetry.Record
	err     error
	since   time.Time
}

func (f *fakeSource) PerformanceSince(_ context.Context, since time.Time) ([]telemetry.Record, error) {
	f.since = since
	return f.records, f.err
}

func recs(category string, n int, views int64, age time.Duration) []telemetry.Record {
	out := make([]telemetry.Record, n)
	for i := range out {
		out[i] = telemetry.Record{Category: category, Views: views, RecordedAt: testNow.Add(-age)}
	}
	return out
}

func newTestEngine(src PerformanceSource) *Engine {
	e := NewEngine(nil, src, Options{})
	e.now = func() time.Time { return testNow }
	return e
}

func TestWeightsColdStartUsesSeeds(t *testing.T) {
	scores, err := newTestEngine(&fakeSource{}).ContentTypeWeights(context.Background(), 30)
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	an := scores["angel-number"]
	if an.Weight != 0.90 || !an.Seeded {
		t.Errorf("angel-number = %+v, want seed 0.90", an)
	}
	if got := scores["daily-horoscope"].Weight; got != 0 {
		t.Errorf("suppressed weight = %v, want 0", got)
	}
}

func TestWeightsWindowPassedToSource(t *testing.T) {
	src := &fakeSource{}
	if _, err := newTestEngine(src).ContentTypeWeights(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	if want := testNow.AddDate(0, 0, -10); !src.since.Equal(want) {
		t.Errorf("since = %v, want %v", src.since, want)
	}
}

func TestWeightsSourceError(t *testing.T) {
	_, err := newTestEngine(&fakeSource{err: errors.New("boom")}).ContentTypeWeights(context.Background(), 30)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestWeightsSmallSampleNudge(t *testing.T) {
	var records []telemetry.Record
	records = append(records, recs("tarot-card", 4, 1000, time.Hour)...)
	records = append(records, recs("moon-phase", 2, 5000, time.Hour)...)
	records = append(records, recs("retrograde", 12, 2000, time.Hour)...)

	scores := ComputeWeights(records, nil, Options{}, testNow)

	tarot := scores["tarot-card"]
	// 4 records: seed 0.70 plus 0.2 * (1000/5000).
	if math.Abs(tarot.Weight-0.74) > 1e-9 {
		t.Errorf("tarot weight = %v, want 0.74", tarot.Weight)
	}
	// 2 records: below the nudge threshold, pure seed.
	if got := scores["moon-phase"].Weight; got != 0.65 {
		t.Errorf("moon-phase weight = %v, want 0.65", got)
	}
	// 12 records: live normalized weight 2000/5000.
	retro := scores["retrograde"]
	if retro.Seeded || math.Abs(retro.Weight-0.4) > 1e-9 {
		t.Errorf("retrograde = %+v, want live 0.4", retro)
	}
}

func TestWeightsTrendAdjustment(t *testing.T) {
	var records []telemetry.Record
	// Rising: prior 100 views, recent 300 views -> trend +1 (clamped).
	records = append(records, recs("angel-number", 5, 100, 20*24*time.Hour)...)
	records = append(records, recs("angel-number", 5, 300, 24*time.Hour)...)
	// Falling: prior 1000 views, recent 200 views -> trend -0.8.
	records = append(records, recs("sign-identity", 5, 1000, 20*24*time.Hour)...)
	records = append(records, recs("sign-identity", 5, 200, 24*time.Hour)...)

	scores := ComputeWeights(records, nil, Options{}, testNow)

	an := scores["angel-number"]
	if an.Trend != 1 {
		t.Errorf("angel-number trend = %v, want 1", an.Trend)
	}
	si := scores["sign-identity"]
	if math.Abs(si.Trend+0.8) > 1e-9 {
		t.Errorf("sign-identity trend = %v, want -0.8", si.Trend)
	}

	maxScore := math.Max(an.Score, si.Score)
	wantAN := math.Min(1, an.Score/maxScore+0.15)
	if math.Abs(an.Weight-wantAN) > 1e-9 {
		t.Errorf("angel-number weight = %v, want %v", an.Weight, wantAN)
	}
	wantSI := math.Max(0, si.Score/maxScore-0.15*0.8)
	if math.Abs(si.Weight-wantSI) > 1e-9 {
		t.Errorf("sign-identity weight = %v, want %v", si.Weight, wantSI)
	}
}

func TestWeightsAlwaysBounded(t *testing.T) {
	cases := [][]telemetry.Record{
		nil,
		recs("x", 50, 0, time.Hour),
		recs("daily-horoscope", 40, 100000, time.Hour),
		append(recs("a", 20, 1, 29*24*time.Hour), recs("a", 20, 1000000, time.Hour)...),
		append(recs("b", 11, 1000000, 29*24*time.Hour), recs("b", 11, 0, time.Hour)...),
		{{Category: "future", Views: 10, RecordedAt: testNow.Add(48 * time.Hour)}},
	}
	for i, records := range cases {
		for cat, cs := range ComputeWeights(records, nil, Options{}, testNow) {
			if cs.Weight < 0 || cs.Weight > 1 || math.IsNaN(cs.Weight) {
				t.Errorf("case %d: %s weight %v out of bounds", i, cat, cs.Weight)
			}
			if cs.Suppressed && cs.Weight != 0 {
				t.Errorf("case %d: suppressed %s weight %v", i, cat, cs.Weight)
			}
		}
	}
}

func TestSuppressedAndPromoted(t *testing.T) {
	var records []telemetry.Record
	records = append(records, recs("chakra-check", 10, 50, time.Hour)...)
	records = append(records, recs("compatibility", 3, 900, time.Hour)...)
	records = append(records, recs("life-path", 9, 20, time.Hour)...)

	seeds := DefaultSeeds()
	scores := ComputeWeights(records, seeds, Options{}, testNow)

	sup := Suppressed(scores, seeds, 10)
	want := []string{"chakra-check", "daily-horoscope", "generic-affirmation"}
	if len(sup) != len(want) {
		t.Fatalf("suppressed = %v, want %v", sup, want)
	}
	for i := range want {
		if sup[i] != want[i] {
			t.Errorf("suppressed[%d] = %q, want %q", i, sup[i], want[i])
		}
	}

	pro := Promoted(scores, seeds, 3)
	if len(pro) != 1 || pro[0] != "compatibility" {
		t.Errorf("promoted = %v, want [compatibility]", pro)
	}
}

func TestPromotedFallsBackToTopTier(t *testing.T) {
	seeds := DefaultSeeds()
	pro := Promoted(ComputeWeights(nil, seeds, Options{}, testNow), seeds, 3)
	want := []string{"angel-number", "moon-phase", "retrograde", "sign-identity", "tarot-card"}
	if len(pro) != len(want) {
		t.Fatalf("promoted = %v, want %v", pro, want)
	}
	for i := range want {
		if pro[i] != want[i] {
			t.Errorf("promoted[%d] = %q, want %q", i, pro[i], want[i])
		}
	}
}

func TestEngineViews(t *testing.T) {
	e := newTestEngine(&fakeSource{records: recs("tarot-card", 12, 20, time.Hour)})
	sup, err := e.SuppressedCategories(context.Background(), 30)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range sup {
		if s == "tarot-card" {
			found = true
		}
	}
	if !found {
		t.Errorf("suppressed = %v, want tarot-card", sup)
	}
	pro, err := e.PromotedCategories(context.Background(), 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(pro) == 0 {
		t.Error("expected top tier fallback")
	}
}

func TestSeedTableOverrides(t *testing.T) {
	seeds := NewSeedTable(&config.SeedProfile{
		Seeds: map[string]config.SeedEntry{
			"tarot-card": {Weight: 0.1, Tier: "D"},
			"new-thing":  {Weight: 0.5, Tier: "B", MaxPerWeek: 1},
		},
		Suppress: []string{"tarot-card"},
	})
	if s, ok := seeds.Seed("new-thing"); !ok || s.Weight != 0.5 {
		t.Errorf("new-thing seed = %+v %v", s, ok)
	}
	if !seeds.Suppressed("tarot-card") || seeds.Suppressed("daily-horoscope") {
		t.Error("profile suppress list should replace defaults")
	}
	if s, ok := seeds.Seed("unknown"); ok || s.Weight != DefaultSeedWeight {
		t.Errorf("unknown seed = %+v %v", s, ok)
	}
}

func TestWeightedSelectDeterministic(t *testing.T) {
	w := map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2}
	for seed := uint64(0); seed < 50; seed++ {
		first, ok := WeightedSelect(w, nil, seed)
		if !ok {
			t.Fatal("expected a selection")
		}
		second, _ := WeightedSelect(w, nil, seed)
		if first != second {
			t.Fatalf("seed %d: %q != %q", seed, first, second)
		}
	}
}

func TestWeightedSelectExclusions(t *testing.T) {
	w := map[string]float64{"a": 0.5, "b": 0, "c": -1, "d": 0.2}
	for seed := uint64(0); seed < 200; seed++ {
		got, ok := WeightedSelect(w, map[string]bool{"a": true}, seed)
		if !ok || got != "d" {
			t.Fatalf("seed %d: got %q %v, want d", seed, got, ok)
		}
	}
	if _, ok := WeightedSelect(map[string]float64{"a": 0}, nil, 1); ok {
		t.Error("expected no selection when all weights are zero")
	}
	if _, ok := WeightedSelect(nil, nil, 1); ok {
		t.Error("expected no selection for empty weights")
	}
}

func TestWeightedSelectDistribution(t *testing.T) {
	w := map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2}
	const n = 20000
	counts := map[string]int{}
	for i := uint64(0); i < n; i++ {
		got, _ := WeightedSelect(w, nil, SlotSeed("week", string(rune('a'+i%26)), time.Unix(int64(i), 0).String()))
		counts[got]++
	}

	// Chi-square with 2 degrees of freedom; 13.8 is the p=0.001 critical value.
	chi := 0.0
	for cat, weight := range w {
		expected := weight * n
		d := float64(counts[cat]) - expected
		chi += d * d / expected
	}
	if chi > 13.8 {
		t.Errorf("chi-square = %.2f, counts = %v", chi, counts)
	}
}

func TestSlotSeed(t *testing.T) {
	if SlotSeed("2025-01-06", "tiktok") != SlotSeed("2025-01-06", "tiktok") {
		t.Error("slot seed not stable")
	}
	if SlotSeed("ab", "c") == SlotSeed("a", "bc") {
		t.Error("slot seed should separate parts")
	}
}

func TestWeeklyPickerHonoursCaps(t *testing.T) {
	seeds := NewSeedTable(&config.SeedProfile{
		Seeds: map[string]config.SeedEntry{
			"only": {Weight: 1, Tier: "S", MaxPerWeek: 2},
		},
		Suppress: []string{},
	})
	scores := map[string]CategoryScore{
		"only":       {Category: "only", Weight: 1},
		"suppressed": {Category: "suppressed", Weight: 1},
	}
	p := NewWeeklyPicker(scores, seeds, []string{"suppressed"})
	for i := 0; i < 2; i++ {
		got, ok := p.Pick(uint64(i))
		if !ok || got != "only" {
			t.Fatalf("pick %d = %q %v", i, got, ok)
		}
	}
	if _, ok := p.Pick(99); ok {
		t.Error("expected cap to exhaust the only category")
	}
	if p.Used()["only"] != 2 {
		t.Errorf("used = %v", p.Used())
	}
}
