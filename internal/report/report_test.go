package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/orbitplan/internal/orchestrator"
	"github.com/ppiankov/orbitplan/internal/scoring"
)

func testSummary() orchestrator.Summary {
	return orchestrator.Summary{
		Success:   true,
		RunID:     "run-1",
		Theme:     "Lunar Cycles",
		WeekStart: "2025-01-06",
		WeekRange: "2025-01-06 to 2025-01-12",
		WeekPlan: []orchestrator.PlanDay{
			{Date: "2025-01-06", Weekday: "Monday", Facet: "New Moon", Theme: "Lunar Cycles", Source: "theme"},
			{Date: "2025-01-07", Weekday: "Tuesday", Facet: "Origins of Imbolc", Theme: "Imbolc", Source: "sabbat"},
		},
		Counts: orchestrator.Counts{Slots: 1420, Saved: 1418, Failed: 2, Fallbacks: 3, VideoScripts: 7},
	}
}

func testWeights() Weights {
	return Weights{
		WindowDays: 30,
		Scores: map[string]scoring.CategoryScore{
			"tarot-pull":      {Category: "tarot-pull", Weight: 0.25, Seeded: true, AvgViews: 1520},
			"angel-number":    {Category: "angel-number", Weight: 0.6, Count: 14, AvgViews: 980, Trend: 0.2},
			"daily-horoscope": {Category: "daily-horoscope", Weight: 0, Suppressed: true},
		},
		Suppressed: []string{"daily-horoscope"},
		Promoted:   []string{"angel-number"},
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", FormatTerminal, FormatJSON, FormatMarkdown} {
		if _, err := New(format, false); err != nil {
			t.Errorf("New(%q): %v", format, err)
		}
	}
	if _, err := New("html", false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWeightsRows_Order(t *testing.T) {
	rows := testWeights().Rows()
	got := []string{rows[0].Category, rows[1].Category, rows[2].Category}
	want := []string{"angel-number", "tarot-pull", "daily-horoscope"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestTerminal_Summary(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(false).Summary(&buf, testSummary()); err != nil {
		t.Fatalf("summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Lunar Cycles", "2025-01-06 to 2025-01-12", "New Moon", "[sabbat]", "saved 1,418 of 1,420 slots", "2 failed", "video scripts 7"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("ANSI codes with color disabled")
	}
}

func TestTerminal_FailedSummary(t *testing.T) {
	var buf bytes.Buffer
	_ = NewTerminal(true).Summary(&buf, orchestrator.Summary{Message: "invalid request: unknown mode"})
	out := buf.String()
	if !strings.Contains(out, "failed") || !strings.Contains(out, "unknown mode") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "\033[31m") {
		t.Error("expected red status with color enabled")
	}
}

func TestTerminal_ColorOverridesNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	_ = NewTerminal(true).Summary(&buf, testSummary())
	if !strings.Contains(buf.String(), "\033[32m") {
		t.Errorf("expected green status with color forced on:\n%q", buf.String())
	}
}

func TestTerminal_Weights(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTerminal(false).Weights(&buf, testWeights()); err != nil {
		t.Fatalf("weights: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"last 30 days", "angel-number", "60.0%", "tarot-pull*", "1,520", "suppressed: daily-horoscope", "promoted: angel-number"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "angel-number") > strings.Index(out, "tarot-pull") {
		t.Error("rows not ordered by weight")
	}
}

func TestTerminal_WeightsEmpty(t *testing.T) {
	var buf bytes.Buffer
	_ = NewTerminal(false).Weights(&buf, Weights{WindowDays: 30})
	if !strings.Contains(buf.String(), "No categories.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTerminal_Rotation(t *testing.T) {
	now := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	in := Rotation{
		Now:  now,
		Next: "Foundations of the Zodiac",
		Rows: []RotationRow{
			{ThemeID: "lunar-cycles", ThemeName: "Lunar Cycles", UseCount: 2, LastUsedAt: now.Add(-7 * 24 * time.Hour)},
			{ThemeID: "zodiac-foundations", ThemeName: "Foundations of the Zodiac"},
		},
	}
	var buf bytes.Buffer
	if err := NewTerminal(false).Rotation(&buf, in); err != nil {
		t.Fatalf("rotation: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"1 week ago", "never", "> Foundations of the Zodiac", "next: Foundations of the Zodiac"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJSON_Summary(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSON().Summary(&buf, testSummary()); err != nil {
		t.Fatalf("summary: %v", err)
	}
	var got orchestrator.Summary
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Theme != "Lunar Cycles" || len(got.WeekPlan) != 2 || got.Counts.Saved != 1418 {
		t.Errorf("decoded = %+v", got)
	}
}

func TestJSON_Weights(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSON().Weights(&buf, Weights{WindowDays: 7, Scores: testWeights().Scores}); err != nil {
		t.Fatalf("weights: %v", err)
	}
	var got jsonWeights
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.WindowDays != 7 || len(got.Categories) != 3 || got.Categories[0].Category != "angel-number" {
		t.Errorf("decoded = %+v", got)
	}
	if got.Suppressed == nil || got.Promoted == nil {
		t.Error("empty lists should encode as []")
	}
}

func TestJSON_Rotation(t *testing.T) {
	used := time.Date(2025, 1, 6, 6, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := NewJSON().Rotation(&buf, Rotation{Rows: []RotationRow{
		{ThemeID: "lunar-cycles", ThemeName: "Lunar Cycles", UseCount: 1, LastUsedAt: used},
		{ThemeID: "zodiac-foundations", ThemeName: "Foundations of the Zodiac"},
	}})
	if err != nil {
		t.Fatalf("rotation: %v", err)
	}
	var got jsonRotation
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Themes[0].LastUsedAt != "2025-01-06T06:00:00Z" || got.Themes[1].LastUsedAt != "" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	f := NewMarkdown()
	_ = f.Summary(&buf, testSummary())
	_ = f.Weights(&buf, testWeights())
	_ = f.Rotation(&buf, Rotation{Next: "Lunar Cycles", Rows: []RotationRow{{ThemeName: "Lunar Cycles"}}})
	out := buf.String()
	for _, want := range []string{
		"# Lunar Cycles",
		"| 2025-01-07 | Tuesday | Origins of Imbolc | sabbat |",
		"**2 failed**",
		"| _tarot-pull_ | 25.0% | 0 | 1,520 | +0.00 |",
		"Suppressed: daily-horoscope",
		"| **Lunar Cycles** | 0 | never |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
