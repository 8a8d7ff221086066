package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/ppiankov/orbitplan/internal/orchestrator"
)

type jsonWeights struct {
	WindowDays int            `json:"window_days"`
	Categories []jsonCategory `json:"categories"`
	Suppressed []string       `json:"suppressed"`
	Promoted   []string       `json:"promoted"`
}

type jsonCategory struct {
	Category   string  `json:"category"`
	Weight     float64 `json:"weight"`
	Score      float64 `json:"score"`
	Count      int     `json:"count"`
	AvgViews   float64 `json:"avg_views"`
	Trend      float64 `json:"trend"`
	Seeded     bool    `json:"seeded"`
	Suppressed bool    `json:"suppressed"`
}

type jsonRotation struct {
	Next   string       `json:"next,omitempty"`
	Themes []jsonRotRow `json:"themes"`
}

type jsonRotRow struct {
	ThemeID    string `json:"theme_id"`
	ThemeName  string `json:"theme_name"`
	UseCount   int    `json:"use_count"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}

// JSONFormatter formats reports as indented JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Summary writes the summary as the API returns it.
func (f *JSONFormatter) Summary(w io.Writer, sum orchestrator.Summary) error {
	return encode(w, sum)
}

func (f *JSONFormatter) Weights(w io.Writer, in Weights) error {
	out := jsonWeights{
		WindowDays: in.WindowDays,
		Categories: make([]jsonCategory, 0, len(in.Scores)),
		Suppressed: nonNil(in.Suppressed),
		Promoted:   nonNil(in.Promoted),
	}
	for _, cs := range in.Rows() {
		out.Categories = append(out.Categories, jsonCategory{
			Category:   cs.Category,
			Weight:     cs.Weight,
			Score:      cs.Score,
			Count:      cs.Count,
			AvgViews:   cs.AvgViews,
			Trend:      cs.Trend,
			Seeded:     cs.Seeded,
			Suppressed: cs.Suppressed,
		})
	}
	return encode(w, out)
}

func (f *JSONFormatter) Rotation(w io.Writer, in Rotation) error {
	out := jsonRotation{Next: in.Next, Themes: make([]jsonRotRow, 0, len(in.Rows))}
	for _, r := range in.Rows {
		row := jsonRotRow{ThemeID: r.ThemeID, ThemeName: r.ThemeName, UseCount: r.UseCount}
		if !r.LastUsedAt.IsZero() {
			row.LastUsedAt = r.LastUsedAt.UTC().Format(time.RFC3339)
		}
		out.Themes = append(out.Themes, row)
	}
	return encode(w, out)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
