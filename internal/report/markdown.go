package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/orbitplan/internal/orchestrator"
)

// MarkdownFormatter formats reports as Markdown.
type MarkdownFormatter struct{}

// NewMarkdown creates a Markdown formatter.
func NewMarkdown() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (f *MarkdownFormatter) Summary(w io.Writer, sum orchestrator.Summary) error {
	if !sum.Success {
		fmt.Fprintf(w, "# orbitplan run failed\n\n%s\n", sum.Message)
		return nil
	}
	fmt.Fprintf(w, "# %s\n\n", sum.Theme)
	fmt.Fprintf(w, "Week %s, run `%s`\n\n", sum.WeekRange, sum.RunID)

	fmt.Fprintln(w, "| Date | Day | Facet | Source |")
	fmt.Fprintln(w, "|---|---|---|---|")
	for _, d := range sum.WeekPlan {
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n", d.Date, d.Weekday, d.Facet, d.Source)
	}
	fmt.Fprintln(w)

	c := sum.Counts
	fmt.Fprintf(w, "- Saved %d of %d slots\n", c.Saved, c.Slots)
	if c.Failed > 0 {
		fmt.Fprintf(w, "- **%d failed**\n", c.Failed)
	}
	fmt.Fprintf(w, "- Fallbacks %d, collisions %d, groups %d\n", c.Fallbacks, c.Collisions, c.Groups)
	fmt.Fprintf(w, "- Video scripts %d, jobs %d, skipped %d\n", c.VideoScripts, c.VideoJobs, c.VideoSkipped)
	return nil
}

func (f *MarkdownFormatter) Weights(w io.Writer, in Weights) error {
	fmt.Fprintf(w, "# Content weights (last %d days)\n\n", in.WindowDays)
	rows := in.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No categories.")
		return nil
	}
	fmt.Fprintln(w, "| Category | Weight | Posts | Avg views | Trend |")
	fmt.Fprintln(w, "|---|---:|---:|---:|---:|")
	for _, cs := range rows {
		name := cs.Category
		if cs.Seeded {
			name = "_" + name + "_"
		}
		fmt.Fprintf(w, "| %s | %s | %d | %s | %+.2f |\n", name, percent(cs.Weight), cs.Count, humanize.Comma(int64(cs.AvgViews)), cs.Trend)
	}
	fmt.Fprintln(w)
	if len(in.Suppressed) > 0 {
		fmt.Fprintf(w, "Suppressed: %s\n\n", strings.Join(in.Suppressed, ", "))
	}
	if len(in.Promoted) > 0 {
		fmt.Fprintf(w, "Promoted: %s\n", strings.Join(in.Promoted, ", "))
	}
	return nil
}

func (f *MarkdownFormatter) Rotation(w io.Writer, in Rotation) error {
	fmt.Fprintln(w, "# Theme rotation")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Theme | Uses | Last used |")
	fmt.Fprintln(w, "|---|---:|---|")
	for _, r := range in.Rows {
		last := "never"
		if !r.LastUsedAt.IsZero() {
			last = r.LastUsedAt.UTC().Format("2006-01-02")
		}
		name := r.ThemeName
		if name == in.Next {
			name = "**" + name + "**"
		}
		fmt.Fprintf(w, "| %s | %d | %s |\n", name, r.UseCount, last)
	}
	return nil
}
