package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/ppiankov/orbitplan/internal/orchestrator"
)

// TerminalFormatter formats reports for terminal output.
type TerminalFormatter struct {
	boldC, greenC, yellowC, redC, dimC *color.Color
}

// NewTerminal creates a terminal formatter. Set enabled=true for ANSI colors.
// The setting overrides color's own NO_COLOR and TTY detection.
func NewTerminal(enabled bool) *TerminalFormatter {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return &TerminalFormatter{
		boldC:   mk(color.Bold),
		greenC:  mk(color.FgGreen),
		yellowC: mk(color.FgYellow),
		redC:    mk(color.FgRed),
		dimC:    mk(color.Faint),
	}
}

// Summary writes a batch summary with the week plan and counters.
func (f *TerminalFormatter) Summary(w io.Writer, sum orchestrator.Summary) error {
	status := f.green("ok")
	if !sum.Success {
		status = f.red("failed")
	}
	fmt.Fprintf(w, "%s %s\n", f.bold("orbitplan:"), status)
	if !sum.Success {
		fmt.Fprintf(w, "  %s\n", sum.Message)
		return nil
	}
	fmt.Fprintf(w, "%s  %s  %s\n", f.bold(sum.Theme), sum.WeekRange, f.dim("run "+sum.RunID))
	fmt.Fprintln(w)

	for _, d := range sum.WeekPlan {
		source := ""
		if d.Source != "theme" {
			source = " " + f.yellow("["+d.Source+"]")
		}
		fmt.Fprintf(w, "  %s %-9s %s%s\n", d.Date, d.Weekday, d.Facet, source)
	}
	fmt.Fprintln(w)

	c := sum.Counts
	fmt.Fprintf(w, "  saved %s of %s slots", humanize.Comma(int64(c.Saved)), humanize.Comma(int64(c.Slots)))
	if c.Failed > 0 {
		fmt.Fprintf(w, ", %s", f.red(fmt.Sprintf("%d failed", c.Failed)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", f.dim(fmt.Sprintf("fallbacks %d, collisions %d, groups %d", c.Fallbacks, c.Collisions, c.Groups)))
	fmt.Fprintf(w, "  %s\n", f.dim(fmt.Sprintf("video scripts %d, jobs %d, skipped %d", c.VideoScripts, c.VideoJobs, c.VideoSkipped)))
	if c.DeletedPosts > 0 {
		fmt.Fprintf(w, "  %s\n", f.dim(fmt.Sprintf("replaced %s existing posts", humanize.Comma(c.DeletedPosts))))
	}
	return nil
}

// Weights writes the category weight table.
func (f *TerminalFormatter) Weights(w io.Writer, in Weights) error {
	fmt.Fprintln(w, f.bold(fmt.Sprintf("content weights, last %d days", in.WindowDays)))
	fmt.Fprintln(w)

	rows := in.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No categories.")
		return nil
	}
	fmt.Fprintf(w, "  %-24s %7s %6s %9s %7s\n", "CATEGORY", "WEIGHT", "POSTS", "AVG VIEWS", "TREND")
	for _, cs := range rows {
		name := cs.Category
		if cs.Seeded {
			name += "*"
		}
		line := fmt.Sprintf("  %-24s %7s %6d %9s %+7.2f", name, percent(cs.Weight), cs.Count, humanize.Comma(int64(cs.AvgViews)), cs.Trend)
		if cs.Suppressed || cs.Weight == 0 {
			line = f.dim(line)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, f.dim("* seed prior"))

	if len(in.Suppressed) > 0 {
		fmt.Fprintf(w, "%s %s\n", f.red("suppressed:"), strings.Join(in.Suppressed, ", "))
	}
	if len(in.Promoted) > 0 {
		fmt.Fprintf(w, "%s %s\n", f.green("promoted:"), strings.Join(in.Promoted, ", "))
	}
	return nil
}

// Rotation writes theme usage in catalog order.
func (f *TerminalFormatter) Rotation(w io.Writer, in Rotation) error {
	fmt.Fprintln(w, f.bold("theme rotation"))
	fmt.Fprintln(w)
	for _, r := range in.Rows {
		last := "never"
		if !r.LastUsedAt.IsZero() {
			last = humanize.RelTime(r.LastUsedAt, in.Now, "ago", "from now")
		}
		marker := "  "
		if r.ThemeName == in.Next {
			marker = f.green("> ")
		}
		fmt.Fprintf(w, "%s%-36s %3d uses  %s\n", marker, r.ThemeName, r.UseCount, f.dim(last))
	}
	if in.Next != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "next: %s\n", f.bold(in.Next))
	}
	return nil
}

func (f *TerminalFormatter) bold(s string) string   { return f.boldC.Sprint(s) }
func (f *TerminalFormatter) green(s string) string  { return f.greenC.Sprint(s) }
func (f *TerminalFormatter) yellow(s string) string { return f.yellowC.Sprint(s) }
func (f *TerminalFormatter) red(s string) string    { return f.redC.Sprint(s) }
func (f *TerminalFormatter) dim(s string) string    { return f.dimC.Sprint(s) }
