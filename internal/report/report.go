// Package report renders batch summaries, category weights and rotation
// usage for the terminal, JSON and Markdown.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/ppiankov/orbitplan/internal/orchestrator"
	"github.com/ppiankov/orbitplan/internal/scoring"
)

const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Weights is the input for a weights report.
type Weights struct {
	WindowDays int
	Scores     map[string]scoring.CategoryScore
	Suppressed []string
	Promoted   []string
}

// Rows returns the scores ordered by weight, then name.
func (w Weights) Rows() []scoring.CategoryScore {
	rows := make([]scoring.CategoryScore, 0, len(w.Scores))
	for _, cs := range w.Scores {
		rows = append(rows, cs)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Weight != rows[j].Weight {
			return rows[i].Weight > rows[j].Weight
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// RotationRow is one theme's usage.
type RotationRow struct {
	ThemeID    string
	ThemeName  string
	UseCount   int
	LastUsedAt time.Time // zero when never used
}

// Rotation is the input for a rotation report.
type Rotation struct {
	Rows []RotationRow
	Next string // name of the theme the next run would pick
	Now  time.Time
}

// Formatter writes reports to w.
type Formatter interface {
	Summary(w io.Writer, sum orchestrator.Summary) error
	Weights(w io.Writer, in Weights) error
	Rotation(w io.Writer, in Rotation) error
}

// New returns the formatter for format.
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", FormatTerminal:
		return NewTerminal(color), nil
	case FormatJSON:
		return NewJSON(), nil
	case FormatMarkdown:
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want terminal, json or markdown)", format)
	}
}

// ColorEnabled reports whether f is an interactive terminal and NO_COLOR is
// unset.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
