package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/report"
)

var (
	weightsWindow int
	weightsFormat string
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show content category weights with suppressed and promoted views",
	RunE:  weightsAction,
}

func init() {
	weightsCmd.Flags().IntVar(&weightsWindow, "window", 0, "performance window in days (default from config)")
	weightsCmd.Flags().StringVar(&weightsFormat, "format", report.FormatTerminal, "output format: terminal, json, markdown")
}

func weightsAction(cmd *cobra.Command, _ []string) error {
	formatter, err := formatterFor(weightsFormat)
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	window := weightsWindow
	if window <= 0 {
		window = a.cfg.Scoring.WindowDays
	}
	ctx := cmd.Context()

	scores, err := a.engine.ContentTypeWeights(ctx, window)
	if err != nil {
		return fmt.Errorf("content weights: %w", err)
	}
	suppressed, err := a.engine.SuppressedCategories(ctx, window)
	if err != nil {
		return fmt.Errorf("suppressed categories: %w", err)
	}
	promoted, err := a.engine.PromotedCategories(ctx, window)
	if err != nil {
		return fmt.Errorf("promoted categories: %w", err)
	}

	return formatter.Weights(os.Stdout, report.Weights{
		WindowDays: window,
		Scores:     scores,
		Suppressed: suppressed,
		Promoted:   promoted,
	})
}
