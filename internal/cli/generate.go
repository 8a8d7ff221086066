package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/orchestrator"
	"github.com/ppiankov/orbitplan/internal/report"
)

var (
	genWeekStart   string
	genCurrentWeek bool
	genMode        string
	genReplace     bool
	genSecondary   bool
	genFormat      string
	noColor        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a week of posts and video scripts",
	RunE:  generateAction,
}

func init() {
	generateCmd.Flags().StringVar(&genWeekStart, "week-start", "", "any date in the target week (YYYY-MM-DD); default next week")
	generateCmd.Flags().BoolVar(&genCurrentWeek, "current-week", false, "plan the current week from today on")
	generateCmd.Flags().StringVar(&genMode, "mode", "", "generation mode: template or llm (default from config)")
	generateCmd.Flags().BoolVar(&genReplace, "replace", false, "delete and regenerate an existing week, keeping its theme")
	generateCmd.Flags().BoolVar(&genSecondary, "secondary", false, "add a daily secondary-theme post")
	generateCmd.Flags().StringVar(&genFormat, "format", report.FormatTerminal, "output format: terminal, json, markdown")
}

func generateAction(cmd *cobra.Command, _ []string) error {
	formatter, err := formatterFor(genFormat)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}
	sum, runErr := orch.Run(cmd.Context(), orchestrator.Request{
		WeekStart:              genWeekStart,
		CurrentWeek:            genCurrentWeek,
		Mode:                   genMode,
		ReplaceExisting:        genReplace,
		IncludeSecondaryThemes: genSecondary,
	})
	if err := formatter.Summary(os.Stdout, sum); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("generate: %w", runErr)
	}
	return nil
}

func formatterFor(format string) (report.Formatter, error) {
	return report.New(format, !noColor && report.ColorEnabled(os.Stdout))
}
