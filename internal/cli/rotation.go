package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/report"
)

var rotationFormat string

var rotationCmd = &cobra.Command{
	Use:   "rotation",
	Short: "Show theme usage and the theme the next run will pick",
	RunE:  rotationAction,
}

func init() {
	rotationCmd.Flags().StringVar(&rotationFormat, "format", report.FormatTerminal, "output format: terminal, json, markdown")
}

func rotationAction(cmd *cobra.Command, _ []string) error {
	formatter, err := formatterFor(rotationFormat)
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx := cmd.Context()
	usage, err := a.tracker.ThemeUsage(ctx)
	if err != nil {
		return err
	}
	next, err := a.tracker.NextThemeIndex(ctx)
	if err != nil {
		return fmt.Errorf("next theme: %w", err)
	}

	in := report.Rotation{Now: time.Now(), Next: a.catalog.Theme(next).Name}
	for _, u := range usage {
		name := u.ItemID
		if th, ok := a.catalog.ThemeByID(u.ItemID); ok {
			name = th.Name
		}
		in.Rows = append(in.Rows, report.RotationRow{
			ThemeID:    u.ItemID,
			ThemeName:  name,
			UseCount:   u.UseCount,
			LastUsedAt: u.LastUsedAt,
		})
	}
	return formatter.Rotation(os.Stdout, in)
}
