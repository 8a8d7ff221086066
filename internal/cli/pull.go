package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/telemetry"
)

var (
	pullSince string
	pullFile  string
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch performance telemetry from all configured feeds",
	RunE:  pullAction,
}

func init() {
	pullCmd.Flags().StringVar(&pullSince, "since", "", "only records newer than this duration (default scoring window)")
	pullCmd.Flags().StringVar(&pullFile, "file", "", "read records from this JSON file instead of the configured feeds")
}

func pullAction(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	window := time.Duration(a.cfg.Scoring.WindowDays) * 24 * time.Hour
	if pullSince != "" {
		window, err = time.ParseDuration(pullSince)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
	}
	since := time.Now().Add(-window)
	ctx := cmd.Context()

	feeds, err := buildFeeds(a)
	if err != nil {
		return err
	}
	if len(feeds) == 0 {
		return fmt.Errorf("no telemetry feeds configured (set telemetry.file or telemetry.endpoint)")
	}

	total, stored := 0, 0
	for _, feed := range feeds {
		records, err := feed.Fetch(ctx, since)
		if err != nil {
			fmt.Printf("  %s: %v\n", feed.Name(), err)
			continue
		}
		total += len(records)
		ok := 0
		for _, r := range records {
			if err := a.store.UpsertPerformance(ctx, r); err != nil {
				a.log.WithError(err).WithField("external_id", r.ExternalID).Warn("store performance record failed")
				continue
			}
			ok++
		}
		stored += ok
		a.metrics.TelemetryIngested(feed.Name(), ok)
	}

	fmt.Printf("Pulled %d records from %d feeds, stored %d\n", total, len(feeds), stored)
	return nil
}

func buildFeeds(a *app) ([]telemetry.Feed, error) {
	var feeds []telemetry.Feed

	path := pullFile
	if path == "" {
		path = a.cfg.Telemetry.File
	}
	if path != "" {
		f, err := telemetry.NewFile(path)
		if err != nil {
			return nil, fmt.Errorf("create file feed: %w", err)
		}
		feeds = append(feeds, f)
	}

	if pullFile == "" && a.cfg.Telemetry.Endpoint != "" {
		h, err := telemetry.NewHTTP(a.cfg.Telemetry.Endpoint, a.cfg.Telemetry.Platforms, a.log)
		if err != nil {
			return nil, fmt.Errorf("create http feed: %w", err)
		}
		feeds = append(feeds, h)
	}
	return feeds, nil
}
