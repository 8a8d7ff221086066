package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/store"
)

var jobsStatus string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List video render jobs",
	RunE:  jobsListAction,
}

var jobsCompleteCmd = &cobra.Command{
	Use:   "complete <script-id> <video-url>",
	Short: "Mark a render job done and attach the video url",
	Args:  cobra.ExactArgs(2),
	RunE:  jobsCompleteAction,
}

var jobsFailCmd = &cobra.Command{
	Use:   "fail <script-id> <reason>",
	Short: "Record a failed render attempt",
	Args:  cobra.MinimumNArgs(2),
	RunE:  jobsFailAction,
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", store.JobPending, "job status: pending, done, failed")
	jobsCmd.AddCommand(jobsCompleteCmd, jobsFailCmd)
}

func jobsListAction(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	jobs, err := a.store.VideoJobs(cmd.Context(), jobsStatus)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Printf("No %s jobs.\n", jobsStatus)
		return nil
	}
	for _, j := range jobs {
		line := fmt.Sprintf("  script %-5d %s  %-8s attempts %d  %s", j.ScriptID, j.DateKey, j.Status, j.Attempts, j.Topic)
		if j.LastError != "" {
			line += "  (" + j.LastError + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func jobsCompleteAction(cmd *cobra.Command, args []string) error {
	id, err := parseScriptID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.store.CompleteVideoJob(cmd.Context(), id, args[1]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("script %d not found", id)
		}
		return err
	}
	fmt.Printf("Script %d rendered: %s\n", id, args[1])
	return nil
}

func jobsFailAction(cmd *cobra.Command, args []string) error {
	id, err := parseScriptID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	reason := strings.Join(args[1:], " ")
	if err := a.store.FailVideoJob(cmd.Context(), id, reason); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("script %d not found", id)
		}
		return err
	}
	fmt.Printf("Script %d render failed: %s\n", id, reason)
	return nil
}

func parseScriptID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid script id %q", s)
	}
	return id, nil
}
