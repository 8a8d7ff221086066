package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/store"
)

var rehookCmd = &cobra.Command{
	Use:   "rehook <script-id> <hook text>",
	Short: "Replace a video script's hook, keeping its body",
	Args:  cobra.MinimumNArgs(2),
	RunE:  rehookAction,
}

func rehookAction(cmd *cobra.Command, args []string) error {
	id, err := parseScriptID(args[0])
	if err != nil {
		return err
	}
	hook := strings.TrimSpace(strings.Join(args[1:], " "))

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	vs, err := a.store.RewriteHook(cmd.Context(), id, hook)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("script %d not found", id)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Script %d (%s, %s) hook v%d: %s\n", vs.ID, vs.FacetTitle, vs.ScheduledDate, vs.HookVersion, vs.HookText)
	return nil
}
