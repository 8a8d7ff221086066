// Package cli provides the command-line interface for orbitplan.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/config"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "orbitplan",
	Short: "Plan a week of themed social content",
	Long: "orbitplan rotates educational themes, writes a full week of platform-specific posts " +
		"and video scripts, and tunes content categories from performance telemetry.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("orbitplan %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", config.DefaultConfigDir, "config directory")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colors")
	rootCmd.AddCommand(
		versionCmd,
		initCmd,
		generateCmd,
		weightsCmd,
		rotationCmd,
		pullCmd,
		rehookCmd,
		jobsCmd,
		serveCmd,
		doctorCmd,
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
