package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with example files",
	RunE:  initAction,
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	created := 0
	files := []struct {
		name string
		data string
	}{
		{config.DefaultConfigFile, exampleConfig},
		{config.DefaultSeedsFile, exampleSeeds},
	}
	for _, f := range files {
		wrote, err := writeIfNotExists(filepath.Join(configDir, f.name), []byte(f.data))
		if err != nil {
			return err
		}
		if wrote {
			created++
		}
	}

	if created == 0 {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s with %d config files.\n", configDir, created)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# orbitplan configuration

storage:
  driver: sqlite
  path: .orbitplan/orbitplan.db
  # driver: postgres
  # dsn_env: ORBITPLAN_DATABASE_URL

generation:
  mode: template        # template or llm
  max_retries: 1
  llm:
    endpoint: https://api.openai.com/v1/chat/completions
    model: gpt-4o-mini
    api_key_env: OPENAI_API_KEY
    max_tokens: 600
    timeout: 30s

novelty:
  similarity_threshold: 0.35
  window_size: 10
  avoid_bigrams: 10

scoring:
  window_days: 30
  min_data_points: 10
  nudge_min_points: 3
  trend_recent_days: 7
  half_life_days: 14

rotation:
  secondary_cooldown_days: 10
  angle_history: 10

telemetry:
  file: ""
  endpoint: ""
  platforms: [tiktok, instagram, youtube]

schedule:
  cron: "0 6 * * 1"
  timezone: UTC

server:
  addr: ":8088"

validation:
  banned_patterns:
    - "(?i)guaranteed results"

logging:
  level: info
  format: json
`

const exampleSeeds = `# orbitplan content category priors
# weight is the prior scheduling probability, tier S..D, max_per_week caps
# how many scripts in one week may use the category.

seeds:
  angel-number:
    weight: 0.30
    tier: S
    avg_views: 900
    max_per_week: 2
  tarot-pull:
    weight: 0.20
    tier: A
    avg_views: 600
    max_per_week: 2
  moon-ritual:
    weight: 0.15
    tier: B
    avg_views: 350

suppress:
  - daily-horoscope
  - generic-affirmation
`
