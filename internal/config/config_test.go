package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestYAML(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test yaml: %v", err)
	}
	return path
}

// --- Load tests ---

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_PG_DSN", "postgres://localhost/orbitplan")
	t.Setenv("TEST_LLM_KEY", "sk-secret")

	writeTestYAML(t, dir, DefaultConfigFile, `
storage:
  driver: postgres
  dsn_env: TEST_PG_DSN
generation:
  mode: llm
  max_retries: 0
  llm:
    endpoint: http://localhost:9999/v1/chat/completions
    model: local-model
    api_key_env: TEST_LLM_KEY
    max_tokens: 300
    timeout: 5s
novelty:
  similarity_threshold: 0.5
  window_size: 4
  avoid_bigrams: 6
scoring:
  window_days: 14
  seeds_file: custom-seeds.yaml
rotation:
  secondary_cooldown_days: 3
telemetry:
  endpoint: http://metrics.local
  platforms: [tiktok, instagram]
schedule:
  cron: "30 5 * * 0"
  timezone: "America/New_York"
server:
  addr: ":9090"
validation:
  banned_patterns:
    - "(?i)guaranteed"
logging:
  level: debug
  format: text
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN != "postgres://localhost/orbitplan" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Generation.Mode != "llm" {
		t.Errorf("mode = %q, want llm", cfg.Generation.Mode)
	}
	if cfg.Generation.Retries() != 0 {
		t.Errorf("retries = %d, want explicit 0", cfg.Generation.Retries())
	}
	llm := cfg.Generation.LLM
	if llm.Model != "local-model" || llm.APIKey != "sk-secret" || llm.MaxTokens != 300 {
		t.Errorf("llm = %+v", llm)
	}
	if llm.Timeout.Duration != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", llm.Timeout.Duration)
	}
	if cfg.Novelty.SimilarityThreshold != 0.5 || cfg.Novelty.WindowSize != 4 || cfg.Novelty.AvoidBigrams != 6 {
		t.Errorf("novelty = %+v", cfg.Novelty)
	}
	if cfg.Scoring.WindowDays != 14 || cfg.Scoring.MinDataPoints != DefaultMinPoints {
		t.Errorf("scoring = %+v", cfg.Scoring)
	}
	if cfg.Rotation.SecondaryCooldownDays != 3 || cfg.Rotation.AngleHistory != DefaultAngleWindow {
		t.Errorf("rotation = %+v", cfg.Rotation)
	}
	if len(cfg.Telemetry.Platforms) != 2 {
		t.Errorf("telemetry platforms = %v", cfg.Telemetry.Platforms)
	}
	if cfg.Schedule.Cron != "30 5 * * 0" || cfg.Server.Addr != ":9090" {
		t.Errorf("schedule = %+v, server = %+v", cfg.Schedule, cfg.Server)
	}
	if len(cfg.Validation.BannedPatterns) != 1 {
		t.Errorf("banned patterns = %v", cfg.Validation.BannedPatterns)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if got, want := cfg.SeedsPath(), filepath.Join(dir, "custom-seeds.yaml"); got != want {
		t.Errorf("seeds path = %q, want %q", got, want)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, "{}\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Storage.Driver != DefaultDriver || cfg.Storage.Path != DefaultStoragePath {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Generation.Mode != DefaultMode || cfg.Generation.Retries() != DefaultMaxRetries {
		t.Errorf("generation = %+v", cfg.Generation)
	}
	if cfg.Generation.LLM.Endpoint != DefaultLLMEndpoint || cfg.Generation.LLM.Timeout.Duration != DefaultLLMTimeout {
		t.Errorf("llm = %+v", cfg.Generation.LLM)
	}
	if cfg.Novelty.SimilarityThreshold != DefaultThreshold || cfg.Novelty.WindowSize != DefaultWindowSize {
		t.Errorf("novelty = %+v", cfg.Novelty)
	}
	if cfg.Scoring.WindowDays != DefaultWindowDays || cfg.Scoring.HalfLifeDays != DefaultHalfLife {
		t.Errorf("scoring = %+v", cfg.Scoring)
	}
	if cfg.Schedule.Cron != DefaultCron || cfg.Schedule.Timezone != DefaultTimezone {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Logging.Level != DefaultLogLevel || cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.SeedsPath() != "" {
		t.Errorf("seeds path = %q, want empty without a seeds file", cfg.SeedsPath())
	}
}

func TestLoad_DefaultSeedsFileDetected(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, "{}\n")
	seeds := writeTestYAML(t, dir, DefaultSeedsFile, "seeds: {}\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SeedsPath() != seeds {
		t.Errorf("seeds path = %q, want %q", cfg.SeedsPath(), seeds)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORBIT_TEST_KEY", "")
	_ = os.Unsetenv("ORBIT_TEST_KEY")
	t.Setenv("ORBIT_TEST_KEEP", "from-env")

	writeTestYAML(t, dir, DefaultConfigFile, `
generation:
  llm:
    api_key_env: ORBIT_TEST_KEY
`)
	writeTestYAML(t, dir, DefaultEnvFile, "ORBIT_TEST_KEY=from-dotenv\nORBIT_TEST_KEEP=from-dotenv\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generation.LLM.APIKey != "from-dotenv" {
		t.Errorf("api key = %q, want from-dotenv", cfg.Generation.LLM.APIKey)
	}
	if got := os.Getenv("ORBIT_TEST_KEEP"); got != "from-env" {
		t.Errorf("existing env overridden: %q", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"driver", "storage:\n  driver: mysql\n", "storage.driver"},
		{"postgres without dsn", "storage:\n  driver: postgres\n  dsn_env: ORBIT_MISSING_DSN\n", "storage.dsn_env"},
		{"mode", "generation:\n  mode: poetry\n", "generation.mode"},
		{"retries", "generation:\n  max_retries: -1\n", "generation.max_retries"},
		{"threshold", "novelty:\n  similarity_threshold: 1.5\n", "novelty.similarity_threshold"},
		{"timezone", "schedule:\n  timezone: Mars/Olympus\n", "schedule.timezone"},
		{"cron", "schedule:\n  cron: every monday\n", "schedule.cron"},
		{"pattern", "validation:\n  banned_patterns: ['(unclosed']\n", "validation.banned_patterns"},
		{"level", "logging:\n  level: loud\n", "logging.level"},
		{"format", "logging:\n  format: xml\n", "logging.format"},
		{"duration", "generation:\n  llm:\n    timeout: soon\n", "parse duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTestYAML(t, dir, DefaultConfigFile, tt.yaml)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if want := "read config"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, "storage: [unclosed\n")

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid yaml")
	}
	if want := "parse config"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for empty dir")
	}
	if want := "config dir is required"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

// --- Seeds tests ---

func TestLoadSeeds_Full(t *testing.T) {
	dir := t.TempDir()
	path := writeTestYAML(t, dir, DefaultSeedsFile, `
seeds:
  tarot-pull:
    weight: 0.8
    tier: A
    avg_views: 520
    max_per_week: 2
suppress:
  - daily-horoscope
`)

	sp, err := LoadSeeds(path)
	if err != nil {
		t.Fatalf("load seeds: %v", err)
	}
	e, ok := sp.Seeds["tarot-pull"]
	if !ok {
		t.Fatal("missing tarot-pull seed")
	}
	if e.Weight != 0.8 || e.Tier != "A" || e.AvgViews != 520 || e.MaxPerWeek != 2 {
		t.Errorf("seed = %+v", e)
	}
	if len(sp.Suppress) != 1 || sp.Suppress[0] != "daily-horoscope" {
		t.Errorf("suppress = %v", sp.Suppress)
	}
}

func TestLoadSeeds_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"weight", "seeds:\n  x:\n    weight: 1.2\n    tier: A\n", "out of range"},
		{"tier", "seeds:\n  x:\n    weight: 0.5\n    tier: Z\n", "unknown tier"},
		{"cap", "seeds:\n  x:\n    weight: 0.5\n    tier: B\n    max_per_week: -1\n", "max_per_week"},
		{"views", "seeds:\n  x:\n    weight: 0.5\n    tier: B\n    avg_views: -3\n", "avg_views"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestYAML(t, t.TempDir(), DefaultSeedsFile, tt.yaml)
			_, err := LoadSeeds(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadSeeds_EmptyPath(t *testing.T) {
	_, err := LoadSeeds("")
	if err == nil {
		t.Fatal("expected error for empty path")
	}
	if want := "seeds path is required"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}
