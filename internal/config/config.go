package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir   = ".orbitplan"
	DefaultConfigFile  = "config.yaml"
	DefaultSeedsFile   = "seeds.yaml"
	DefaultEnvFile     = ".env"
	DefaultDriver      = "sqlite"
	DefaultStoragePath = ".orbitplan/orbitplan.db"
	DefaultMode        = "template"
	DefaultMaxRetries  = 1
	DefaultLLMEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultLLMModel    = "gpt-4o-mini"
	DefaultLLMKeyEnv   = "OPENAI_API_KEY"
	DefaultMaxTokens   = 600
	DefaultLLMTimeout  = 30 * time.Second
	DefaultThreshold   = 0.35
	DefaultWindowSize  = 10
	DefaultAvoid       = 10
	DefaultWindowDays  = 30
	DefaultMinPoints   = 10
	DefaultNudgePoints = 3
	DefaultTrendDays   = 7
	DefaultHalfLife    = 14
	DefaultCooldown    = 10
	DefaultAngleWindow = 10
	DefaultCron        = "0 6 * * 1"
	DefaultTimezone    = "UTC"
	DefaultAddr        = ":8088"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Generation GenerationConfig `yaml:"generation"`
	Novelty    NoveltyConfig    `yaml:"novelty"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Rotation   RotationConfig   `yaml:"rotation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Server     ServerConfig     `yaml:"server"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`

	// Dir is the directory the config was loaded from.
	Dir string `yaml:"-"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSNEnv string `yaml:"dsn_env"`

	// Resolved from env var at load time.
	DSN string `yaml:"-"`
}

type GenerationConfig struct {
	Mode       string    `yaml:"mode"`
	MaxRetries *int      `yaml:"max_retries"`
	LLM        LLMConfig `yaml:"llm"`
}

// Retries returns the configured retry budget.
func (g GenerationConfig) Retries() int {
	if g.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *g.MaxRetries
}

type LLMConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	Model     string   `yaml:"model"`
	APIKeyEnv string   `yaml:"api_key_env"`
	MaxTokens int      `yaml:"max_tokens"`
	Timeout   Duration `yaml:"timeout"`

	// Resolved from env var at load time.
	APIKey string `yaml:"-"`
}

type NoveltyConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	WindowSize          int     `yaml:"window_size"`
	AvoidBigrams        int     `yaml:"avoid_bigrams"`
}

type ScoringConfig struct {
	WindowDays      int    `yaml:"window_days"`
	MinDataPoints   int    `yaml:"min_data_points"`
	NudgeMinPoints  int    `yaml:"nudge_min_points"`
	TrendRecentDays int    `yaml:"trend_recent_days"`
	HalfLifeDays    int    `yaml:"half_life_days"`
	SeedsFile       string `yaml:"seeds_file"`
}

type RotationConfig struct {
	SecondaryCooldownDays int `yaml:"secondary_cooldown_days"`
	AngleHistory          int `yaml:"angle_history"`
}

type TelemetryConfig struct {
	File      string   `yaml:"file"`
	Endpoint  string   `yaml:"endpoint"`
	Platforms []string `yaml:"platforms"`
}

type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ValidationConfig struct {
	BannedPatterns []string `yaml:"banned_patterns"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config.yaml from dir, loads an optional .env, applies defaults,
// resolves env vars, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir

	if err := loadEnvFile(filepath.Join(dir, DefaultEnvFile)); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads variables from path without overriding the environment.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultDriver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}

	g := &cfg.Generation
	if g.Mode == "" {
		g.Mode = DefaultMode
	}
	if g.LLM.Endpoint == "" {
		g.LLM.Endpoint = DefaultLLMEndpoint
	}
	if g.LLM.Model == "" {
		g.LLM.Model = DefaultLLMModel
	}
	if g.LLM.APIKeyEnv == "" {
		g.LLM.APIKeyEnv = DefaultLLMKeyEnv
	}
	if g.LLM.MaxTokens == 0 {
		g.LLM.MaxTokens = DefaultMaxTokens
	}
	if g.LLM.Timeout.Duration == 0 {
		g.LLM.Timeout.Duration = DefaultLLMTimeout
	}

	n := &cfg.Novelty
	if n.SimilarityThreshold == 0 {
		n.SimilarityThreshold = DefaultThreshold
	}
	if n.WindowSize == 0 {
		n.WindowSize = DefaultWindowSize
	}
	if n.AvoidBigrams == 0 {
		n.AvoidBigrams = DefaultAvoid
	}

	s := &cfg.Scoring
	if s.WindowDays == 0 {
		s.WindowDays = DefaultWindowDays
	}
	if s.MinDataPoints == 0 {
		s.MinDataPoints = DefaultMinPoints
	}
	if s.NudgeMinPoints == 0 {
		s.NudgeMinPoints = DefaultNudgePoints
	}
	if s.TrendRecentDays == 0 {
		s.TrendRecentDays = DefaultTrendDays
	}
	if s.HalfLifeDays == 0 {
		s.HalfLifeDays = DefaultHalfLife
	}

	if cfg.Rotation.SecondaryCooldownDays == 0 {
		cfg.Rotation.SecondaryCooldownDays = DefaultCooldown
	}
	if cfg.Rotation.AngleHistory == 0 {
		cfg.Rotation.AngleHistory = DefaultAngleWindow
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultCron
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = DefaultTimezone
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

func resolveEnv(cfg *Config) {
	if cfg.Storage.DSNEnv != "" {
		cfg.Storage.DSN = os.Getenv(cfg.Storage.DSNEnv)
	}
	if cfg.Generation.LLM.APIKeyEnv != "" {
		cfg.Generation.LLM.APIKey = os.Getenv(cfg.Generation.LLM.APIKeyEnv)
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn_env: postgres needs a DSN in %q", cfg.Storage.DSNEnv)
		}
	default:
		return fmt.Errorf("storage.driver: unknown driver %q (want sqlite or postgres)", cfg.Storage.Driver)
	}

	switch cfg.Generation.Mode {
	case "template", "llm":
	default:
		return fmt.Errorf("generation.mode: unknown mode %q (want template or llm)", cfg.Generation.Mode)
	}
	if cfg.Generation.Retries() < 0 {
		return errors.New("generation.max_retries: must not be negative")
	}

	if t := cfg.Novelty.SimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("novelty.similarity_threshold: %.2f out of range (0,1]", t)
	}
	if cfg.Novelty.WindowSize < 0 || cfg.Novelty.AvoidBigrams < 0 {
		return errors.New("novelty: sizes must not be negative")
	}
	if cfg.Scoring.WindowDays < 0 {
		return errors.New("scoring.window_days: must not be negative")
	}

	if _, err := time.LoadLocation(cfg.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron: %w", err)
	}

	for _, p := range cfg.Validation.BannedPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("validation.banned_patterns: %q: %w", p, err)
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format: unknown format %q (want json or text)", cfg.Logging.Format)
	}

	return nil
}

// SeedsPath returns the resolved seeds file path, or "" when none applies.
// A relative seeds_file is resolved against the config dir; without one the
// default seeds.yaml is used only if it exists.
func (c *Config) SeedsPath() string {
	if c.Scoring.SeedsFile != "" {
		if filepath.IsAbs(c.Scoring.SeedsFile) {
			return c.Scoring.SeedsFile
		}
		return filepath.Join(c.Dir, c.Scoring.SeedsFile)
	}
	path := filepath.Join(c.Dir, DefaultSeedsFile)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
