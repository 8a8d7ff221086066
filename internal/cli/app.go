package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/orbitplan/internal/catalog"
	"github.com/ppiankov/orbitplan/internal/config"
	"github.com/ppiankov/orbitplan/internal/generate"
	"github.com/ppiankov/orbitplan/internal/logging"
	"github.com/ppiankov/orbitplan/internal/metrics"
	"github.com/ppiankov/orbitplan/internal/novelty"
	"github.com/ppiankov/orbitplan/internal/orchestrator"
	"github.com/ppiankov/orbitplan/internal/rotation"
	"github.com/ppiankov/orbitplan/internal/scoring"
	"github.com/ppiankov/orbitplan/internal/store"
)

// app is the wired set of components a command works with.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    *store.Store
	catalog  *catalog.Catalog
	tracker  *rotation.Tracker
	engine   *scoring.Engine
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// openApp loads config from configDir and opens the store.
func openApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	seeds := scoring.DefaultSeeds()
	if path := cfg.SeedsPath(); path != "" {
		profile, err := config.LoadSeeds(path)
		if err != nil {
			return nil, fmt.Errorf("load seeds: %w", err)
		}
		seeds = scoring.NewSeedTable(profile)
	}

	st, err := store.OpenConfig(store.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	tracker, err := rotation.New(st, cat, rotation.Options{
		SecondaryCooldownDays: cfg.Rotation.SecondaryCooldownDays,
		AngleHistory:          cfg.Rotation.AngleHistory,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("create rotation tracker: %w", err)
	}

	engine := scoring.NewEngine(seeds, st, scoring.Options{
		MinDataPoints:   cfg.Scoring.MinDataPoints,
		NudgeMinPoints:  cfg.Scoring.NudgeMinPoints,
		HalfLifeDays:    float64(cfg.Scoring.HalfLifeDays),
		TrendRecentDays: cfg.Scoring.TrendRecentDays,
	})

	reg := prometheus.NewRegistry()
	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		catalog:  cat,
		tracker:  tracker,
		engine:   engine,
		registry: reg,
		metrics:  metrics.New(reg),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// orchestrator wires the batch orchestrator. The llm mode is registered
// only when an API key is configured.
func (a *app) orchestrator() (*orchestrator.Orchestrator, error) {
	validator, err := generate.NewValidator(a.cfg.Validation.BannedPatterns)
	if err != nil {
		return nil, fmt.Errorf("compile banned patterns: %w", err)
	}

	gens := map[string]generate.Generator{}
	llmCfg := a.cfg.Generation.LLM
	if llmCfg.APIKey != "" {
		gens[orchestrator.ModeLLM] = generate.NewLLM(generate.LLMConfig{
			Endpoint:  llmCfg.Endpoint,
			Model:     llmCfg.Model,
			APIKey:    llmCfg.APIKey,
			MaxTokens: llmCfg.MaxTokens,
			Timeout:   llmCfg.Timeout.Duration,
		})
	} else if a.cfg.Generation.Mode == orchestrator.ModeLLM {
		a.log.WithField("api_key_env", llmCfg.APIKeyEnv).Warn("llm mode configured without an api key")
	}

	return orchestrator.New(orchestrator.Options{
		Catalog:     a.catalog,
		Store:       a.store,
		Rotation:    a.tracker,
		Scorer:      a.engine,
		Generators:  gens,
		DefaultMode: a.cfg.Generation.Mode,
		Validator:   validator,
		MaxRetries:  a.cfg.Generation.Retries(),
		Novelty: novelty.Options{
			Threshold:    a.cfg.Novelty.SimilarityThreshold,
			WindowSize:   a.cfg.Novelty.WindowSize,
			AvoidBigrams: a.cfg.Novelty.AvoidBigrams,
		},
		WindowDays: a.cfg.Scoring.WindowDays,
		Metrics:    a.metrics,
		Log:        a.log,
	})
}
