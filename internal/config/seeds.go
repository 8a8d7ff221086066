package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedProfile overrides or extends the built-in content category priors.
type SeedProfile struct {
	Seeds    map[string]SeedEntry `yaml:"seeds"`
	Suppress []string             `yaml:"suppress"`
}

type SeedEntry struct {
	Weight     float64 `yaml:"weight"`
	Tier       string  `yaml:"tier"`
	AvgViews   float64 `yaml:"avg_views"`
	MaxPerWeek int     `yaml:"max_per_week"`
}

// LoadSeeds reads a seed profile YAML file and validates it.
func LoadSeeds(path string) (*SeedProfile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("seeds path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seeds: %w", err)
	}

	var sp SeedProfile
	if err := yaml.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("parse seeds: %w", err)
	}

	if err := validateSeeds(&sp); err != nil {
		return nil, fmt.Errorf("validate seeds: %w", err)
	}

	return &sp, nil
}

func validateSeeds(sp *SeedProfile) error {
	for name, e := range sp.Seeds {
		if strings.TrimSpace(name) == "" {
			return errors.New("seeds: category name is required")
		}
		if e.Weight < 0 || e.Weight > 1 {
			return fmt.Errorf("seeds.%s: weight %.2f out of range [0,1]", name, e.Weight)
		}
		switch e.Tier {
		case "S", "A", "B", "C", "D":
		default:
			return fmt.Errorf("seeds.%s: unknown tier %q (want S, A, B, C or D)", name, e.Tier)
		}
		if e.MaxPerWeek < 0 {
			return fmt.Errorf("seeds.%s: max_per_week must not be negative", name)
		}
		if e.AvgViews < 0 {
			return fmt.Errorf("seeds.%s: avg_views must not be negative", name)
		}
	}
	return nil
}
