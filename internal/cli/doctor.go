package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/orbitplan/internal/catalog"
	"github.com/ppiankov/orbitplan/internal/config"
	"github.com/ppiankov/orbitplan/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check config, store, catalog and generation setup",
	RunE:  doctorAction,
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		ok = false
	} else {
		printCheck(true, "config.yaml (storage %s, mode %s)", cfg.Storage.Driver, cfg.Generation.Mode)
	}

	// Seeds
	if cfg != nil {
		if path := cfg.SeedsPath(); path != "" {
			if sp, err := config.LoadSeeds(path); err != nil {
				printCheck(false, "seeds: %v", err)
				ok = false
			} else {
				printCheck(true, "seeds %s (%d categories)", path, len(sp.Seeds))
			}
		} else {
			printInfo("no seeds.yaml, using built-in priors")
		}
	}

	// Catalog
	if cat, err := catalog.Default(); err != nil {
		printCheck(false, "catalog: %v", err)
		ok = false
	} else {
		printCheck(true, "catalog (%d themes, %d sabbats)", len(cat.Themes), len(cat.Sabbats))
	}

	// Database
	if cfg != nil {
		db, err := store.OpenConfig(store.Config{Driver: cfg.Storage.Driver, Path: cfg.Storage.Path, DSN: cfg.Storage.DSN}, nil)
		if err != nil {
			printCheck(false, "database: %v", err)
			ok = false
		} else {
			defer func() { _ = db.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				printCheck(false, "database ping: %v", err)
				ok = false
			} else if v, err := db.SchemaVersion(ctx); err != nil {
				printCheck(false, "schema version: %v", err)
				ok = false
			} else {
				printCheck(true, "database %s (schema v%d)", db.Driver(), v)
			}
		}
	}

	// LLM key
	if cfg != nil {
		llm := cfg.Generation.LLM
		switch {
		case llm.APIKey != "":
			printCheck(true, "llm api key (%s)", llm.APIKeyEnv)
		case cfg.Generation.Mode == "llm":
			printCheck(false, "llm mode needs %s", llm.APIKeyEnv)
			ok = false
		default:
			printInfo("no llm api key in %s, template mode only", llm.APIKeyEnv)
		}
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
