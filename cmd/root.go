package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contract-guard/internal/config"
	"github.com/sells-group/contract-guard/internal/pipeline"
	"github.com/sells-group/contract-guard/internal/policy"
	"github.com/sells-group/contract-guard/internal/registry"
	"github.com/sells-group/contract-guard/internal/store"
	anthropicpkg "github.com/sells-group/contract-guard/pkg/anthropic"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "contract-guard",
	Short: "Contract compliance analysis with adversarial adjudication",
	Long:  "Extracts commercial terms from contracts, checks them against an ASC 606-style revenue-recognition policy, runs an advocate/auditor debate via Claude, and produces an adjudicated recommendation.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// env bundles the dependencies shared by the analyze and serve commands.
type env struct {
	Pipeline *pipeline.Pipeline
	Registry *registry.Registry
	Store    store.Store
}

func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

// initEnv loads the policy document and contract registry (both fatal on
// failure), opens the run store, and builds the pipeline. Without an API key
// the pipeline runs in rule-only mode.
func initEnv(ctx context.Context) (*env, error) {
	pol, err := policy.Load(cfg.Policy.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load policy")
	}

	reg, err := registry.Load(cfg.Contracts.RegistryPath)
	if err != nil {
		return nil, eris.Wrap(err, "load contract registry")
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var aiClient anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		aiClient = anthropicpkg.NewClient(cfg.Anthropic.Key,
			anthropicpkg.WithRateLimit(cfg.Anthropic.RateRPS, 1),
		)
	} else {
		zap.L().Warn("no Anthropic API key configured, running in rule-only mode")
	}

	return &env{
		Pipeline: pipeline.New(cfg, pol, st, reg, aiClient),
		Registry: reg,
		Store:    st,
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
