package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optionwheel/engine/internal/artifactstore"
	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/freeze"
	"github.com/optionwheel/engine/internal/ledger"
	"github.com/optionwheel/engine/internal/model"
	"github.com/optionwheel/engine/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate the configured universe once and write a decision artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Mode = "DRY_RUN"
			}

			artifact, err := runOnce(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			printSummary(artifact)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "force DRY_RUN mode regardless of config")
	return cmd
}

// runOnce wires one evaluation run's collaborators from cfg and executes
// pipeline.Run. Shared by the run and serve commands so the HTTP surface's
// /api/ops/evaluate route exercises the exact same wiring as the CLI.
func runOnce(ctx context.Context, cfg *config.Config) (*model.DecisionArtifact, error) {
	deps := buildDeps(cfg, log.Logger)
	deps.Store = artifactstore.New(cfg.Artifact.OutputDir)
	deps.Freeze = freeze.New("config/.freeze_snapshot.json")

	repo, closeLedger, err := openLedgerRepo(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("wheelctl: ledger mirror unavailable, falling back to JSONL-only")
		repo = ledger.NewJSONLRepo(cfg.Ledger.JSONLPath)
	} else {
		defer closeLedger()
	}

	portfolio, err := buildPortfolio(ctx, cfg, repo)
	if err != nil {
		log.Warn().Err(err).Msg("wheelctl: failed to compute portfolio exposure from ledger")
	}

	specs := buildSpecs(cfg)
	if len(specs) == 0 {
		return nil, fmt.Errorf("wheelctl: universe.symbols is empty")
	}

	log.Info().Int("symbols", len(specs)).Str("mode", cfg.Mode).Msg("starting evaluation run")
	return pipeline.Run(ctx, cfg, deps, specs, portfolio, time.Now())
}

func printSummary(artifact *model.DecisionArtifact) {
	counts := map[model.ConfidenceBand]int{}
	for _, s := range artifact.Symbols {
		counts[s.Band]++
	}
	fmt.Printf("run %s: %d symbols evaluated in %dms (A=%d B=%d C=%d D=%d)\n",
		artifact.RunID, len(artifact.Symbols), artifact.DurationMS,
		counts[model.BandA], counts[model.BandB], counts[model.BandC], counts[model.BandD])
	if artifact.PartialRun {
		fmt.Println("warning: run hit its deadline before every symbol finished")
	}
	for _, e := range artifact.Errors {
		fmt.Println("error:", e)
	}
}
