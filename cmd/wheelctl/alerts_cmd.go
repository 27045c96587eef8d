package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optionwheel/engine/internal/alerts"
	"github.com/optionwheel/engine/internal/artifactstore"
	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/model"
)

func newAlertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Dispatch webhook alerts for the latest evaluation run's candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			store := artifactstore.New(cfg.Artifact.OutputDir)
			artifact, err := store.Latest()
			if err != nil {
				return fmt.Errorf("wheelctl: no run to alert on: %w", err)
			}

			webhooks := alerts.WebhookConfig{
				Critical: cfg.Alerts.CriticalWebhook,
				Signal:   cfg.Alerts.SignalWebhook,
				Health:   cfg.Alerts.HealthWebhook,
				Daily:    cfg.Alerts.DailyWebhook,
			}
			if !webhooks.Configured() {
				fmt.Println("no alert webhooks configured, nothing to dispatch")
				return nil
			}

			dispatcher := alerts.NewDispatcher(webhooks, cfg.Alerts.StatePath, log.Logger)
			ctx := cmd.Context()

			if artifact.PartialRun {
				text := fmt.Sprintf("run %s hit its deadline before finishing every symbol", artifact.RunID)
				sent, err := dispatcher.Dispatch(ctx, alerts.EventHealth, "partial_run", text, map[string]any{"run_id": artifact.RunID})
				if err != nil {
					log.Warn().Err(err).Msg("wheelctl: failed to dispatch partial-run alert")
				} else if sent {
					fmt.Println("dispatched partial-run health alert")
				}
			}

			sentCount := 0
			for _, s := range artifact.Symbols {
				if s.Band == model.BandD || s.Capital == nil || s.Capital.SuggestedQty <= 0 {
					continue
				}
				text := fmt.Sprintf("%s: band %s, suggested qty %d", s.Symbol, s.Band, s.Capital.SuggestedQty)
				sent, err := dispatcher.Dispatch(ctx, alerts.EventSignal, s.Symbol, text, map[string]any{
					"symbol": s.Symbol,
					"band":   string(s.Band),
					"qty":    s.Capital.SuggestedQty,
					"run_id": artifact.RunID,
				})
				if err != nil {
					log.Warn().Err(err).Str("symbol", s.Symbol).Msg("wheelctl: failed to dispatch signal alert")
					continue
				}
				if sent {
					sentCount++
				}
			}

			fmt.Printf("dispatched %d signal alert(s) from run %s\n", sentCount, artifact.RunID)
			return nil
		},
	}
}
