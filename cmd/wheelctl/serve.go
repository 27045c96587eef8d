package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optionwheel/engine/internal/artifactstore"
	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/httpapi"
	"github.com/optionwheel/engine/internal/model"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only HTTP surface over the configured artifact store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			store := artifactstore.New(cfg.Artifact.OutputDir)
			runFn := func(ctx context.Context) (*model.DecisionArtifact, error) {
				return runOnce(ctx, cfg)
			}

			srvCfg := httpapi.ServerConfig{
				Host:         cfg.Server.Host,
				Port:         cfg.Server.Port,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  60 * time.Second,
				Cadence:      cfg.Server.Cadence,
				Cooldown:     cfg.Server.Cooldown,
			}
			server := httpapi.NewServer(srvCfg, store, runFn, log.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				log.Info().Msg("shutting down http server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}
}
