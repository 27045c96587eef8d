// Command wheelctl runs the daily CSP/CC wheel evaluation engine: one-shot
// runs, the read-only HTTP surface, freeze-guard administration, ledger
// inspection and alert dispatch. Cobra root command, rs/zerolog console
// writer to stderr, exit code 1 on command failure.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const appName = "wheelctl"

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	})

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Daily CSP/CC wheel evaluation engine",
		Long: `wheelctl evaluates a configured universe of symbols once per
invocation against the cash-secured-put / covered-call wheel strategy,
writing a single decision artifact per run.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/wheelctl.yaml", "path to the run configuration file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFreezeCmd())
	rootCmd.AddCommand(newLedgerCmd())
	rootCmd.AddCommand(newAlertsCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
