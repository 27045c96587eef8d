package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/ledger"
	"github.com/optionwheel/engine/internal/model"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the capital ledger",
	}

	var symbol string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, optionally filtered by symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			repo, closeLedger, err := openLedgerRepo(cfg)
			if err != nil {
				return err
			}
			defer closeLedger()

			rows, err := listEntries(cmd.Context(), repo, symbol)
			if err != nil {
				return err
			}
			for _, e := range rows {
				fmt.Printf("%s  %-6s  %-14s  %-13s  amount=%.2f qty=%d\n",
					e.At.Format("2006-01-02"), e.Symbol, e.PositionID, e.Event, e.Amount, e.Quantity)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Print realized P&L grouped by calendar month",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			repo, closeLedger, err := openLedgerRepo(cfg)
			if err != nil {
				return err
			}
			defer closeLedger()

			entries, err := repo.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range ledger.Aggregate(entries) {
				fmt.Printf("%s  realized=%.2f  opens=%d  closes=%d  assignments=%d\n",
					m.Month, m.Realized, m.OpenCount, m.CloseCount, m.AssignmentCount)
			}
			return nil
		},
	})

	return cmd
}

func listEntries(ctx context.Context, repo ledger.Repo, symbol string) ([]model.CapitalLedgerEntry, error) {
	if symbol == "" {
		return repo.ListAll(ctx)
	}
	return repo.ListBySymbol(ctx, symbol)
}
