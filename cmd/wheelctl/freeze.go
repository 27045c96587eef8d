package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/optionwheel/engine/internal/config"
	"github.com/optionwheel/engine/internal/freeze"
)

const freezeSnapshotPath = "config/.freeze_snapshot.json"

func newFreezeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freeze",
		Short: "Inspect and approve the LIVE configuration freeze guard",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check the current config against the approved snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			guard := freeze.New(freezeSnapshotPath)
			if err := guard.Check(cfg); err != nil {
				return err
			}
			hash, err := freeze.Hash(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("config hash %s matches the approved snapshot\n", hash)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "approve",
		Short: "Approve the current config as the new LIVE snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			guard := freeze.New(freezeSnapshotPath)
			if err := guard.Approve(cfg); err != nil {
				return err
			}
			hash, err := freeze.Hash(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("approved config hash %s\n", hash)
			return nil
		},
	})

	return cmd
}
