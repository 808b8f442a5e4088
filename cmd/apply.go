// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rodmena-limited/migretti/pkg/migrate"
)

func applyCmd() *cobra.Command {
	var dryRun, yes bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmProduction(dryRun, yes) {
				return nil
			}

			m, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer m.Close()

			return m.Apply(cmd.Context(), migrate.ApplyOptions{DryRun: dryRun})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Verify SQL in a rolled-back transaction without applying")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts")

	return cmd
}

func upCmd() *cobra.Command {
	var dryRun, yes bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply the next pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmProduction(dryRun, yes) {
				return nil
			}

			m, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer m.Close()

			return m.Apply(cmd.Context(), migrate.ApplyOptions{Limit: 1, DryRun: dryRun})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Verify SQL in a rolled-back transaction without applying")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts")

	return cmd
}
