// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func rollbackCmd() *cobra.Command {
	var dryRun, yes bool

	cmd := &cobra.Command{
		Use:   "rollback [N]",
		Short: "Roll back the last N applied migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				var err error
				steps, err = strconv.Atoi(args[0])
				if err != nil || steps < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
			}

			if !confirmProduction(dryRun, yes) {
				return nil
			}

			m, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer m.Close()

			return m.Rollback(cmd.Context(), steps, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Verify SQL in a rolled-back transaction without committing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts")

	return cmd
}

func downCmd() *cobra.Command {
	var dryRun, yes bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last applied migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmProduction(dryRun, yes) {
				return nil
			}

			m, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer m.Close()

			return m.Rollback(cmd.Context(), 1, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Verify SQL in a rolled-back transaction without committing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts")

	return cmd
}
