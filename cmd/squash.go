// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

func squashCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "squash <name>",
		Short: "Squash all pending migrations into a single new migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer m.Close()

			return m.Squash(cmd.Context(), args[0], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be squashed without touching any file")

	return cmd
}
