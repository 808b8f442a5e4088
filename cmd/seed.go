// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rodmena-limited/migretti/internal/fileio"
	"github.com/rodmena-limited/migretti/internal/identifier"
)

const seedTemplate = `-- seed: %s

`

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Run all seed files in seeds/",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer m.Close()

			return m.Seed(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a new seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll("seeds", 0o755); err != nil {
				return err
			}

			filename := fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format("20060102150405"), identifier.Slugify(args[0]))
			path := filepath.Join("seeds", filename)

			if err := fileio.WriteExclusive(path, []byte(fmt.Sprintf(seedTemplate, args[0]))); err != nil {
				return fmt.Errorf("creating seed file: %w", err)
			}

			pterm.Printfln("Created %s", path)
			return nil
		},
	})

	return cmd
}
