// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rodmena-limited/migretti/internal/fileio"
	"github.com/rodmena-limited/migretti/internal/identifier"
)

const migrationTemplate = `-- migration: %s
-- id: %s

-- migrate: up


-- migrate: down

`

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new migration script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		if _, err := os.Stat("migrations"); os.IsNotExist(err) {
			return fmt.Errorf("migrations directory not found; run 'mg init' first")
		}

		id := identifier.New()
		filename := fmt.Sprintf("%s_%s.sql", id, identifier.Slugify(name))
		path := filepath.Join("migrations", filename)

		content := fmt.Sprintf(migrationTemplate, name, id)
		if err := fileio.WriteExclusive(path, []byte(content)); err != nil {
			return fmt.Errorf("creating migration file: %w", err)
		}

		pterm.Printfln("Created %s", path)
		return nil
	},
}
