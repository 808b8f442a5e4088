// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rodmena-limited/migretti/internal/config"
	"github.com/rodmena-limited/migretti/internal/fileio"
)

const defaultConfig = `database:
  host: localhost
  port: 5432
  user: postgres
  password: password
  dbname: my_database

envs:
  dev:
    database:
      host: localhost
      port: 5432
      user: postgres
      password: password
      dbname: my_app_dev
  prod:
    database:
      host: db.prod.example.com
      port: 5432
      user: dbuser
      password: ${PROD_DB_PASSWORD}
      dbname: my_app_prod
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new migration project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(config.Filename); err == nil {
			return fmt.Errorf("%s already exists", config.Filename)
		}

		if err := fileio.WriteExclusive(config.Filename, []byte(defaultConfig)); err != nil {
			return fmt.Errorf("creating %s: %w", config.Filename, err)
		}
		pterm.Printfln("Created %s", config.Filename)

		if _, err := os.Stat("migrations"); os.IsNotExist(err) {
			if err := os.MkdirAll("migrations", 0o755); err != nil {
				return err
			}
			pterm.Println("Created migrations/ directory")
		} else {
			pterm.Println("migrations/ directory already exists")
		}

		return nil
	},
}
