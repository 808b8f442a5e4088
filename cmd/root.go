// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rodmena-limited/migretti/cmd/flags"
	"github.com/rodmena-limited/migretti/internal/config"
	"github.com/rodmena-limited/migretti/internal/hooks"
	"github.com/rodmena-limited/migretti/pkg/migrate"
)

// Version is the migretti version
var Version = "development"

func init() {
	viper.SetEnvPrefix("MG")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("env", "", "Environment profile from mg.yaml (e.g. dev, prod)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")

	viper.BindPFlag("ENV", rootCmd.PersistentFlags().Lookup("env"))
	viper.BindPFlag("JSON_LOG", rootCmd.PersistentFlags().Lookup("json-log"))
	viper.BindPFlag("VERBOSE", rootCmd.PersistentFlags().Lookup("verbose"))
}

var rootCmd = &cobra.Command{
	Use:          "mg",
	Short:        "migretti - PostgreSQL schema migrations",
	SilenceUsage: true,
	Version:      Version,
}

func newLogger() migrate.Logger {
	return migrate.NewLogger(flags.JSONLog(), flags.Verbose())
}

// newEngine resolves the configuration for the selected environment profile
// and opens an engine against it. The caller owns the engine's connection
// and must Close it.
func newEngine(ctx context.Context) (*migrate.Engine, error) {
	cfg, err := config.Load(flags.Env())
	if err != nil {
		return nil, err
	}

	logger := newLogger()

	return migrate.New(ctx, cfg.Database.ConnString(),
		migrate.WithLockID(cfg.LockID),
		migrate.WithHooks(hooks.New(cfg.Hooks, logger)),
		migrate.WithLogger(logger),
	)
}

// Execute executes the root command.
func Execute() error {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(rollbackCmd())
	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(downCmd())
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(headCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(squashCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(promptCmd)

	return rootCmd.Execute()
}
