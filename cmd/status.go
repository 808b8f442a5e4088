// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rodmena-limited/migretti/pkg/migrate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer m.Close()

		entries, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}

		var applied, pending, failed int
		for _, entry := range entries {
			switch entry.Status {
			case migrate.StatusApplied:
				applied++
			case migrate.StatusFailed:
				failed++
			default:
				pending++
			}
		}

		pterm.Printfln("Total migrations: %d", len(entries))
		pterm.Printfln("Applied: %d", applied)
		pterm.Printfln("Pending: %d", pending)
		if failed > 0 {
			pterm.Error.Printfln("Failed: %d", failed)
		}

		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer m.Close()

		entries, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			pterm.Println("No migrations found.")
			return nil
		}

		data := pterm.TableData{{"ID", "Status", "Name"}}
		for _, entry := range entries {
			data = append(data, []string{entry.ID, entry.Status, entry.Name})
		}

		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var headCmd = &cobra.Command{
	Use:   "head",
	Short: "Show the most recently applied migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer m.Close()

		head, err := m.Head(cmd.Context())
		if err != nil {
			return err
		}

		if head == nil {
			pterm.Println("No migrations applied.")
			return nil
		}

		pterm.Printfln("Current Head: %s", head.ID)
		pterm.Printfln("Name: %s", head.Name)
		pterm.Printfln("Applied At: %s", head.AppliedAt)

		return nil
	},
}
