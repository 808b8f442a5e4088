// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify applied migration checksums against files on disk",
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer m.Close()

		ok, err := m.Verify(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("verification failed: checksum mismatches found")
		}

		pterm.Success.Println("Verification Successful: All applied migrations match.")
		return nil
	},
}
