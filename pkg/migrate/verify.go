// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"os"

	"github.com/rodmena-limited/migretti/pkg/scripts"
)

// Verify recomputes the checksum of every applied migration that still has a
// file on disk and compares it to the checksum stored at apply time. Each
// mismatch is logged; Verify returns true only when all match.
func (e *Engine) Verify(ctx context.Context) (bool, error) {
	if err := e.ledger.EnsureSchema(ctx); err != nil {
		return false, err
	}

	applied, err := e.ledger.AppliedDetails(ctx)
	if err != nil {
		return false, err
	}
	appliedChecksums := make(map[string]string, len(applied))
	for _, row := range applied {
		appliedChecksums[row.ID] = row.Checksum
	}

	corpus, err := scripts.List(e.scriptsDir)
	if err != nil {
		return false, err
	}

	ok := true
	for _, script := range corpus {
		stored, isApplied := appliedChecksums[script.ID]
		if !isApplied {
			continue
		}

		content, err := os.ReadFile(script.Path)
		if err != nil {
			e.logger.Error("unable to read migration file", "file", script.Path, "error", err.Error())
			ok = false
			continue
		}

		if scripts.Checksum(string(content)) != stored {
			e.logger.Error("checksum mismatch", "id", script.ID, "name", script.Name)
			ok = false
		}
	}

	if ok {
		e.logger.Info("all applied migrations match files on disk")
	}

	return ok, nil
}
