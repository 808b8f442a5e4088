// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Seed runs every *.sql file in the seeds directory in filename order, each
// inside its own transaction.
func (e *Engine) Seed(ctx context.Context) error {
	files, err := filepath.Glob(filepath.Join(e.seedsDir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	if len(files) == 0 {
		e.logger.Info("no seed files found", "dir", e.seedsDir)
		return nil
	}

	for _, file := range files {
		e.logger.Info("running seed", "file", file)

		content, err := os.ReadFile(file)
		if err != nil {
			return err
		}

		err = e.sess.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, string(content))
			return err
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", file, err)
		}

		e.logger.Info("completed seed", "file", file)
	}

	return nil
}
