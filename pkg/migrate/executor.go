// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/user"

	"github.com/rodmena-limited/migretti/pkg/scripts"
)

const (
	actionUp   = "UP"
	actionDown = "DOWN"
)

const (
	sqlInsertApplied = `INSERT INTO _migrations (id, name, checksum, status) VALUES ($1, $2, $3, 'applied')`

	sqlUpsertApplied = `INSERT INTO _migrations (id, name, checksum, status) VALUES ($1, $2, $3, 'applied')
		ON CONFLICT (id) DO UPDATE SET checksum = EXCLUDED.checksum, status = 'applied', applied_at = NOW()`

	sqlUpsertFailed = `INSERT INTO _migrations (id, name, checksum, status) VALUES ($1, $2, $3, 'failed')
		ON CONFLICT (id) DO UPDATE SET checksum = EXCLUDED.checksum, status = 'failed'`

	sqlDeleteApplied = `DELETE FROM _migrations WHERE id = $1`

	sqlInsertLog = `INSERT INTO _migrations_log (migration_id, name, action, performed_by, checksum) VALUES ($1, $2, $3, $4, $5)`
)

// errDryRunRollback aborts a dry-run transaction from the inside; it is
// swallowed once the rollback has happened.
var errDryRunRollback = errors.New("dry-run rollback")

func performedBy() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "system"
}

// runUp applies the up SQL and records it in the ledger and audit log as one
// indivisible step.
func (e *Engine) runUp(ctx context.Context, script scripts.Script, parsed *scripts.Parsed, checksum string) error {
	if parsed.NoTransaction {
		return e.runUpNoTransaction(ctx, script, parsed, checksum)
	}

	return e.sess.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, parsed.Up); err != nil {
			return fmt.Errorf("applying migration %s: %w", script.ID, err)
		}
		if _, err := tx.ExecContext(ctx, sqlInsertApplied, script.ID, script.Name, checksum); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, sqlInsertLog, script.ID, script.Name, actionUp, performedBy(), checksum)
		return err
	})
}

// runUpNoTransaction applies the up SQL statement by statement in autocommit
// mode. A mid-sequence failure leaves the database physically half-changed;
// the row is upserted to failed state so every later mutating operation
// refuses until a human repairs it.
func (e *Engine) runUpNoTransaction(ctx context.Context, script scripts.Script, parsed *scripts.Parsed, checksum string) error {
	stmts, err := scripts.SplitStatements(parsed.Up)
	if err != nil {
		return fmt.Errorf("migration %s: %w", script.ID, err)
	}

	for _, stmt := range stmts {
		if _, err := e.sess.ExecContext(ctx, stmt); err != nil {
			e.markFailed(ctx, script, checksum)
			return fmt.Errorf("applying migration %s (non-transactional): %w", script.ID, err)
		}
	}

	return e.sess.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, sqlUpsertApplied, script.ID, script.Name, checksum); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, sqlInsertLog, script.ID, script.Name, actionUp, performedBy(), checksum)
		return err
	})
}

// runDown reverses a migration: runs the down SQL, removes the ledger row
// and appends the audit row.
func (e *Engine) runDown(ctx context.Context, script scripts.Script, parsed *scripts.Parsed, checksum string) error {
	if parsed.NoTransaction {
		return e.runDownNoTransaction(ctx, script, parsed, checksum)
	}

	return e.sess.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, parsed.Down); err != nil {
			return fmt.Errorf("rolling back migration %s: %w", script.ID, err)
		}
		if _, err := tx.ExecContext(ctx, sqlDeleteApplied, script.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, sqlInsertLog, script.ID, script.Name, actionDown, performedBy(), checksum)
		return err
	})
}

// runDownNoTransaction runs the down SQL statement by statement in
// autocommit mode. A mid-sequence failure has already committed the earlier
// statements; the row is upserted to failed state so the half-reversed
// migration is not reported as rolled back.
func (e *Engine) runDownNoTransaction(ctx context.Context, script scripts.Script, parsed *scripts.Parsed, checksum string) error {
	stmts, err := scripts.SplitStatements(parsed.Down)
	if err != nil {
		return fmt.Errorf("migration %s: %w", script.ID, err)
	}

	for _, stmt := range stmts {
		if _, err := e.sess.ExecContext(ctx, stmt); err != nil {
			e.markFailed(ctx, script, checksum)
			return fmt.Errorf("rolling back migration %s (non-transactional): %w", script.ID, err)
		}
	}

	return e.sess.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, sqlDeleteApplied, script.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, sqlInsertLog, script.ID, script.Name, actionDown, performedBy(), checksum)
		return err
	})
}

func (e *Engine) markFailed(ctx context.Context, script scripts.Script, checksum string) {
	if _, err := e.sess.ExecContext(context.WithoutCancel(ctx), sqlUpsertFailed, script.ID, script.Name, checksum); err != nil {
		e.logger.Error("unable to record failed state", "id", script.ID, "error", err.Error())
	}
}

// dryRun verifies the SQL by running it inside a transaction that is always
// rolled back. Non-transactional scripts cannot be verified this way (each
// statement would commit), so their SQL is logged and execution skipped.
// No ledger write occurs in either mode.
func (e *Engine) dryRun(ctx context.Context, script scripts.Script, sqlText string, noTransaction bool) error {
	if noTransaction {
		e.logger.Info("dry-run: skipping execution of non-transactional migration", "id", script.ID, "name", script.Name)
		e.logger.Info(sqlText)
		return nil
	}

	err := e.sess.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, sqlText); err != nil {
			return fmt.Errorf("dry-run of migration %s: %w", script.ID, err)
		}
		return errDryRunRollback
	})
	if errors.Is(err, errDryRunRollback) {
		return nil
	}
	return err
}
