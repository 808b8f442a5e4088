// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"os"

	"github.com/rodmena-limited/migretti/pkg/scripts"
)

// ApplyOptions control a single Apply run.
type ApplyOptions struct {
	// Limit caps the number of pending migrations applied; 0 means all.
	Limit int
	// DryRun verifies each pending migration inside a rolled-back
	// transaction instead of applying it. Non-transactional migrations are
	// only logged, not executed.
	DryRun bool
}

// Apply brings the database forward by running every pending migration in
// corpus order under the advisory lock.
func (e *Engine) Apply(ctx context.Context, opts ApplyOptions) error {
	if err := e.runHook(ctx, HookPreApply); err != nil {
		return err
	}

	if err := e.sess.WithLock(ctx, e.lockID, func(ctx context.Context) error {
		return e.applyLocked(ctx, opts)
	}); err != nil {
		return err
	}

	return e.runHook(ctx, HookPostApply)
}

func (e *Engine) applyLocked(ctx context.Context, opts ApplyOptions) error {
	if err := e.ledger.EnsureSchema(ctx); err != nil {
		return err
	}

	if err := e.checkDirty(ctx); err != nil {
		return err
	}

	applied, err := e.ledger.Applied(ctx)
	if err != nil {
		return err
	}

	corpus, err := scripts.List(e.scriptsDir)
	if err != nil {
		return err
	}

	var pending []scripts.Script
	for _, script := range corpus {
		if _, ok := applied[script.ID]; !ok {
			pending = append(pending, script)
		}
	}

	if opts.Limit > 0 && len(pending) > opts.Limit {
		pending = pending[:opts.Limit]
	}

	if len(pending) == 0 {
		e.logger.Info("database is up to date; no migrations to apply")
		return nil
	}

	for _, script := range pending {
		content, err := os.ReadFile(script.Path)
		if err != nil {
			return err
		}

		checksum := scripts.Checksum(string(content))

		parsed, err := scripts.Parse(string(content), script.Path)
		if err != nil {
			return err
		}
		if parsed.Down == "" {
			e.logger.Warn("migration has no '-- migrate: down' section", "file", script.Path)
		}

		if opts.DryRun {
			e.logger.Info("dry-run: verifying migration", "id", script.ID, "name", script.Name)
			if err := e.dryRun(ctx, script, parsed.Up, parsed.NoTransaction); err != nil {
				return err
			}
			continue
		}

		e.logger.Info("applying migration", "id", script.ID, "name", script.Name)
		if err := e.runUp(ctx, script, parsed, checksum); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) checkDirty(ctx context.Context) error {
	failed, err := e.ledger.Failed(ctx)
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		return DirtyStateError{Failed: failed}
	}
	return nil
}
