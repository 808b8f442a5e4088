// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"os"

	"github.com/rodmena-limited/migretti/pkg/scripts"
)

// Rollback walks the applied migrations newest-first and runs their down SQL
// for up to steps migrations, under the advisory lock.
func (e *Engine) Rollback(ctx context.Context, steps int, dryRun bool) error {
	if err := e.runHook(ctx, HookPreRollback); err != nil {
		return err
	}

	if err := e.sess.WithLock(ctx, e.lockID, func(ctx context.Context) error {
		return e.rollbackLocked(ctx, steps, dryRun)
	}); err != nil {
		return err
	}

	return e.runHook(ctx, HookPostRollback)
}

type rollbackTarget struct {
	script   scripts.Script
	parsed   *scripts.Parsed
	checksum string
}

func (e *Engine) rollbackLocked(ctx context.Context, steps int, dryRun bool) error {
	if err := e.ledger.EnsureSchema(ctx); err != nil {
		return err
	}

	if err := e.checkDirty(ctx); err != nil {
		return err
	}

	details, err := e.ledger.AppliedDetails(ctx)
	if err != nil {
		return err
	}
	if len(details) == 0 {
		e.logger.Info("no applied migrations to roll back")
		return nil
	}
	if steps > len(details) {
		steps = len(details)
	}

	corpus, err := scripts.List(e.scriptsDir)
	if err != nil {
		return err
	}
	byID := make(map[string]scripts.Script, len(corpus))
	for _, script := range corpus {
		byID[script.ID] = script
	}

	// Resolve and parse every target first so a missing or unparseable
	// script aborts the whole rollback before any SQL runs.
	targets := make([]rollbackTarget, 0, steps)
	for _, row := range details[:steps] {
		script, ok := byID[row.ID]
		if !ok {
			return MissingFileError{ID: row.ID, Name: row.Name}
		}

		content, err := os.ReadFile(script.Path)
		if err != nil {
			return err
		}

		parsed, err := scripts.Parse(string(content), script.Path)
		if err != nil {
			return err
		}
		if parsed.Down == "" {
			return NoDownError{ID: row.ID, Name: row.Name}
		}

		targets = append(targets, rollbackTarget{script: script, parsed: parsed, checksum: row.Checksum})
	}

	for _, target := range targets {
		if dryRun {
			e.logger.Info("dry-run: verifying rollback", "id", target.script.ID, "name", target.script.Name)
			if err := e.dryRun(ctx, target.script, target.parsed.Down, target.parsed.NoTransaction); err != nil {
				return err
			}
			continue
		}

		e.logger.Info("rolling back migration", "id", target.script.ID, "name", target.script.Name)
		if err := e.runDown(ctx, target.script, target.parsed, target.checksum); err != nil {
			return err
		}
	}

	return nil
}
