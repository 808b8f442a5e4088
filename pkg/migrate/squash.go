// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rodmena-limited/migretti/internal/fileio"
	"github.com/rodmena-limited/migretti/internal/identifier"
	"github.com/rodmena-limited/migretti/pkg/scripts"
)

// BackupDirName is the subdirectory of the scripts directory that receives
// copies of the source files before a squash deletes them.
const BackupDirName = ".squash_backup"

const squashTemplate = `-- migration: %s (Squashed)
-- id: %s

-- migrate: up
%s

-- migrate: down
%s
`

// Squash collapses all pending migrations into a single new script whose up
// is the concatenation of their up blocks and whose down is the reverse
// concatenation of their down blocks. The sources are copied into
// .squash_backup/ before the new script is created with an exclusive-create
// write, and deleted only once the new script is verified on disk.
func (e *Engine) Squash(ctx context.Context, name string, dryRun bool) error {
	var applied map[string]struct{}
	err := e.sess.WithLock(ctx, e.lockID, func(ctx context.Context) error {
		if err := e.ledger.EnsureSchema(ctx); err != nil {
			return err
		}
		var err error
		applied, err = e.ledger.Applied(ctx)
		return err
	})
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

	if len(pending) == 0 {
		e.logger.Info("no pending migrations to squash")
		return nil
	}
	if len(pending) < 2 {
		e.logger.Info("only 1 pending migration; nothing to squash")
		return nil
	}

	e.logger.Info("squashing migrations", "count", len(pending))

	var upBlocks, downBlocks []string
	for _, script := range pending {
		content, err := os.ReadFile(script.Path)
		if err != nil {
			return err
		}

		parsed, err := scripts.Parse(string(content), script.Path)
		if err != nil {
			return err
		}
		if parsed.NoTransaction {
			e.logger.Warn("squashing non-transactional migration; result will be transactional unless manually edited", "id", script.ID)
		}

		source := fmt.Sprintf("-- Source: %s", filepath.Base(script.Path))
		upBlocks = append(upBlocks, source+"\n"+parsed.Up)
		// Prepend so the squashed down undoes the migrations in reverse order.
		downBlocks = append([]string{source + "\n" + parsed.Down}, downBlocks...)
	}

	newID := identifier.New()
	filename := fmt.Sprintf("%s_%s.sql", newID, identifier.Slugify(name))
	target := filepath.Join(e.scriptsDir, filename)
	content := fmt.Sprintf(squashTemplate, name, newID,
		strings.Join(upBlocks, "\n\n"), strings.Join(downBlocks, "\n\n"))

	if dryRun {
		e.logger.Info("dry-run: would write squashed migration", "file", target)
		for _, script := range pending {
			e.logger.Info("dry-run: would delete source", "file", script.Path)
		}
		return nil
	}

	backupDir := filepath.Join(e.scriptsDir, BackupDirName)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return err
	}
	for _, script := range pending {
		content, err := os.ReadFile(script.Path)
		if err != nil {
			return err
		}
		if err := fileio.WriteAtomic(filepath.Join(backupDir, filepath.Base(script.Path)), content); err != nil {
			return fmt.Errorf("backing up %s: %w", script.Path, err)
		}
	}

	if err := fileio.WriteExclusive(target, []byte(content)); err != nil {
		return fmt.Errorf("writing squashed migration: %w", err)
	}

	info, err := os.Stat(target)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("squashed migration %s was not written correctly; source files left intact", target)
	}

	for _, script := range pending {
		if err := os.Remove(script.Path); err != nil {
			return fmt.Errorf("deleting source %s: %w; originals are backed up in %s", script.Path, err, backupDir)
		}
		e.logger.Info("deleted source migration", "file", script.Path)
	}

	e.logger.Info("created squashed migration", "file", target)
	return nil
}
