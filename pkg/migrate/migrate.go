// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"

	"github.com/rodmena-limited/migretti/pkg/db"
	"github.com/rodmena-limited/migretti/pkg/ledger"
)

// Hook boundaries the engine notifies around its mutating entry points.
const (
	HookPreApply     = "pre_apply"
	HookPostApply    = "post_apply"
	HookPreRollback  = "pre_rollback"
	HookPostRollback = "post_rollback"
)

// HookRunner is notified at hook boundaries. A non-nil error aborts the
// operation.
type HookRunner interface {
	Run(ctx context.Context, name string) error
}

// Engine is the migration execution engine. It owns a single database
// session for its lifetime and holds a database-wide advisory lock while
// applying or rolling back migrations and while Squash reads the ledger.
// Seed runs without the lock.
type Engine struct {
	sess   *db.Session
	ledger *ledger.Ledger

	scriptsDir string
	seedsDir   string
	lockID     int64
	hooks      HookRunner
	logger     Logger
}

// New connects to the database described by conninfo and returns an Engine
// acting on it. The caller must Close the engine when done.
func New(ctx context.Context, conninfo string, opts ...Option) (*Engine, error) {
	engineOpts := &options{
		scriptsDir: "migrations",
		seedsDir:   "seeds",
		lockID:     db.DefaultLockID,
		logger:     NewNoopLogger(),
	}
	for _, o := range opts {
		o(engineOpts)
	}

	sess, err := db.Open(ctx, conninfo)
	if err != nil {
		return nil, err
	}

	return &Engine{
		sess:       sess,
		ledger:     ledger.New(sess),
		scriptsDir: engineOpts.scriptsDir,
		seedsDir:   engineOpts.seedsDir,
		lockID:     engineOpts.lockID,
		hooks:      engineOpts.hooks,
		logger:     engineOpts.logger,
	}, nil
}

// ScriptsDir returns the directory the engine reads migration scripts from.
func (e *Engine) ScriptsDir() string {
	return e.scriptsDir
}

func (e *Engine) Close() error {
	return e.sess.Close()
}

func (e *Engine) runHook(ctx context.Context, name string) error {
	if e.hooks == nil {
		return nil
	}
	return e.hooks.Run(ctx, name)
}
