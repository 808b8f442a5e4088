// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rodmena-limited/migretti/pkg/db"
)

const sqlEnsure = `
CREATE TABLE IF NOT EXISTS _migrations (
	id			VARCHAR(26) PRIMARY KEY,
	name		VARCHAR(255) NOT NULL,
	applied_at	TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	checksum	VARCHAR(64),
	status		VARCHAR(20) DEFAULT 'applied'
);

CREATE TABLE IF NOT EXISTS _migrations_log (
	id				BIGSERIAL PRIMARY KEY,
	migration_id	VARCHAR(26) NOT NULL,
	name			VARCHAR(255) NOT NULL,
	action			VARCHAR(10) NOT NULL,
	performed_at	TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	performed_by	VARCHAR(255),
	checksum		VARCHAR(64)
);

-- Upgrade installs that predate the status column.
ALTER TABLE _migrations ADD COLUMN IF NOT EXISTS status VARCHAR(20) DEFAULT 'applied';
`

// AppliedRow is one successfully applied migration, as recorded in
// _migrations.
type AppliedRow struct {
	ID       string
	Name     string
	Checksum string
}

// FailedRow is a migration left in failed state by a partial
// non-transactional run.
type FailedRow struct {
	ID   string
	Name string
}

// HeadRow is the most recently applied migration.
type HeadRow struct {
	ID        string
	Name      string
	AppliedAt time.Time
}

// Ledger reads the applied-state tables on a session. Row mutations are
// issued by the executor as part of running a migration; the ledger itself
// exposes only the bootstrap and queries.
type Ledger struct {
	sess *db.Session
}

func New(sess *db.Session) *Ledger {
	return &Ledger{sess: sess}
}

// EnsureSchema creates the ledger tables if they do not exist and upgrades
// older installs missing the status column. It is idempotent and commits on
// success.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	return l.sess.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, sqlEnsure)
		return err
	})
}

// Applied returns the set of migration ids with status 'applied'.
func (l *Ledger) Applied(ctx context.Context) (map[string]struct{}, error) {
	rows, err := l.sess.QueryContext(ctx, "SELECT id FROM _migrations WHERE status = 'applied'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = struct{}{}
	}

	return applied, rows.Err()
}

// Failed returns the migrations left in failed state.
func (l *Ledger) Failed(ctx context.Context) ([]FailedRow, error) {
	rows, err := l.sess.QueryContext(ctx, "SELECT id, name FROM _migrations WHERE status = 'failed'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failed []FailedRow
	for rows.Next() {
		var row FailedRow
		if err := rows.Scan(&row.ID, &row.Name); err != nil {
			return nil, err
		}
		failed = append(failed, row)
	}

	return failed, rows.Err()
}

// AppliedDetails returns the applied migrations ordered newest-first, the
// traversal order for rollback.
func (l *Ledger) AppliedDetails(ctx context.Context) ([]AppliedRow, error) {
	rows, err := l.sess.QueryContext(ctx,
		"SELECT id, name, checksum FROM _migrations WHERE status = 'applied' ORDER BY applied_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applied []AppliedRow
	for rows.Next() {
		var row AppliedRow
		var checksum sql.NullString
		if err := rows.Scan(&row.ID, &row.Name, &checksum); err != nil {
			return nil, err
		}
		row.Checksum = checksum.String
		applied = append(applied, row)
	}

	return applied, rows.Err()
}

// Head returns the newest applied migration, or nil when none is applied.
func (l *Ledger) Head(ctx context.Context) (*HeadRow, error) {
	var head HeadRow
	err := l.sess.QueryRowContext(ctx,
		"SELECT id, name, applied_at FROM _migrations WHERE status = 'applied' ORDER BY applied_at DESC, id DESC LIMIT 1").
		Scan(&head.ID, &head.Name, &head.AppliedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &head, nil
}
