// SPDX-License-Identifier: Apache-2.0

package ledger_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodmena-limited/migretti/internal/testutils"
	"github.com/rodmena-limited/migretti/pkg/db"
	"github.com/rodmena-limited/migretti/pkg/ledger"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		ctx := context.Background()

		sess, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer sess.Close()

		l := ledger.New(sess)
		for range 3 {
			require.NoError(t, l.EnsureSchema(ctx))
		}

		var count int
		err = conn.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_name IN ('_migrations', '_migrations_log')").
			Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestEnsureSchemaUpgradesLegacyInstall(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		ctx := context.Background()

		// A ledger shape predating the status column.
		_, err := conn.ExecContext(ctx, `CREATE TABLE _migrations (
			id VARCHAR(26) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			checksum VARCHAR(64)
		)`)
		require.NoError(t, err)
		_, err = conn.ExecContext(ctx, "INSERT INTO _migrations (id, name, checksum) VALUES ('01HLEGACY', 'legacy', 'abc')")
		require.NoError(t, err)

		sess, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer sess.Close()

		l := ledger.New(sess)
		require.NoError(t, l.EnsureSchema(ctx))

		// Pre-existing rows pick up the default status and stay visible.
		applied, err := l.Applied(ctx)
		require.NoError(t, err)
		assert.Contains(t, applied, "01HLEGACY")
	})
}

func TestLedgerQueries(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(conn *sql.DB, connStr string) {
		ctx := context.Background()

		sess, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer sess.Close()

		l := ledger.New(sess)
		require.NoError(t, l.EnsureSchema(ctx))

		_, err = conn.ExecContext(ctx, `INSERT INTO _migrations (id, name, checksum, status, applied_at) VALUES
			('01HAAA', 'first', 'c1', 'applied', NOW() - INTERVAL '2 hours'),
			('01HBBB', 'second', 'c2', 'applied', NOW() - INTERVAL '1 hour'),
			('01HCCC', 'broken', 'c3', 'failed', NOW())`)
		require.NoError(t, err)

		applied, err := l.Applied(ctx)
		require.NoError(t, err)
		assert.Len(t, applied, 2)
		assert.Contains(t, applied, "01HAAA")
		assert.Contains(t, applied, "01HBBB")

		failed, err := l.Failed(ctx)
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, ledger.FailedRow{ID: "01HCCC", Name: "broken"}, failed[0])

		details, err := l.AppliedDetails(ctx)
		require.NoError(t, err)
		require.Len(t, details, 2)
		assert.Equal(t, "01HBBB", details[0].ID, "newest applied row comes first")
		assert.Equal(t, "c2", details[0].Checksum)
		assert.Equal(t, "01HAAA", details[1].ID)

		head, err := l.Head(ctx)
		require.NoError(t, err)
		require.NotNil(t, head)
		assert.Equal(t, "01HBBB", head.ID)
		assert.Equal(t, "second", head.Name)
	})
}

func TestHeadOnEmptyLedger(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(_ *sql.DB, connStr string) {
		ctx := context.Background()

		sess, err := db.Open(ctx, connStr)
		require.NoError(t, err)
		defer sess.Close()

		l := ledger.New(sess)
		require.NoError(t, l.EnsureSchema(ctx))

		head, err := l.Head(ctx)
		require.NoError(t, err)
		assert.Nil(t, head)
	})
}
