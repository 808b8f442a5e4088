// SPDX-License-Identifier: Apache-2.0

package migrate_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodmena-limited/migretti/internal/testutils"
	"github.com/rodmena-limited/migretti/pkg/migrate"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

func TestApplyFullLifecycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "01HAAAAAAAAAAAAAAAAAAAAAAA_create_users.sql", `-- migrate: up
CREATE TABLE users (id SERIAL PRIMARY KEY, name TEXT);

-- migrate: down
DROP TABLE users;
`)

	testutils.WithEngineAndConnection(t, dir, nil, func(engine *migrate.Engine, conn *sql.DB) {
		ctx := context.Background()

		require.NoError(t, engine.Apply(ctx, migrate.ApplyOptions{}))

		assert.True(t, tableExists(t, conn, "users"))
		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations WHERE status = 'applied'"))
		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations_log WHERE action = 'UP'"))

		ok, err := engine.Verify(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		head, err := engine.Head(ctx)
		require.NoError(t, err)
		require.NotNil(t, head)
		assert.Equal(t, "01HAAAAAAAAAAAAAAAAAAAAAAA", head.ID)
		assert.Equal(t, "create_users", head.Name)

		require.NoError(t, engine.Rollback(ctx, 1, false))

		assert.False(t, tableExists(t, conn, "users"))
		assert.Equal(t, 0, countRows(t, conn, "SELECT COUNT(*) FROM _migrations"))
		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations_log WHERE action = 'DOWN'"))

		entries, err := engine.Status(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, migrate.StatusPending, entries[0].Status)
	})
}

func TestApplyOnUnchangedCorpusIsNoOp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "01HAAAAAAAAAAAAAAAAAAAAAAA_create_t.sql", `-- migrate: up
CREATE TABLE t (id INT);

-- migrate: down
DROP TABLE t;
`)

	testutils.WithEngineAndConnection(t, dir, nil, func(engine *migrate.Engine, conn *sql.DB) {
		ctx := context.Background()

		require.NoError(t, engine.Apply(ctx, migrate.ApplyOptions{}))
		require.NoError(t, engine.Apply(ctx, migrate.ApplyOptions{}))

		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations"))
		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations_log"))
	})
}

func TestApplyLimit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "01HAAAAAAAAAAAAAAAAAAAAAAA_first.sql", `-- migrate: up
CREATE TABLE first_t (id INT);

-- migrate: down
DROP TABLE first_t;
`)
	writeScript(t, dir, "01HBBBBBBBBBBBBBBBBBBBBBBB_second.sql", `-- migrate: up
CREATE TABLE second_t (id INT);

-- migrate: down
DROP TABLE second_t;
`)

	testutils.WithEngineAndConnection(t, dir, nil, func(engine *migrate.Engine, conn *sql.DB) {
		ctx := context.Background()

		require.NoError(t, engine.Apply(ctx, migrate.ApplyOptions{Limit: 1}))

		assert.True(t, tableExists(t, conn, "first_t"))
		assert.False(t, tableExists(t, conn, "second_t"))
		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations"))

		require.NoError(t, engine.Apply(ctx, migrate.ApplyOptions{}))
		assert.True(t, tableExists(t, conn, "second_t"))
	})
}

func TestTransactionalFailureLeavesNoTrace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "01HAAAAAAAAAAAAAAAAAAAAAAA_broken.sql", `-- migrate: up
CREATE TABLE half_done (id INT);
SELECT * FROM table_that_does_not_exist;

-- migrate: down
DROP TABLE half_done;
`)

	testutils.WithEngineAndConnection(t, dir, nil, func(engine *migrate.Engine, conn *sql.DB) {
		ctx := context.Background()

		err := engine.Apply(ctx, migrate.ApplyOptions{})
		require.Error(t, err)

		assert.False(t, tableExists(t, conn, "half_done"))
		assert.Equal(t, 0, countRows(t, conn, "SELECT COUNT(*) FROM _migrations"))
		assert.Equal(t, 0, countRows(t, conn, "SELECT COUNT(*) FROM _migrations_log"))
	})
}

func TestNonTransactionalApplyAndRollback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "01HAAAAAAAAAAAAAAAAAAAAAAA_concurrent_index.sql", `-- migrate: no-transaction
-- migrate: up
CREATE TABLE IF NOT EXISTS t (id INT);
CREATE INDEX CONCURRENTLY idx_t ON t (id);

-- migrate: down
DROP INDEX CONCURRENTLY idx_t;
DROP TABLE t;
`)

	testutils.WithEngineAndConnection(t, dir, nil, func(engine *migrate.Engine, conn *sql.DB) {
		ctx := context.Background()

		require.NoError(t, engine.Apply(ctx, migrate.ApplyOptions{}))

		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM pg_class WHERE relname = 'idx_t'"))
		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations WHERE status = 'applied'"))

		require.NoError(t, engine.Rollback(ctx, 1, false))

		assert.Equal(t, 0, countRows(t, conn, "SELECT COUNT(*) FROM pg_class WHERE relname = 'idx_t'"))
		assert.False(t, tableExists(t, conn, "t"))
		assert.Equal(t, 0, countRows(t, conn, "SELECT COUNT(*) FROM _migrations"))
	})
}

func TestRollbackSteps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, spec := range []struct{ file, table string }{
		{"01HAAAAAAAAAAAAAAAAAAAAAAA_one.sql", "t_one"},
		{"01HBBBBBBBBBBBBBBBBBBBBBBB_two.sql", "t_two"},
		{"01HCCCCCCCCCCCCCCCCCCCCCCC_three.sql", "t_three"},
	} {
		writeScript(t, dir, spec.file, "-- migrate: up\nCREATE TABLE "+spec.table+" (id INT);\n\n-- migrate: down\nDROP TABLE "+spec.table+";\n")
	}

	testutils.WithEngineAndConnection(t, dir, nil, func(engine *migrate.Engine, conn *sql.DB) {
		ctx := context.Background()

		require.NoError(t, engine.Apply(ctx, migrate.ApplyOptions{}))
		require.NoError(t, engine.Rollback(ctx, 2, false))

		assert.True(t, tableExists(t, conn, "t_one"))
		assert.False(t, tableExists(t, conn, "t_two"))
		assert.False(t, tableExists(t, conn, "t_three"))
		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations"))
		assert.Equal(t, 2, countRows(t, conn, "SELECT COUNT(*) FROM _migrations_log WHERE action = 'DOWN'"))
	})
}

func TestRollbackAbortsWhenScriptFileIsMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeScript(t, dir, "01HAAAAAAAAAAAAAAAAAAAAAAA_create_t.sql", `-- migrate: up
CREATE TABLE t (id INT);

-- migrate: down
DROP TABLE t;
`)

	testutils.WithEngineAndConnection(t, dir, nil, func(engine *migrate.Engine, conn *sql.DB) {
		ctx := context.Background()

		require.NoError(t, engine.Apply(ctx, migrate.ApplyOptions{}))
		require.NoError(t, os.Remove(path))

		err := engine.Rollback(ctx, 1, false)

		var missingErr migrate.MissingFileError
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, "01HAAAAAAAAAAAAAAAAAAAAAAA", missingErr.ID)

		// Aborted before any SQL: the table and its ledger row are intact.
		assert.True(t, tableExists(t, conn, "t"))
		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations WHERE status = 'applied'"))
	})
}

func TestRollbackAbortsWithoutDownSection(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "01HAAAAAAAAAAAAAAAAAAAAAAA_no_down.sql", `-- migrate: up
CREATE TABLE t (id INT);
`)

	testutils.WithEngineAndConnection(t, dir, nil, func(engine *migrate.Engine, conn *sql.DB) {
		ctx := context.Background()

		require.NoError(t, engine.Apply(ctx, migrate.ApplyOptions{}))

		err := engine.Rollback(ctx, 1, false)

		var noDownErr migrate.NoDownError
		require.ErrorAs(t, err, &noDownErr)
		assert.True(t, tableExists(t, conn, "t"))
	})
}

func TestConcurrentApplySerializes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScript(t, dir, "01HAAAAAAAAAAAAAAAAAAAAAAA_slow.sql", `-- migrate: up
CREATE TABLE slow_t (id INT);
SELECT pg_sleep(2);

-- migrate: down
DROP TABLE slow_t;
`)

	testutils.WithTwoEnginesAndConnection(t, dir, func(engineA, engineB *migrate.Engine, conn *sql.DB) {
		ctx := context.Background()

		// Two sessions against the same database: the advisory lock admits
		// one at a time and the loser observes the winner's commit.
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, engine := range []*migrate.Engine{engineA, engineB} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = engine.Apply(ctx, migrate.ApplyOptions{})
			}()
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations_log WHERE action = 'UP'"))
		assert.Equal(t, 1, countRows(t, conn, "SELECT COUNT(*) FROM _migrations"))
	})
}

func writeScript(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func tableExists(t *testing.T, conn *sql.DB, name string) bool {
	t.Helper()
	var exists bool
	err := conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)", name).
		Scan(&exists)
	require.NoError(t, err)
	return exists
}

func countRows(t *testing.T, conn *sql.DB, query string) int {
	t.Helper()
	var count int
	require.NoError(t, conn.QueryRow(query).Scan(&count))
	return count
}
