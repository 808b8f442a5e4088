// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("MG_DATABASE_URL wins outright", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("MG_DATABASE_URL", "postgres://app:secret@db:5432/appdb")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "postgres://app:secret@db:5432/appdb", cfg.Database.ConnString())
		assert.Equal(t, int64(894321), cfg.LockID)
	})

	t.Run("reads the root database section", func(t *testing.T) {
		writeConfig(t, `database:
  host: localhost
  port: 5432
  user: postgres
  password: password
  dbname: my_database
lock_id: 555
hooks:
  pre_apply: echo before
`)

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, Port("5432"), cfg.Database.Port)
		assert.Equal(t, "my_database", cfg.Database.DBName)
		assert.Equal(t, int64(555), cfg.LockID)
		assert.Equal(t, "echo before", cfg.Hooks["pre_apply"])
	})

	t.Run("env profile overlays the root database", func(t *testing.T) {
		writeConfig(t, `database:
  host: localhost
  dbname: my_database
envs:
  dev:
    database:
      host: localhost
      dbname: my_app_dev
`)

		cfg, err := Load("dev")
		require.NoError(t, err)

		assert.Equal(t, "my_app_dev", cfg.Database.DBName)
	})

	t.Run("MG_ENV selects the profile when no flag is given", func(t *testing.T) {
		writeConfig(t, `database:
  dbname: root_db
envs:
  staging:
    database:
      dbname: staging_db
`)
		t.Setenv("MG_ENV", "staging")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "staging_db", cfg.Database.DBName)
	})

	t.Run("MG_DB_ variables override individual fields", func(t *testing.T) {
		writeConfig(t, `database:
  host: localhost
  dbname: my_database
`)
		t.Setenv("MG_DB_HOST", "override-host")
		t.Setenv("MG_DB_PASSWORD", "override-pass")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "override-host", cfg.Database.Host)
		assert.Equal(t, "override-pass", cfg.Database.Password)
		assert.Equal(t, "my_database", cfg.Database.DBName)
	})

	t.Run("interpolates environment references in values", func(t *testing.T) {
		writeConfig(t, `database:
  host: localhost
  dbname: my_database
  password: ${TEST_DB_SECRET}
`)
		t.Setenv("TEST_DB_SECRET", "s3cr3t")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "s3cr3t", cfg.Database.Password)
	})

	t.Run("no configuration at all is an error", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("MG_DATABASE_URL", "")

		_, err := Load("")
		assert.ErrorIs(t, err, ErrNoDatabaseConfig)
	})
}

func TestConnString(t *testing.T) {
	t.Parallel()

	t.Run("builds a conninfo string from discrete fields", func(t *testing.T) {
		d := Database{Host: "localhost", Port: "5432", User: "postgres", Password: "pw", DBName: "app"}

		assert.Equal(t, "host=localhost port=5432 user=postgres password=pw dbname=app", d.ConnString())
	})

	t.Run("omits empty fields", func(t *testing.T) {
		d := Database{Host: "localhost", DBName: "app"}

		assert.Equal(t, "host=localhost dbname=app", d.ConnString())
	})

	t.Run("quotes values containing spaces or quotes", func(t *testing.T) {
		d := Database{Host: "localhost", Password: "pa ss'wd"}

		assert.Equal(t, `host=localhost password='pa ss\'wd'`, d.ConnString())
	})
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename), []byte(content), 0o644))
	t.Chdir(dir)
	t.Setenv("MG_DATABASE_URL", "")
	t.Setenv("MG_ENV", "")
}
