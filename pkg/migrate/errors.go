// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"fmt"
	"strings"

	"github.com/rodmena-limited/migretti/pkg/ledger"
)

// DirtyStateError is returned when the ledger contains migrations in failed
// state. All mutating operations refuse to proceed until the failed rows are
// repaired out of band.
type DirtyStateError struct {
	Failed []ledger.FailedRow
}

func (e DirtyStateError) Error() string {
	ids := make([]string, len(e.Failed))
	for i, row := range e.Failed {
		ids[i] = fmt.Sprintf("%s (%s)", row.ID, row.Name)
	}
	return fmt.Sprintf(
		"dirty database state: migration(s) previously failed: %s; repair the schema manually, then delete the row from _migrations or set its status to 'applied' before retrying",
		strings.Join(ids, ", "))
}

// MissingFileError is returned when a rollback target has no script file on
// disk. The engine will not synthesize rollback SQL.
type MissingFileError struct {
	ID   string
	Name string
}

func (e MissingFileError) Error() string {
	return fmt.Sprintf("no script file on disk for applied migration %s (%s)", e.ID, e.Name)
}

// NoDownError is returned when a rollback target's script has no down
// section.
type NoDownError struct {
	ID   string
	Name string
}

func (e NoDownError) Error() string {
	return fmt.Sprintf("migration %s (%s) has no '-- migrate: down' section; cannot roll back", e.ID, e.Name)
}
