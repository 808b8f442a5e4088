// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"sort"

	"github.com/rodmena-limited/migretti/pkg/ledger"
	"github.com/rodmena-limited/migretti/pkg/scripts"
)

// Migration statuses as reported by Status.
const (
	StatusApplied = "applied"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// StatusEntry describes one migration known from disk, the ledger, or both.
type StatusEntry struct {
	ID     string
	Name   string
	Status string
}

// Status reports the union of the on-disk corpus and the ledger, ordered by
// id. A ledger row with no file on disk keeps its ledger status; a file with
// no ledger row is pending.
func (e *Engine) Status(ctx context.Context) ([]StatusEntry, error) {
	if err := e.ledger.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	applied, err := e.ledger.AppliedDetails(ctx)
	if err != nil {
		return nil, err
	}
	failed, err := e.ledger.Failed(ctx)
	if err != nil {
		return nil, err
	}

	recorded := make(map[string]StatusEntry)
	for _, row := range applied {
		recorded[row.ID] = StatusEntry{ID: row.ID, Name: row.Name, Status: StatusApplied}
	}
	for _, row := range failed {
		recorded[row.ID] = StatusEntry{ID: row.ID, Name: row.Name, Status: StatusFailed}
	}

	corpus, err := scripts.List(e.scriptsDir)
	if err != nil {
		return nil, err
	}

	entries := make([]StatusEntry, 0, len(corpus)+len(recorded))
	for _, script := range corpus {
		if entry, ok := recorded[script.ID]; ok {
			entries = append(entries, entry)
			delete(recorded, script.ID)
			continue
		}
		entries = append(entries, StatusEntry{ID: script.ID, Name: script.Name, Status: StatusPending})
	}

	// Ledger rows whose files are gone from disk.
	for _, entry := range recorded {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})

	return entries, nil
}

// Head returns the most recently applied migration, or nil when no migration
// has status 'applied'.
func (e *Engine) Head(ctx context.Context) (*ledger.HeadRow, error) {
	if err := e.ledger.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return e.ledger.Head(ctx)
}
