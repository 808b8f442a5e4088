// SPDX-License-Identifier: Apache-2.0

package scripts

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Script is a migration script discovered on disk. The id is the filename
// prefix up to the first underscore, the name is the remainder of the
// filename minus the .sql suffix.
type Script struct {
	ID   string
	Name string
	Path string
}

// Parsed is the directive-delimited view of a script's content.
type Parsed struct {
	Up            string
	Down          string
	NoTransaction bool
}

const (
	markerUp            = "-- migrate: up"
	markerDown          = "-- migrate: down"
	markerNoTransaction = "-- migrate: no-transaction"
)

// Parse splits a script's content into its up and down sections.
//
// Directive lines are matched on their whitespace-trimmed prefix and are not
// part of the extracted SQL. Lines before the first section marker are
// discarded. The no-transaction directive may appear anywhere and does not
// change the current section. A missing down section is not an error; callers
// decide whether to warn.
func Parse(content, filename string) (*Parsed, error) {
	var (
		up, down       []string
		currentSection string
		noTransaction  bool
		foundUp        bool
	)

	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(stripped, markerNoTransaction):
			noTransaction = true
			continue
		case strings.HasPrefix(stripped, markerDown):
			currentSection = "down"
			continue
		case strings.HasPrefix(stripped, markerUp):
			currentSection = "up"
			foundUp = true
			continue
		}

		switch currentSection {
		case "up":
			up = append(up, line)
		case "down":
			down = append(down, line)
		}
	}

	upSQL := strings.TrimSpace(strings.Join(up, "\n"))
	downSQL := strings.TrimSpace(strings.Join(down, "\n"))

	if !foundUp {
		return nil, MissingUpMarkerError{Filename: filename}
	}
	if upSQL == "" {
		return nil, EmptyUpSectionError{Filename: filename}
	}

	return &Parsed{
		Up:            upSQL,
		Down:          downSQL,
		NoTransaction: noTransaction,
	}, nil
}

// List enumerates the migration scripts in dir, ordered ascending by id.
// Files whose names do not match <id>_<slug>.sql are skipped. A missing
// directory yields an empty corpus.
func List(dir string) ([]Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var migrations []Script
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		id, rest, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			continue
		}

		migrations = append(migrations, Script{
			ID:   id,
			Name: strings.TrimSuffix(rest, ".sql"),
			Path: filepath.Join(dir, entry.Name()),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].ID < migrations[j].ID
	})

	return migrations, nil
}
