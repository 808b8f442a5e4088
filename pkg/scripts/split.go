// SPDX-License-Identifier: Apache-2.0

package scripts

import (
	"fmt"
	"strings"

	pgq "github.com/pganalyze/pg_query_go/v6"
)

// SplitStatements splits sql into individual top-level statements using the
// PostgreSQL scanner, so semicolons inside standard strings, dollar-quoted
// strings and comments do not terminate a statement. Statement-less input
// (whitespace, comments) yields an empty slice.
func SplitStatements(sql string) ([]string, error) {
	parts, err := pgq.SplitWithScanner(sql, true)
	if err != nil {
		return nil, fmt.Errorf("splitting statements: %w", err)
	}

	stmts := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		stmts = append(stmts, part)
	}

	return stmts, nil
}
