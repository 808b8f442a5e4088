// SPDX-License-Identifier: Apache-2.0

package identifier

import (
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// New returns a 26-character lexicographically sortable migration id.
func New() string {
	return ulid.Make().String()
}

// Slugify lowercases name and collapses every run of non-alphanumeric
// characters into a single underscore.
func Slugify(name string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
