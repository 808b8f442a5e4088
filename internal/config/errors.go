// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

// ErrNoDatabaseConfig is returned when neither mg.yaml nor the environment
// supplies a database connection.
var ErrNoDatabaseConfig = errors.New("no database configuration found: set MG_DATABASE_URL or add a database section to mg.yaml")
