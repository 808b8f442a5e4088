// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"

	"github.com/rodmena-limited/migretti/pkg/db"
)

// Filename is the project configuration file, looked up in the working
// directory.
const Filename = "mg.yaml"

// Database is a connection spec: either a full libpq conninfo/URL, or
// discrete fields assembled into one.
type Database struct {
	ConnInfo string `json:"conninfo,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     Port   `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	DBName   string `json:"dbname,omitempty"`
}

// Port accepts both quoted and bare port values in mg.yaml.
type Port string

func (p *Port) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Port(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = Port(n.String())
	return nil
}

// Config is the resolved configuration for one environment profile.
type Config struct {
	Database Database          `json:"database"`
	LockID   int64             `json:"lock_id,omitempty"`
	Hooks    map[string]string `json:"hooks,omitempty"`
}

type fileConfig struct {
	Config
	Envs map[string]Config `json:"envs,omitempty"`
}

var interpolationPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load resolves configuration for the given environment profile.
//
// Priority: MG_DATABASE_URL wins outright; otherwise mg.yaml supplies the
// base, the selected envs: profile overlays it, and MG_DB_* variables
// override individual fields. ${VAR} references in mg.yaml values are
// replaced with environment values before parsing. A .env file in the
// working directory is loaded first if present.
func Load(env string) (*Config, error) {
	_ = godotenv.Load()

	if env == "" {
		env = os.Getenv("MG_ENV")
	}
	if env == "" {
		env = "default"
	}

	if url := os.Getenv("MG_DATABASE_URL"); url != "" {
		return &Config{
			Database: Database{ConnInfo: url},
			LockID:   db.DefaultLockID,
		}, nil
	}

	cfg := Config{LockID: db.DefaultLockID}

	raw, err := os.ReadFile(Filename)
	if err == nil {
		interpolated := interpolationPattern.ReplaceAllStringFunc(string(raw), func(ref string) string {
			return os.Getenv(interpolationPattern.FindStringSubmatch(ref)[1])
		})

		var file fileConfig
		if err := yaml.Unmarshal([]byte(interpolated), &file); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", Filename, err)
		}

		cfg.Database = file.Database
		cfg.Hooks = file.Hooks
		if file.LockID != 0 {
			cfg.LockID = file.LockID
		}

		if profile, ok := file.Envs[env]; ok {
			if profile.Database != (Database{}) {
				cfg.Database = profile.Database
			}
			if profile.LockID != 0 {
				cfg.LockID = profile.LockID
			}
			if profile.Hooks != nil {
				cfg.Hooks = profile.Hooks
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(&cfg.Database)

	if cfg.Database == (Database{}) {
		return nil, ErrNoDatabaseConfig
	}

	return &cfg, nil
}

func applyEnvOverrides(d *Database) {
	if v := os.Getenv("MG_DB_HOST"); v != "" {
		d.Host = v
	}
	if v := os.Getenv("MG_DB_PORT"); v != "" {
		d.Port = Port(v)
	}
	if v := os.Getenv("MG_DB_USER"); v != "" {
		d.User = v
	}
	if v := os.Getenv("MG_DB_PASSWORD"); v != "" {
		d.Password = v
	}
	if v := os.Getenv("MG_DB_NAME"); v != "" {
		d.DBName = v
	}
}

// ConnString renders the connection spec as a libpq conninfo string.
func (d Database) ConnString() string {
	if d.ConnInfo != "" {
		return d.ConnInfo
	}

	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+quoteConnValue(value))
		}
	}
	add("host", d.Host)
	add("port", string(d.Port))
	add("user", d.User)
	add("password", d.Password)
	add("dbname", d.DBName)

	return strings.Join(parts, " ")
}

// quoteConnValue quotes a conninfo value when it contains spaces or quotes,
// per libpq's keyword/value format.
func quoteConnValue(value string) string {
	if !strings.ContainsAny(value, ` '\`) {
		return value
	}
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}
