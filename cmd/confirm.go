// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"strings"

	"github.com/pterm/pterm"

	"github.com/rodmena-limited/migretti/cmd/flags"
)

// confirmProduction guards mutating commands against accidental runs on a
// production profile. It returns false when the operator declines; declining
// is not an error.
func confirmProduction(dryRun, yes bool) bool {
	env := flags.Env()
	if env == "" {
		env = os.Getenv("MG_ENV")
	}

	switch strings.ToLower(env) {
	case "prod", "production", "live":
	default:
		return true
	}

	if dryRun || yes {
		return true
	}

	pterm.Warning.Printfln("You are about to run this operation against the %q environment!", env)
	response, _ := pterm.DefaultInteractiveTextInput.Show("Are you sure you want to continue? (yes/no)")
	if strings.ToLower(strings.TrimSpace(response)) != "yes" {
		pterm.Println("Operation cancelled.")
		return false
	}

	return true
}
