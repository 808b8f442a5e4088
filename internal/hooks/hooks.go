// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rodmena-limited/migretti/pkg/migrate"
)

// Runner executes configured shell commands at the engine's hook boundaries.
// Hook names with no configured command are silently skipped.
type Runner struct {
	hooks  map[string]string
	logger migrate.Logger
}

// FailedError is returned when a hook command exits non-zero.
type FailedError struct {
	Name   string
	Stderr string
	Err    error
}

func (e FailedError) Error() string {
	return fmt.Sprintf("hook %s failed: %s", e.Name, e.Stderr)
}

func (e FailedError) Unwrap() error {
	return e.Err
}

func New(hooks map[string]string, logger migrate.Logger) *Runner {
	return &Runner{hooks: hooks, logger: logger}
}

// Run executes the command configured for name through the shell, capturing
// its output.
func (r *Runner) Run(ctx context.Context, name string) error {
	command, ok := r.hooks[name]
	if !ok || command == "" {
		return nil
	}

	r.logger.Info("running hook", "hook", name, "command", command)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return FailedError{Name: name, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	if out := strings.TrimSpace(stdout.String()); out != "" {
		r.logger.Info("hook output", "hook", name, "output", out)
	}

	return nil
}
