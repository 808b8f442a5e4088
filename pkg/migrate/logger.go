// SPDX-License-Identifier: Apache-2.0

package migrate

import "github.com/pterm/pterm"

// Logger is the log sink for engine progress, warnings and mismatches.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type ptermLogger struct {
	logger pterm.Logger
}

type noopLogger struct{}

// NewLogger returns a pterm-backed logger. With jsonFormat the output is one
// JSON object per line; verbose lowers the level to debug.
func NewLogger(jsonFormat, verbose bool) Logger {
	l := pterm.DefaultLogger
	if jsonFormat {
		l.Formatter = pterm.LogFormatterJSON
	}
	if verbose {
		l.Level = pterm.LogLevelDebug
	}
	return &ptermLogger{logger: l}
}

func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *ptermLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, l.logger.Args(args...))
}

func (l *ptermLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args...))
}

func (l *ptermLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, l.logger.Args(args...))
}

func (l *ptermLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, l.logger.Args(args...))
}

func (l *noopLogger) Debug(msg string, args ...any) {}
func (l *noopLogger) Info(msg string, args ...any)  {}
func (l *noopLogger) Warn(msg string, args ...any)  {}
func (l *noopLogger) Error(msg string, args ...any) {}
