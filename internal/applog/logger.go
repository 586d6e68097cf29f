// Package applog holds the process-wide structured logger, configured the
// same way across every binary in this module: a JSON handler on stdout,
// overridable for embedding or tests.
package applog

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger overrides the package-level logger, e.g. for tests that want to
// assert on log output or binaries that want a different handler.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Logger returns the current process-wide logger.
func Logger() *slog.Logger {
	return logger
}
