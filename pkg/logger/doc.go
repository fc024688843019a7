// Package logger provides structured logging for imgurdl.
//
// It wraps zerolog behind a small Logger interface with field helpers, a
// pretty console writer, optional file output, and a process-wide logger
// reachable through GetLogger. Every line carries the application name and
// a per-process run id.
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("album", "ABC123").Info("Downloading album")
//
// Tests use NewTestLogger to capture messages and assert on them, or
// NewNopLogger to discard everything.
package logger
