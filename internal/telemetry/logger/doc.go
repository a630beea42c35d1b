// Package logger configures structured logging for the contacts service.
//
// It builds log/slog loggers with JSON or text output, a process-wide
// level that can be changed at runtime, and redaction of credentials:
// values under sensitive keys are replaced, and anything that looks like a
// JWT is masked wherever it appears. Request ids travel through context.
package logger
