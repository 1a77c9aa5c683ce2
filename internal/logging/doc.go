// Package logging constructs the process-wide slog logger and provides
// shared attribute helpers so components agree on field names.
package logging
