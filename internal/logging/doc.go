// Package logging assembles the structured slog loggers used across bindery.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes attribute helpers so pipeline code tags log lines with comic
// IDs and stages consistently. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging
