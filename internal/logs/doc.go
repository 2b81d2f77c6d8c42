// Package logs reads the daemon log file for CLI viewing.
//
// It supports "last N lines" snapshots with bounded memory, forward reads
// from a byte offset, and follow-mode polling for `podbrief logs --follow`.
// Callers supply context deadlines so polling shuts down cleanly when the
// CLI exits.
package logs
