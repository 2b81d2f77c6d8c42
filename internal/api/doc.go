// Package api defines wire-format types and converters for the IPC layer.
// It translates internal queue models into transport-friendly DTOs so the
// CLI renders daemon state without coupling to internal types.
//
// DTOs use camelCase JSON tags. Internal enums (queue.Status, queue.ProcessingLane)
// are exposed as lowercase strings. Timestamps use RFC3339 with
// milliseconds. Transcripts travel as a character count rather than the
// full text; the summary is small enough to include verbatim.
package api
