// Package textutil provides small text helpers shared across the pipeline:
// whitespace normalization for transcript assembly and preview truncation for
// notifications and CLI output.
package textutil
