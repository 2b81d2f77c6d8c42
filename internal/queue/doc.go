// Package queue persists feed episodes in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats queries,
// heartbeat tracking, stuck-item recovery, and status transitions that mirror
// the public workflow enum. Episodes capture feed entry data, resolved video
// ids, transcripts, summaries, and review flags so stages can coordinate
// without additional state.
//
// The database doubles as the record of which feed entries have already been
// seen: an entry is enqueued only when no episode exists for its feed name and
// guid, so clearing the queue makes old entries eligible again on the next
// poll. Schema changes bump the version in schema.go; users clear the database
// to adopt the new schema.
//
// Treat this package as the single source of truth for queue semantics; when you
// add new statuses or episode fields, update schema.sql and bump schemaVersion.
package queue
