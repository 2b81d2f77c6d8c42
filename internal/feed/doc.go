// Package feed downloads podcast RSS feeds and converts their items into
// pipeline entries.
//
// An Entry keeps the feed-supplied video id (yt:videoId) separate from the
// GUID; Identity prefers the video id so the same episode seen through a
// YouTube channel feed and a podcast host feed dedups identically. Show
// notes are kept as raw HTML for the transcript stage's fallback.
//
// Monitor owns the daemon's poll loop: one pass fetches every configured
// feed and enqueues entries the episode store has not seen. The first pass
// against an unknown feed queues only the newest entry so the back catalog
// is never announced; later passes use the newest stored publish date as the
// cutoff. PollOnce exposes a single pass for one-shot runs and check-now.
package feed
