// Package workflow advances queued episodes through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// episodes into registered stage handlers (resolver, transcriber, summarizer,
// publisher) while capturing progress and failure metadata. It also aggregates
// queue stats, calls stage health checks, and emits notifications when an
// episode fails permanently or needs manual review.
//
// The workflow runs two independent lanes: fetch (video resolution,
// transcript gathering) and deliver (summarization, publishing). Each lane
// polls for episodes matching its statuses and processes them independently,
// so a slow Gemini call does not block new episodes from being resolved.
//
// Add new lifecycle stages by extending StageSet, updating the queue status
// enums, and teaching the manager how to transition episodes; this package is
// the authoritative home for that coordination logic.
package workflow
