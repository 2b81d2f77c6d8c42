// Package publish implements the final pipeline stage: announcing a
// summarized episode to the configured Telegram chat.
package publish
