// Package gemini provides a Google Gemini client for transcript summarization.
//
// The summarize stage sends each episode transcript through Summarize and
// stores the returned text on the queue item for the publish stage.
//
// # Configuration
//
// Requires api_key, and optionally base_url, model, and timeout_seconds.
// The API key is sent as the key query parameter of the v1beta
// generateContent endpoint.
//
// # Entry Points
//
// NewClient: construct client from Config.
// NewClientFrom: construct client from the resolved Gemini configuration.
// Client.Summarize: produce a summary for a podcast transcript.
// Client.HealthCheck: verify the API key and model are usable.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
package gemini
