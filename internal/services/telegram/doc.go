// Package telegram delivers episode announcements through the Telegram Bot
// API.
//
// # Entry Points
//
// NewClient: construct client from Config.
// NewClientFrom: construct client from the resolved Telegram configuration.
// Client.SendMessage: deliver text to the configured chat, splitting
// messages longer than MessageLimit on line boundaries.
// Client.GetMe: verify the bot token and report the bot account.
//
// # Error Handling
//
// Bot API failures carry the API description and error code (APIError).
// Rate limits are retried honoring the retry_after parameter; 5xx responses
// and network timeouts are retried with exponential backoff. Transport
// errors are reported with the bot token masked, since the Bot API embeds
// the token in the request path.
package telegram
