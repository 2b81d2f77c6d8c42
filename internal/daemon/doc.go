// Package daemon coordinates the long-running podbrief process.
//
// It wires configuration, queue storage, the workflow manager, and the feed
// monitor into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon exposes queue maintenance helpers for the
// IPC layer and owns the lifecycle notifications.
//
// Keep orchestration logic here: individual pipeline stages live in their
// own packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
