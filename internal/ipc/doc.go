// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs exchanged
// between the podbrief CLI and the daemon. Queue entries travel as the shared
// api.QueueItem representation so the CLI renders exactly what the daemon
// reports. The client dials with a short timeout so commands fail fast when
// the daemon is offline.
//
// Reuse these types when adding new RPC endpoints to keep the protocol stable
// and compatible with existing command implementations.
package ipc
