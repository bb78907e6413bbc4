// Package wordclock keeps a local mirror of a WordClock LED device's state
// synchronized over the device's Server-Sent-Events stream.
//
// The package is organised around four cooperating pieces:
//
//   - Client: the HTTP transport (snapshot fetch, state mutation, stream open)
//   - Decoder: the SSE wire parser, one instance per connection
//   - Store: the in-memory snapshot with change fan-out to subscribers
//   - Supervisor: the connection lifecycle (connect, drain, reconnect, stop)
//
// Coordinator composes them behind the surface consumers use: Start/Stop,
// Snapshot, OnChange, and RequestMutation. Ownership is explicit; there is
// no package-level registry and multiple coordinators can coexist for
// multiple clocks.
//
// # Consistency model
//
// The device is authoritative. Local mutations are applied optimistically
// after the device accepts them, and the next stream event for the same
// fields overwrites them. Merging is last-write-observed-wins per field
// with no timestamp comparison; a brief revert after a lost race with the
// device is expected and self-corrects on the next event.
package wordclock
