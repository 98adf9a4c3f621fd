// Package session provides the process-wide registry mapping opaque session
// identifiers to OAuth-backed MCP connections.
//
// The registry is explicitly owned state: it is created at process start,
// injected into the HTTP handlers, and drained at shutdown. Identifiers are
// random, never parsed by consumers, and never reused within a process run.
package session
