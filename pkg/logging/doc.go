// Package logging provides leveled, subsystem-tagged logging for mcpconnect.
//
// It is a thin wrapper around log/slog that keeps call sites short:
//
//	logging.Info("Session", "Registered session %s", id)
//
// Init should be called once at application startup; until then, log calls
// fall back to a default text handler on stderr.
package logging
