// Package app bootstraps and runs the mcpconnect process: it loads the
// configuration, initializes logging, builds the session registry and HTTP
// API server, and drives the run loop including graceful shutdown.
package app
