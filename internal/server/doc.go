// Package server exposes the mcpconnect HTTP API: session-scoped endpoints
// to connect to OAuth-protected MCP servers, finish pending authorizations,
// invoke remote tools, and the browser-facing OAuth redirect page that hands
// the authorization code back to the opener window.
package server
