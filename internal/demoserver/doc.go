// Package demoserver runs a small local MCP server over streamable HTTP.
// It exposes a pair of toy tools so the connector can be exercised end to
// end without a remote deployment.
package demoserver
