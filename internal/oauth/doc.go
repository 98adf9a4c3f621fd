// Package oauth implements the client side of connecting to OAuth-protected
// MCP servers.
//
// The central type is Connection, a small state machine around mcp-go's
// OAuth-enabled streamable HTTP client. A connection attempt either succeeds
// directly or surfaces an authorization URL through a one-shot RedirectSink
// and parks in StateAwaitingAuthorization until the authorization code comes
// back from the browser and FinishAuthorization completes the PKCE exchange.
//
// Per-connection OAuth material (dynamically registered client identity,
// PKCE code verifier, issued tokens) lives in a CredentialStore owned
// exclusively by its Connection. The store doubles as the mcp-go
// transport.TokenStore, so the transport layer reads and writes the same
// tokens the flow produces.
//
// Failure classification is by kind, never by message text:
// AuthorizationRequiredError is a control-flow signal, TransportError is a
// hard failure, and StateError/ErrMissingVerifier indicate the API was used
// out of sequence.
package oauth
