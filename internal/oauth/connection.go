package oauth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"mcpconnect/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// ConnState represents the lifecycle state of a Connection.
type ConnState int

const (
	// StateIdle means no connection attempt has been made yet.
	StateIdle ConnState = iota

	// StateConnecting means the initial connection attempt is in flight.
	StateConnecting

	// StateConnected means the connection is established and tool calls
	// are permitted.
	StateConnected

	// StateAwaitingAuthorization means the remote demanded OAuth
	// authorization; the flow resumes via FinishAuthorization.
	StateAwaitingAuthorization

	// StateFinishing means the authorization code exchange is in flight.
	StateFinishing

	// StateFailed means the connection attempt failed for a reason other
	// than missing authorization. Terminal; a fresh attempt requires a new
	// Connection.
	StateFailed

	// StateClosed means the connection was disconnected. Terminal.
	StateClosed
)

// String returns the string representation of the connection state.
func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAwaitingAuthorization:
		return "awaiting_authorization"
	case StateFinishing:
		return "finishing"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// mcpProtocolVersion is the MCP protocol version sent during initialization.
const mcpProtocolVersion = "2024-11-05"

// ConnectionConfig configures a Connection.
type ConnectionConfig struct {
	// ServerURL is the URL of the remote MCP server.
	ServerURL string

	// CallbackURL is the redirect target registered with the authorization
	// server; the authorization code lands there.
	CallbackURL string

	// ClientName is the name used for dynamic client registration.
	ClientName string

	// Scopes are the OAuth scopes requested for the connection.
	Scopes []string
}

// DefaultClientName is the client name used for dynamic registration when
// none is configured.
const DefaultClientName = "mcpconnect"

// DefaultScopes are the OAuth scopes requested when none are configured.
var DefaultScopes = []string{"mcp:tools"}

// Connection drives one OAuth-backed MCP connection through its lifecycle.
// It owns a CredentialStore for the per-attempt OAuth material and a
// RedirectSink through which the authorization URL is surfaced.
type Connection struct {
	mu          sync.RWMutex
	cfg         ConnectionConfig
	creds       *CredentialStore
	sink        *RedirectSink
	state       ConnState
	client      *client.Client
	authHandler *transport.OAuthHandler
	oauthState  string
}

// NewConnection creates a connection in StateIdle. The sink receives the
// authorization URL if the remote turns out to require authorization.
func NewConnection(cfg ConnectionConfig, sink *RedirectSink) *Connection {
	if cfg.ClientName == "" {
		cfg.ClientName = DefaultClientName
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if sink == nil {
		sink = NewRedirectSink(nil)
	}
	return &Connection{
		cfg:   cfg,
		creds: NewCredentialStore(),
		sink:  sink,
		state: StateIdle,
	}
}

// State returns the current connection state.
func (c *Connection) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// CredentialStore returns the store holding this connection's OAuth material.
func (c *Connection) CredentialStore() *CredentialStore {
	return c.creds
}

// Connect attempts to establish the MCP connection.
//
// The first attempt uses a plain client with no auth material, so a server
// that requires no authorization connects directly: state becomes
// StateConnected and Connect returns nil. If that attempt is rejected with
// 401, Connect rebuilds the client with the OAuth transport, performs
// dynamic client registration, generates the PKCE material, surfaces the
// authorization URL through the RedirectSink, parks the connection in
// StateAwaitingAuthorization, and returns an *AuthorizationRequiredError.
// Any other failure is returned as a *TransportError and the connection is
// abandoned; retries are a caller policy, not performed here.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return &StateError{Op: "connect", State: c.state}
	}
	c.state = StateConnecting

	mcpClient, err := client.NewStreamableHttpClient(c.cfg.ServerURL)
	if err != nil {
		c.state = StateFailed
		return &TransportError{Op: "connect", Err: err}
	}

	err = c.initialize(ctx, mcpClient)
	if err == nil {
		c.client = mcpClient
		c.state = StateConnected
		logging.Debug("Connection", "Connected to %s without authorization", c.cfg.ServerURL)
		return nil
	}
	mcpClient.Close()

	if !isUnauthorizedError(err) {
		c.state = StateFailed
		return &TransportError{Op: "connect", Err: err}
	}

	// The server demands auth. An OAuth-configured transport with an empty
	// token store fails the next attempt with the typed error that carries
	// the handler needed to drive the flow.
	oauthClient, err := c.newTransportClient()
	if err != nil {
		c.state = StateFailed
		return &TransportError{Op: "connect", Err: err}
	}

	err = c.initialize(ctx, oauthClient)
	if err == nil {
		c.client = oauthClient
		c.state = StateConnected
		return nil
	}
	oauthClient.Close()

	if !client.IsOAuthAuthorizationRequiredError(err) {
		c.state = StateFailed
		return &TransportError{Op: "connect", Err: err}
	}

	handler := client.GetOAuthHandler(err)
	authURL, err := c.beginAuthorization(ctx, handler)
	if err != nil {
		c.state = StateFailed
		return &TransportError{Op: "start authorization", Err: err}
	}

	c.authHandler = handler
	c.state = StateAwaitingAuthorization
	c.sink.Notify(authURL)

	logging.Debug("Connection", "Authorization required for %s", c.cfg.ServerURL)
	return &AuthorizationRequiredError{AuthorizationURL: authURL}
}

// isUnauthorizedError reports whether a plain-transport failure was an HTTP
// 401 rejection. The plain client surfaces HTTP failures as errors carrying
// the status code in their message, so the code is matched there.
func isUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}
	if client.IsOAuthAuthorizationRequiredError(err) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, fmt.Sprintf("status %d", http.StatusUnauthorized)) ||
		strings.Contains(errStr, fmt.Sprintf("status code: %d", http.StatusUnauthorized)) ||
		strings.Contains(errStr, fmt.Sprintf("status code %d", http.StatusUnauthorized))
}

// beginAuthorization registers the OAuth client, generates PKCE material,
// and builds the authorization URL. Must be called with c.mu held.
func (c *Connection) beginAuthorization(ctx context.Context, handler *transport.OAuthHandler) (string, error) {
	if err := handler.RegisterClient(ctx, c.cfg.ClientName); err != nil {
		return "", err
	}

	c.creds.SaveClientIdentity(ClientIdentity{
		ClientID:     handler.GetClientID(),
		ClientSecret: handler.GetClientSecret(),
		RedirectURI:  c.cfg.CallbackURL,
		GrantTypes:   []string{"authorization_code", "refresh_token"},
		Scope:        strings.Join(c.cfg.Scopes, " "),
	})

	verifier, err := client.GenerateCodeVerifier()
	if err != nil {
		return "", err
	}
	c.creds.SaveCodeVerifier(verifier)

	state, err := client.GenerateState()
	if err != nil {
		return "", err
	}
	c.oauthState = state

	return handler.GetAuthorizationURL(ctx, state, client.GenerateCodeChallenge(verifier))
}

// FinishAuthorization completes a pending authorization with the code the
// authorization server issued. Valid only from StateAwaitingAuthorization.
// The saved code verifier and registered client identity are reused for the
// exchange; the issued tokens land in the CredentialStore as a side effect,
// after which the connection is re-established.
func (c *Connection) FinishAuthorization(ctx context.Context, code string) error {
	if code == "" {
		return ErrEmptyCode
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAwaitingAuthorization {
		return &StateError{Op: "finish authorization", State: c.state}
	}
	c.state = StateFinishing

	verifier, err := c.creds.CodeVerifier()
	if err != nil {
		c.state = StateAwaitingAuthorization
		return err
	}

	if err := c.authHandler.ProcessAuthorizationResponse(ctx, code, c.oauthState, verifier); err != nil {
		// The code may have been mistyped or expired; the session stays
		// pending so the caller can retry with a fresh code.
		c.state = StateAwaitingAuthorization
		return &TransportError{Op: "exchange authorization code", Err: err}
	}

	mcpClient, err := c.newTransportClient()
	if err != nil {
		c.state = StateFailed
		return &TransportError{Op: "reconnect", Err: err}
	}

	if err := c.initialize(ctx, mcpClient); err != nil {
		mcpClient.Close()
		c.state = StateFailed
		return &TransportError{Op: "reconnect", Err: err}
	}

	c.client = mcpClient
	c.state = StateConnected

	logging.Info("Connection", "Authorization completed for %s", c.cfg.ServerURL)
	return nil
}

// ListTools returns the tools the remote server offers. Valid only from
// StateConnected.
func (c *Connection) ListTools(ctx context.Context) (*mcp.ListToolsResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != StateConnected || c.client == nil {
		return nil, ErrNotConnected
	}

	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, &TransportError{Op: "list tools", Err: err}
	}
	return result, nil
}

// CallTool invokes a tool on the remote server and returns its result
// unchanged. Valid only from StateConnected.
func (c *Connection) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != StateConnected || c.client == nil {
		return nil, ErrNotConnected
	}

	result, err := c.client.CallTool(ctx, mcp.CallToolRequest{
		Params: struct {
			Name      string    `json:"name"`
			Arguments any       `json:"arguments,omitempty"`
			Meta      *mcp.Meta `json:"_meta,omitempty"`
		}{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, &TransportError{Op: "call tool", Err: err}
	}
	return result, nil
}

// Disconnect releases the transport and provider references. Valid from any
// state and idempotent; a second call has no additional effect.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}
	c.authHandler = nil
	c.state = StateClosed
}

// newTransportClient builds an OAuth-enabled streamable HTTP client backed
// by this connection's CredentialStore. The registered client identity, if
// any, is carried over so a reconnect reuses the same registration.
func (c *Connection) newTransportClient() (*client.Client, error) {
	oauthCfg := transport.OAuthConfig{
		RedirectURI: c.cfg.CallbackURL,
		Scopes:      c.cfg.Scopes,
		TokenStore:  c.creds,
		PKCEEnabled: true,
	}
	if identity, ok := c.creds.ClientIdentity(); ok {
		oauthCfg.ClientID = identity.ClientID
		oauthCfg.ClientSecret = identity.ClientSecret
	}

	return client.NewStreamableHttpClient(c.cfg.ServerURL, transport.WithHTTPOAuth(oauthCfg))
}

// initialize performs the MCP protocol handshake.
func (c *Connection) initialize(ctx context.Context, mcpClient *client.Client) error {
	if err := mcpClient.Start(ctx); err != nil {
		return err
	}

	_, err := mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: mcpProtocolVersion,
			ClientInfo: mcp.Implementation{
				Name:    c.cfg.ClientName,
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	})
	return err
}
