// Package oauthtest provides a fake OAuth-protected MCP server for tests.
// It speaks just enough of the streamable HTTP transport and the OAuth
// authorization server surface (metadata discovery, dynamic registration,
// token issuance) to drive a full connect and authorize round trip in
// process.
package oauthtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const (
	// AccessToken is the bearer token the fake token endpoint issues.
	AccessToken = "fake-access-token"

	// RefreshToken is the refresh token the fake token endpoint issues.
	RefreshToken = "fake-refresh-token"

	// ClientID is the client identifier the fake registration endpoint assigns.
	ClientID = "fake-client-id"

	// ClientSecret is the secret the fake registration endpoint assigns.
	ClientSecret = "fake-client-secret"
)

// Remote is a fake OAuth-protected MCP server.
type Remote struct {
	srv *httptest.Server

	// RequireAuth controls whether unauthenticated MCP requests get a 401.
	// Disable it to simulate a public server.
	RequireAuth bool

	mu             sync.Mutex
	registrations  int
	tokenExchanges int
	toolCalls      []string
}

// NewRemote starts a fake remote. The caller must Close it.
func NewRemote() *Remote {
	r := &Remote{RequireAuth: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/oauth-protected-resource", r.handleProtectedResourceMetadata)
	mux.HandleFunc("/.well-known/oauth-authorization-server", r.handleAuthServerMetadata)
	mux.HandleFunc("/authorize", r.handleAuthorize)
	mux.HandleFunc("/register", r.handleRegister)
	mux.HandleFunc("/token", r.handleToken)
	mux.HandleFunc("/", r.handleMCP)

	r.srv = httptest.NewServer(mux)
	return r
}

// URL returns the base URL; it doubles as the MCP endpoint.
func (r *Remote) URL() string {
	return r.srv.URL
}

// Close shuts the fake remote down.
func (r *Remote) Close() {
	r.srv.Close()
}

// Registrations returns how many dynamic client registrations happened.
func (r *Remote) Registrations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registrations
}

// TokenExchanges returns how many authorization code exchanges happened.
func (r *Remote) TokenExchanges() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokenExchanges
}

// ToolCalls returns the tool names invoked so far, in order.
func (r *Remote) ToolCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.toolCalls...)
}

func (r *Remote) handleProtectedResourceMetadata(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource":              r.srv.URL,
		"authorization_servers": []string{r.srv.URL},
	})
}

func (r *Remote) handleAuthServerMetadata(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"issuer":                           r.srv.URL,
		"authorization_endpoint":           r.srv.URL + "/authorize",
		"token_endpoint":                   r.srv.URL + "/token",
		"registration_endpoint":            r.srv.URL + "/register",
		"response_types_supported":         []string{"code"},
		"grant_types_supported":            []string{"authorization_code", "refresh_token"},
		"code_challenge_methods_supported": []string{"S256"},
	})
}

// handleAuthorize never runs during tests; the authorization URL is opened
// by a browser in real use. It exists so the URL at least resolves.
func (r *Remote) handleAuthorize(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("authorization page"))
}

func (r *Remote) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var body map[string]interface{}
	_ = json.NewDecoder(req.Body).Decode(&body)

	r.mu.Lock()
	r.registrations++
	r.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"client_id":     ClientID,
		"client_secret": ClientSecret,
		"redirect_uris": body["redirect_uris"],
		"grant_types":   []string{"authorization_code", "refresh_token"},
	})
}

func (r *Remote) handleToken(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := req.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if req.Form.Get("grant_type") == "authorization_code" {
		if req.Form.Get("code") == "" || req.Form.Get("code_verifier") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
			return
		}
		r.mu.Lock()
		r.tokenExchanges++
		r.mu.Unlock()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  AccessToken,
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": RefreshToken,
	})
}

// handleMCP serves the JSON-RPC endpoint of the streamable HTTP transport.
func (r *Remote) handleMCP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if r.RequireAuth && req.Header.Get("Authorization") != "Bearer "+AccessToken {
		w.Header().Set("WWW-Authenticate",
			fmt.Sprintf(`Bearer resource_metadata=%q`, r.srv.URL+"/.well-known/oauth-protected-resource"))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var rpc struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(req.Body).Decode(&rpc); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Notifications carry no id and expect no body.
	if strings.HasPrefix(rpc.Method, "notifications/") {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	switch rpc.Method {
	case "initialize":
		r.writeResult(w, rpc.ID, map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
			"serverInfo":      map[string]interface{}{"name": "fake-remote", "version": "1.0.0"},
		})
	case "ping":
		r.writeResult(w, rpc.ID, map[string]interface{}{})
	case "tools/list":
		r.writeResult(w, rpc.ID, map[string]interface{}{
			"tools": []map[string]interface{}{
				{
					"name":        "echo",
					"description": "Echo the input back",
					"inputSchema": map[string]interface{}{"type": "object"},
				},
			},
		})
	case "tools/call":
		var params struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(rpc.Params, &params)
		r.mu.Lock()
		r.toolCalls = append(r.toolCalls, params.Name)
		r.mu.Unlock()
		r.writeResult(w, rpc.ID, map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": "echoed"},
			},
		})
	default:
		r.writeRPCError(w, rpc.ID, -32601, "method not found: "+rpc.Method)
	}
}

func (r *Remote) writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func (r *Remote) writeRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]interface{}{"code": code, "message": message},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
