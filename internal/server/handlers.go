package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"mcpconnect/internal/oauth"
	"mcpconnect/pkg/logging"
)

// connectRequest starts a new session against a remote MCP server. The
// callback URL is the redirect target the browser lands on after
// authorization; it is usually this process's own /oauth/callback page.
type connectRequest struct {
	ServerURL   string `json:"serverUrl"`
	CallbackURL string `json:"callbackUrl"`

	// Scopes override the configured OAuth scopes for this session.
	Scopes []string `json:"scopes,omitempty"`
}

type finishRequest struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

type toolCallRequest struct {
	SessionID string                 `json:"sessionId"`
	ToolName  string                 `json:"toolName"`
	ToolArgs  map[string]interface{} `json:"toolArgs,omitempty"`
}

// Status tags carried on every response.
const (
	statusConnected             = "connected"
	statusAuthorizationRequired = "authorization_required"
	statusOK                    = "ok"
	statusError                 = "error"
)

type sessionResponse struct {
	Status           string `json:"status"`
	SessionID        string `json:"sessionId"`
	AuthorizationURL string `json:"authorizationUrl,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("Server", err, "Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(w, status, errorResponse{Status: statusError, Message: fmt.Sprintf(format, args...)})
}

// decodeRequest parses a JSON POST body. It writes the error response itself
// and returns false if the request is unusable.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method %s not allowed", r.Method)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %s", err)
		return false
	}
	return true
}

// writeConnectionError maps a connection error to the API status codes.
func writeConnectionError(w http.ResponseWriter, err error) {
	var stateErr *oauth.StateError
	switch {
	case errors.Is(err, oauth.ErrEmptyCode):
		writeError(w, http.StatusBadRequest, "%s", err)
	case errors.Is(err, oauth.ErrMissingVerifier):
		writeError(w, http.StatusConflict, "%s", err)
	case errors.Is(err, oauth.ErrNotConnected):
		writeError(w, http.StatusConflict, "%s", err)
	case errors.As(err, &stateErr):
		writeError(w, http.StatusConflict, "%s", err)
	default:
		writeError(w, http.StatusBadGateway, "%s", err)
	}
}

// handleConnect creates a session and attempts the initial connection. If the
// remote demands OAuth authorization the session is kept pending and the
// authorization URL is returned with status 401 so the caller can open it in
// a browser and later call the finish endpoint.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if req.ServerURL == "" || req.CallbackURL == "" {
		writeError(w, http.StatusBadRequest, "serverUrl and callbackUrl are required")
		return
	}
	if _, err := url.ParseRequestURI(req.ServerURL); err != nil {
		writeError(w, http.StatusBadRequest, "invalid serverUrl: %s", err)
		return
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = s.cfg.Connector.Scopes
	}

	conn := oauth.NewConnection(oauth.ConnectionConfig{
		ServerURL:   req.ServerURL,
		CallbackURL: req.CallbackURL,
		ClientName:  s.cfg.Connector.ClientName,
		Scopes:      scopes,
	}, nil)

	id := s.sessions.GenerateID()
	s.sessions.Put(id, conn)

	err := conn.Connect(r.Context())
	if err == nil {
		logging.Info("Server", "Session %s connected to %s", id, req.ServerURL)
		writeJSON(w, http.StatusOK, sessionResponse{Status: statusConnected, SessionID: id})
		return
	}

	var authErr *oauth.AuthorizationRequiredError
	if errors.As(err, &authErr) {
		logging.Info("Server", "Session %s awaiting authorization for %s", id, req.ServerURL)
		writeJSON(w, http.StatusUnauthorized, sessionResponse{
			Status:           statusAuthorizationRequired,
			SessionID:        id,
			AuthorizationURL: authErr.AuthorizationURL,
		})
		return
	}

	// The attempt is dead; do not leave the failed session behind.
	s.sessions.Remove(id)
	writeConnectionError(w, err)
}

// handleFinish completes a pending authorization with the code delivered to
// the redirect page.
func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	var req finishRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	conn, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session %s", req.SessionID)
		return
	}

	if err := conn.FinishAuthorization(r.Context(), req.Code); err != nil {
		writeConnectionError(w, err)
		return
	}

	logging.Info("Server", "Session %s authorized", req.SessionID)
	writeJSON(w, http.StatusOK, statusResponse{Status: statusOK})
}

// handleDisconnect tears a session down. Unknown sessions are not an error;
// the endpoint is idempotent.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	s.sessions.Remove(req.SessionID)
	writeJSON(w, http.StatusOK, statusResponse{Status: statusOK})
}

// handleToolList lists the tools of the session's remote server.
func (s *Server) handleToolList(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	conn, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session %s", req.SessionID)
		return
	}

	result, err := conn.ListTools(r.Context())
	if err != nil {
		writeConnectionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleToolCall invokes a tool on the session's remote server and relays the
// result unchanged.
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	var req toolCallRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if req.ToolName == "" {
		writeError(w, http.StatusBadRequest, "toolName is required")
		return
	}

	conn, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session %s", req.SessionID)
		return
	}

	result, err := conn.CallTool(r.Context(), req.ToolName, req.ToolArgs)
	if err != nil {
		writeConnectionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
