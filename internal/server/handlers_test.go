package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mcpconnect/internal/config"
	"mcpconnect/internal/oauth/oauthtest"
	"mcpconnect/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(config.GetDefaultConfig(), session.NewRegistry())
	api := httptest.NewServer(srv.CreateMux())
	t.Cleanup(api.Close)
	return srv, api
}

func connectBodyFor(serverURL string) map[string]string {
	return map[string]string{
		"serverUrl":   serverURL,
		"callbackUrl": "http://localhost:8080/oauth/callback",
	}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealthEndpoint(t *testing.T) {
	_, api := newTestServer(t)

	resp, err := http.Get(api.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestConnectValidation(t *testing.T) {
	_, api := newTestServer(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing serverUrl", map[string]string{"callbackUrl": "http://localhost:8080/oauth/callback"}},
		{"missing callbackUrl", map[string]string{"serverUrl": "http://localhost:3000"}},
		{"invalid serverUrl", map[string]string{
			"serverUrl":   "not a url",
			"callbackUrl": "http://localhost:8080/oauth/callback",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, api.URL+"/api/mcp/auth/connect", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body errorResponse
			decodeBody(t, resp, &body)
			assert.Equal(t, "error", body.Status)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestConnectRejectsNonPost(t *testing.T) {
	_, api := newTestServer(t)

	resp, err := http.Get(api.URL + "/api/mcp/auth/connect")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestConnectPublicServer(t *testing.T) {
	remote := oauthtest.NewRemote()
	defer remote.Close()
	remote.RequireAuth = false

	srv, api := newTestServer(t)

	resp := postJSON(t, api.URL+"/api/mcp/auth/connect", connectBodyFor(remote.URL()))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body sessionResponse
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.SessionID)
	assert.Equal(t, "connected", body.Status)
	assert.Empty(t, body.AuthorizationURL)
	assert.Equal(t, 1, srv.sessions.Len())
}

func TestConnectTransportFailureLeavesNoSession(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	srv, api := newTestServer(t)

	resp := postJSON(t, api.URL+"/api/mcp/auth/connect", connectBodyFor(broken.URL))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 0, srv.sessions.Len())
}

func TestFullAuthorizationRoundTrip(t *testing.T) {
	remote := oauthtest.NewRemote()
	defer remote.Close()

	_, api := newTestServer(t)

	// Phase one: connect, which parks the session awaiting authorization.
	resp := postJSON(t, api.URL+"/api/mcp/auth/connect", connectBodyFor(remote.URL()))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var connectBody sessionResponse
	decodeBody(t, resp, &connectBody)
	require.NotEmpty(t, connectBody.SessionID)
	assert.Equal(t, "authorization_required", connectBody.Status)
	assert.NotEmpty(t, connectBody.AuthorizationURL)
	assert.Equal(t, 1, remote.Registrations())

	// Tool calls against the pending session are refused.
	resp = postJSON(t, api.URL+"/api/mcp/tool/list", map[string]string{"sessionId": connectBody.SessionID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Phase two: finish with the code the browser redirect delivered.
	resp = postJSON(t, api.URL+"/api/mcp/auth/finish", map[string]string{
		"sessionId": connectBody.SessionID,
		"code":      "test-auth-code",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var finishBody statusResponse
	decodeBody(t, resp, &finishBody)
	assert.Equal(t, "ok", finishBody.Status)
	assert.Equal(t, 1, remote.TokenExchanges())

	// The session is now usable for tool listing and invocation.
	resp = postJSON(t, api.URL+"/api/mcp/tool/list", map[string]string{"sessionId": connectBody.SessionID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listBody struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	decodeBody(t, resp, &listBody)
	require.Len(t, listBody.Tools, 1)
	assert.Equal(t, "echo", listBody.Tools[0].Name)

	resp = postJSON(t, api.URL+"/api/mcp/tool/call", map[string]interface{}{
		"sessionId": connectBody.SessionID,
		"toolName":  "echo",
		"toolArgs":  map[string]interface{}{"value": "hi"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, []string{"echo"}, remote.ToolCalls())

	// A second finish hits a connected session and is refused.
	resp = postJSON(t, api.URL+"/api/mcp/auth/finish", map[string]string{
		"sessionId": connectBody.SessionID,
		"code":      "another-code",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Disconnect tears the session down; a repeat is still OK.
	for i := 0; i < 2; i++ {
		resp = postJSON(t, api.URL+"/api/mcp/auth/disconnect", map[string]string{"sessionId": connectBody.SessionID})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var disconnectBody statusResponse
		decodeBody(t, resp, &disconnectBody)
		assert.Equal(t, "ok", disconnectBody.Status)
	}

	resp = postJSON(t, api.URL+"/api/mcp/tool/list", map[string]string{"sessionId": connectBody.SessionID})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestFinishValidation(t *testing.T) {
	remote := oauthtest.NewRemote()
	defer remote.Close()

	_, api := newTestServer(t)

	resp := postJSON(t, api.URL+"/api/mcp/auth/finish", map[string]string{"code": "abc"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, api.URL+"/api/mcp/auth/finish", map[string]string{
		"sessionId": "no-such-session",
		"code":      "abc",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Empty code against a pending session is a validation error, and the
	// session stays pending.
	resp = postJSON(t, api.URL+"/api/mcp/auth/connect", connectBodyFor(remote.URL()))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var connectBody sessionResponse
	decodeBody(t, resp, &connectBody)

	resp = postJSON(t, api.URL+"/api/mcp/auth/finish", map[string]string{
		"sessionId": connectBody.SessionID,
		"code":      "",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestToolCallValidation(t *testing.T) {
	_, api := newTestServer(t)

	resp := postJSON(t, api.URL+"/api/mcp/tool/call", map[string]string{"sessionId": "s1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, api.URL+"/api/mcp/tool/call", map[string]string{
		"sessionId": "no-such-session",
		"toolName":  "echo",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDisconnectValidation(t *testing.T) {
	_, api := newTestServer(t)

	resp := postJSON(t, api.URL+"/api/mcp/auth/disconnect", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown sessions disconnect cleanly.
	resp = postJSON(t, api.URL+"/api/mcp/auth/disconnect", map[string]string{"sessionId": "no-such-session"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
