package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mcpconnect/internal/config"
	"mcpconnect/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCallback(t *testing.T, api *httptest.Server, query string) (int, string) {
	t.Helper()
	resp, err := http.Get(api.URL + "/oauth/callback" + query)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestCallbackSuccessPage(t *testing.T) {
	_, api := newTestServer(t)

	status, body := getCallback(t, api, "?code=auth-code-123")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Authorization Successful!")
	assert.Contains(t, body, "oauth-success")
	assert.Contains(t, body, "auth-code-123")
	assert.Contains(t, body, "window.opener")
	// The message targets the serving origin, never the wildcard.
	assert.NotContains(t, body, `"*"`)
}

func TestCallbackErrorPage(t *testing.T) {
	_, api := newTestServer(t)

	status, body := getCallback(t, api, "?error=access_denied&error_description=user+said+no")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Authorization Failed")
	assert.Contains(t, body, "oauth-error")
	assert.Contains(t, body, "access_denied")
	assert.Contains(t, body, "user said no")
}

func TestCallbackWithoutCodeOrError(t *testing.T) {
	_, api := newTestServer(t)

	status, body := getCallback(t, api, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "oauth-error")
	assert.Contains(t, body, "no code")
}

func TestCallbackRejectsNonGet(t *testing.T) {
	_, api := newTestServer(t)

	resp, err := http.Post(api.URL+"/oauth/callback", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCallbackEscapesInjectedMarkup(t *testing.T) {
	_, api := newTestServer(t)

	status, body := getCallback(t, api, "?error=%3Cscript%3Ealert(1)%3C%2Fscript%3E")
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "<script>alert(1)</script>")
}

func TestCallbackCustomPath(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Connector.CallbackPath = "/auth/done"

	srv := New(cfg, session.NewRegistry())
	api := httptest.NewServer(srv.CreateMux())
	defer api.Close()

	resp, err := http.Get(api.URL + "/auth/done?code=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
