package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"mcpconnect/internal/handshake"
	"mcpconnect/pkg/logging"
)

//go:embed templates/*.html
var callbackTemplates embed.FS

var callbackTmpl = template.Must(template.ParseFS(callbackTemplates, "templates/*.html"))

// callbackData feeds the redirect page templates. Origin restricts the
// postMessage to the window that started the flow; posting to "*" would leak
// the authorization code to whatever document happens to own the opener.
type callbackData struct {
	MessageType string
	Code        string
	Error       string
	Origin      string
}

// handleOAuthCallback serves the page the authorization server redirects the
// browser to. The page relays the authorization code (or the failure) to the
// opener window via postMessage and closes itself; if there is no opener it
// falls back to a same-origin redirect carrying the code as a query
// parameter.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method %s not allowed", r.Method)
		return
	}

	query := r.URL.Query()
	data := callbackData{Origin: originFor(r)}

	if errCode := query.Get("error"); errCode != "" {
		data.MessageType = handshake.TypeError
		data.Error = errCode
		if desc := query.Get("error_description"); desc != "" {
			data.Error = fmt.Sprintf("%s: %s", errCode, desc)
		}
		logging.Info("Server", "OAuth callback reported error: %s", data.Error)
		renderCallback(w, "callback_error.html", data)
		return
	}

	code := query.Get("code")
	if code == "" {
		data.MessageType = handshake.TypeError
		data.Error = "authorization response carried no code"
		renderCallback(w, "callback_error.html", data)
		return
	}

	data.MessageType = handshake.TypeSuccess
	data.Code = code
	renderCallback(w, "callback_success.html", data)
}

func renderCallback(w http.ResponseWriter, name string, data callbackData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := callbackTmpl.ExecuteTemplate(w, name, data); err != nil {
		logging.Error("Server", err, "Failed to render callback page")
	}
}

// originFor computes the origin the callback page may post the code to. The
// redirect page is served by the same process as the app API, so the trusted
// opener origin is this request's own origin.
func originFor(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
