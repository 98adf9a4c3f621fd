package oauth

import "sync"

// RedirectFunc is invoked with the authorization URL when the authorization
// server must be visited by a human.
type RedirectFunc func(authURL string)

// RedirectSink is a single-use capability for surfacing the authorization
// URL. The first Notify delivers the URL to the configured callback; later
// calls are no-ops. This keeps the connection state machine independent of
// how the redirect is actually presented (popup, full navigation, test
// harness).
type RedirectSink struct {
	mu        sync.Mutex
	fn        RedirectFunc
	url       string
	delivered bool
}

// NewRedirectSink creates a sink that delivers the authorization URL to fn.
// A nil fn is allowed; the URL is then only recorded for later inspection.
func NewRedirectSink(fn RedirectFunc) *RedirectSink {
	return &RedirectSink{fn: fn}
}

// Notify delivers the authorization URL exactly once.
func (s *RedirectSink) Notify(authURL string) {
	s.mu.Lock()
	if s.delivered {
		s.mu.Unlock()
		return
	}
	s.delivered = true
	s.url = authURL
	fn := s.fn
	s.mu.Unlock()

	if fn != nil {
		fn(authURL)
	}
}

// URL returns the delivered authorization URL, or empty if Notify has not
// been called.
func (s *RedirectSink) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Delivered reports whether the sink has fired.
func (s *RedirectSink) Delivered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered
}
