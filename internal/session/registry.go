package session

import (
	"sync"

	"mcpconnect/internal/oauth"
	"mcpconnect/pkg/logging"

	"github.com/google/uuid"
)

// Registry maps opaque session identifiers to their connections. All
// mutation goes through Put/Remove/Drain; it is safe for use from
// concurrent request handlers.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*oauth.Connection
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*oauth.Connection),
	}
}

// GenerateID returns a fresh opaque session identifier.
func (r *Registry) GenerateID() string {
	return uuid.New().String()
}

// Put registers a connection under the given session id. No two entries
// ever share a connection instance; Put replaces silently only if the
// caller reuses an id, which GenerateID makes vanishingly unlikely.
func (r *Registry) Put(id string, conn *oauth.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = conn

	logging.Debug("Session", "Registered session %s (total: %d)", id, len(r.sessions))
}

// Get returns the connection for the given session id, or false if the id
// is unknown. Unknown ids are not an error.
func (r *Registry) Get(id string) (*oauth.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.sessions[id]
	return conn, ok
}

// Remove disconnects and discards the session. The disconnect happens
// before the mapping is dropped so transport resources are released even if
// the caller forgot to. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	conn, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		conn.Disconnect()
		logging.Debug("Session", "Removed session %s", id)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Drain disconnects and removes all sessions. Called at shutdown.
func (r *Registry) Drain() {
	r.mu.Lock()
	drained := r.sessions
	r.sessions = make(map[string]*oauth.Connection)
	r.mu.Unlock()

	for id, conn := range drained {
		conn.Disconnect()
		logging.Debug("Session", "Drained session %s", id)
	}
}
