package handshake

import (
	"context"
	"errors"
	"sync"

	"mcpconnect/pkg/logging"
)

const (
	// TypeSuccess is the message type carrying an authorization code.
	TypeSuccess = "oauth-success"

	// TypeError is the message type carrying an authorization failure.
	TypeError = "oauth-error"
)

// Message is the payload exchanged between the redirect callback page and
// the opener window.
type Message struct {
	Type  string `json:"type"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Success builds an oauth-success message.
func Success(code string) Message {
	return Message{Type: TypeSuccess, Code: code}
}

// Failure builds an oauth-error message.
func Failure(reason string) Message {
	return Message{Type: TypeError, Error: reason}
}

// Terminal reports whether the message ends the handshake. Both terminal
// types cause the listener to be torn down after delivery.
func (m Message) Terminal() bool {
	return m.Type == TypeSuccess || m.Type == TypeError
}

// ErrListenerClosed is returned by Wait when the listener was closed before
// a terminal message arrived.
var ErrListenerClosed = errors.New("handshake listener closed")

// Listener is a one-shot delivery channel with a trust predicate. It
// accepts at most one terminal message whose origin satisfies the
// predicate; untrusted or excess messages are dropped silently, since they
// may be noise from unrelated activity rather than an attack worth
// surfacing.
type Listener struct {
	trusted func(origin string) bool

	mu     sync.Mutex
	ch     chan Message
	done   bool
	closed bool
}

// NewListener creates a listener that only accepts messages whose declared
// origin exactly equals trustedOrigin.
func NewListener(trustedOrigin string) *Listener {
	return NewListenerFunc(func(origin string) bool {
		return origin == trustedOrigin
	})
}

// NewListenerFunc creates a listener with a custom trust predicate.
func NewListenerFunc(trusted func(origin string) bool) *Listener {
	return &Listener{
		trusted: trusted,
		ch:      make(chan Message, 1),
	}
}

// Deliver offers a message to the listener. It returns true if the message
// was accepted. Messages from untrusted origins, non-terminal messages, and
// anything after the first accepted message are dropped.
func (l *Listener) Deliver(origin string, msg Message) bool {
	if !msg.Terminal() {
		return false
	}
	if l.trusted != nil && !l.trusted(origin) {
		logging.Debug("Handshake", "Dropping message from untrusted origin %q", origin)
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done || l.closed {
		return false
	}
	l.done = true
	l.ch <- msg
	return true
}

// Wait blocks until a terminal message is delivered, the listener is
// closed, or the context is cancelled.
func (l *Listener) Wait(ctx context.Context) (Message, error) {
	select {
	case msg, ok := <-l.ch:
		if !ok {
			return Message{}, ErrListenerClosed
		}
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close tears the listener down. Safe to call more than once; pending and
// future Wait calls return ErrListenerClosed unless a message was already
// delivered.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if !l.done {
		close(l.ch)
	}
}
