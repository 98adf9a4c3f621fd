package oauth

import (
	"errors"
	"fmt"
)

// ErrMissingVerifier is returned when the PKCE code verifier is read before
// one was saved. This indicates the flow was driven out of sequence and is a
// defect, not a recoverable user error.
var ErrMissingVerifier = errors.New("no code verifier saved")

// ErrEmptyCode is returned when FinishAuthorization is called without an
// authorization code.
var ErrEmptyCode = errors.New("authorization code is required")

// ErrNotConnected is returned when tool operations are invoked on a
// connection that is not in StateConnected.
var ErrNotConnected = errors.New("not connected to server")

// AuthorizationRequiredError signals that the remote server demands OAuth
// authorization before the connection can be established. It is a
// control-flow signal rather than a failure: the connection is parked in
// StateAwaitingAuthorization and can be completed with FinishAuthorization.
type AuthorizationRequiredError struct {
	// AuthorizationURL is the URL the user must visit to authorize.
	AuthorizationURL string
}

// Error implements the error interface.
func (e *AuthorizationRequiredError) Error() string {
	return "authorization required: visit " + e.AuthorizationURL
}

// IsAuthorizationRequired reports whether err (or anything it wraps) is an
// AuthorizationRequiredError.
func IsAuthorizationRequired(err error) bool {
	var authErr *AuthorizationRequiredError
	return errors.As(err, &authErr)
}

// StateError is returned when an operation is invoked from a connection
// state it is not valid in.
type StateError struct {
	Op    string
	State ConnState
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.State)
}

// TransportError wraps a failure from the underlying MCP transport or the
// authorization server that is not an authorization-required condition.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *TransportError) Unwrap() error {
	return e.Err
}
