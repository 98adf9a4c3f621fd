package oauth

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/client/transport"

	"golang.org/x/oauth2"
)

// ClientIdentity is the OAuth client record obtained from dynamic client
// registration (RFC 7591). It is created once per connection on first
// successful registration and never mutated afterwards.
type ClientIdentity struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	GrantTypes   []string
	Scope        string
}

// CredentialStore holds the OAuth artifacts of a single connection attempt:
// the registered client identity, the PKCE code verifier, and issued tokens.
// It is owned exclusively by its Connection and never shared across sessions.
//
// The store also implements mcp-go's transport.TokenStore, so the transport
// reads bearer tokens from, and persists refreshed tokens into, the same
// place the authorization flow writes them.
type CredentialStore struct {
	mu       sync.RWMutex
	identity *ClientIdentity
	tokens   *oauth2.Token
	verifier string
	hasVerif bool
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// SaveClientIdentity stores the registered client identity, replacing any
// previous value.
func (s *CredentialStore) SaveClientIdentity(identity ClientIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
}

// ClientIdentity returns the registered client identity, if any.
func (s *CredentialStore) ClientIdentity() (ClientIdentity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ClientIdentity{}, false
	}
	return *s.identity, true
}

// SaveTokens stores an issued token set, replacing any previous set
// wholesale. Partial merges are never performed.
func (s *CredentialStore) SaveTokens(tokens *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
}

// Tokens returns the current token set, if any.
func (s *CredentialStore) Tokens() (*oauth2.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return nil, false
	}
	return s.tokens, true
}

// SaveCodeVerifier stores the PKCE code verifier for the in-flight
// authorization attempt, superseding any previous verifier.
func (s *CredentialStore) SaveCodeVerifier(verifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifier = verifier
	s.hasVerif = true
}

// CodeVerifier returns the saved PKCE code verifier. Reading it before one
// was saved returns ErrMissingVerifier; a stale or fabricated verifier is
// never substituted.
func (s *CredentialStore) CodeVerifier() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasVerif {
		return "", ErrMissingVerifier
	}
	return s.verifier, nil
}

// GetToken returns the current token for the transport layer. Returns
// transport.ErrNoToken when no token is available, which signals mcp-go
// to surface the authorization-required condition.
func (s *CredentialStore) GetToken(ctx context.Context) (*transport.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens, ok := s.Tokens()
	if !ok || tokens.AccessToken == "" {
		return nil, transport.ErrNoToken
	}

	return &transport.Token{
		AccessToken:  tokens.AccessToken,
		TokenType:    tokens.TokenType,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.Expiry,
	}, nil
}

// SaveToken persists a token written back by the transport, e.g. after the
// token exchange or a refresh.
func (s *CredentialStore) SaveToken(ctx context.Context, token *transport.Token) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == nil {
		return nil
	}

	s.SaveTokens(&oauth2.Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.ExpiresAt,
	})
	return nil
}

// Ensure CredentialStore implements transport.TokenStore at compile time.
var _ transport.TokenStore = (*CredentialStore)(nil)
