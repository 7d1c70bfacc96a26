package api

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens is the persisted credential pair for one user
type Tokens struct {
	Access   string
	Refresh  string
	Username string
}

// Empty reports whether no access token is held
func (t Tokens) Empty() bool {
	return t.Access == ""
}

// TokenStore persists tokens between invocations
type TokenStore interface {
	LoadTokens() (Tokens, error)
	SaveTokens(Tokens) error
	ClearTokens() error
}

// MemoryTokenStore keeps tokens for the lifetime of the process
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens Tokens
}

// LoadTokens returns the held tokens
func (m *MemoryTokenStore) LoadTokens() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

// SaveTokens replaces the held tokens
func (m *MemoryTokenStore) SaveTokens(t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	return nil
}

// ClearTokens forgets the held tokens
func (m *MemoryTokenStore) ClearTokens() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
	return nil
}

// Session owns the token lifecycle: login stores a pair, refresh replaces the
// access token, and clear forgets everything (forced logout).
type Session struct {
	mu     sync.Mutex
	store  TokenStore
	tokens Tokens
	loaded bool
}

// NewSession creates a session backed by store. A nil store keeps tokens in memory.
func NewSession(store TokenStore) *Session {
	if store == nil {
		store = &MemoryTokenStore{}
	}
	return &Session{store: store}
}

func (s *Session) load() error {
	if s.loaded {
		return nil
	}
	t, err := s.store.LoadTokens()
	if err != nil {
		return err
	}
	s.tokens = t
	s.loaded = true
	return nil
}

// Tokens returns the current token pair
func (s *Session) Tokens() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Tokens{}, err
	}
	return s.tokens, nil
}

// Authenticated reports whether an access token is held
func (s *Session) Authenticated() bool {
	t, err := s.Tokens()
	return err == nil && !t.Empty()
}

// Username returns the user that logged in, if any
func (s *Session) Username() string {
	t, _ := s.Tokens()
	return t.Username
}

// ExpiresAt returns the access token's exp claim. The signature is not
// verified; the server remains the authority on validity.
func (s *Session) ExpiresAt() (time.Time, bool) {
	t, err := s.Tokens()
	if err != nil || t.Empty() {
		return time.Time{}, false
	}
	return tokenExpiry(t.Access)
}

func tokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Set replaces the whole token pair
func (s *Session) Set(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveTokens(t); err != nil {
		return err
	}
	s.tokens = t
	s.loaded = true
	return nil
}

func (s *Session) setAccess(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	t := s.tokens
	t.Access = access
	if err := s.store.SaveTokens(t); err != nil {
		return err
	}
	s.tokens = t
	return nil
}

// Clear forgets all tokens
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
	s.loaded = true
	return s.store.ClearTokens()
}
