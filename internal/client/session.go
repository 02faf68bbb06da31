package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentgrid/rentgrid-core/internal/auth"
)

// sessionKey is the storage key holding the serialised session.
const sessionKey = "session"

// Session is the client's view of who is signed in. Credential and
// Account always change together: either both are set or both are empty.
type Session struct {
	Credential string        `json:"credential"`
	Account    *auth.Account `json:"account"`
}

// Authenticated reports whether the session holds a signed-in account.
func (s Session) Authenticated() bool {
	return s.Credential != "" && s.Account != nil
}

// SessionStore holds the current session in memory and mirrors it to
// persistent storage. All transitions are atomic under a single lock so
// readers never observe a credential without its account or vice versa.
type SessionStore struct {
	mu      sync.RWMutex
	storage Storage
	current Session
}

// NewSessionStore creates a store backed by the given storage.
func NewSessionStore(storage Storage) *SessionStore {
	return &SessionStore{storage: storage}
}

// Hydrate loads a persisted session into memory. A missing, corrupt, or
// locally-expired persisted session leaves the store signed out rather
// than failing the app start. The expiry check here is a convenience so
// the UI doesn't render a dashboard on a credential the server is about
// to reject; the server check is the real one.
func (s *SessionStore) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.storage.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			s.current = Session{}
			return nil
		}
		return fmt.Errorf("hydrating session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil ||
		!session.Authenticated() || credentialExpired(session.Credential) {
		// Unusable state is treated as signed out and cleared so it
		// doesn't poison the next start.
		s.current = Session{}
		_ = s.storage.Remove(ctx, sessionKey) //nolint:errcheck // best effort
		return nil
	}

	s.current = session
	return nil
}

// credentialExpired inspects the credential's expiry claim without
// verifying the signature. The client has no signing secret, so this is
// advisory: a credential we cannot read is kept and left for the server
// to judge.
func credentialExpired(credential string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(credential, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now())
}

// SetSession stores a credential and account pair. Persistence happens
// first; memory only changes once the write succeeds, so a failed write
// leaves the previous session intact.
func (s *SessionStore) SetSession(ctx context.Context, credential string, account *auth.Account) error {
	if credential == "" || account == nil {
		return fmt.Errorf("session requires both credential and account")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := Session{Credential: credential, Account: account}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("serialising session: %w", err)
	}

	if err := s.storage.Set(ctx, sessionKey, string(raw)); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	s.current = session
	return nil
}

// ClearSession signs out: both credential and account are dropped from
// memory and storage together. Memory is cleared even if the storage
// remove fails, so a signed-out UI never keeps using a stale credential.
func (s *SessionStore) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{}

	if err := s.storage.Remove(ctx, sessionKey); err != nil {
		return fmt.Errorf("clearing persisted session: %w", err)
	}
	return nil
}

// Current returns a snapshot of the session. The snapshot is a copy;
// mutating it does not affect the store.
func (s *SessionStore) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.current
	if session.Account != nil {
		account := *session.Account
		session.Account = &account
	}
	return session
}

// Credential returns the stored bearer credential, or "" when signed out.
func (s *SessionStore) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Credential
}
