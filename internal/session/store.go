// Package session holds the signed-in identity for the running process.
package session

import (
	"sync"
	"time"
)

// Snapshot is a consistent copy of the session at one instant.
type Snapshot struct {
	Token       string
	UserID      string
	Email       string
	DisplayName string
	ExpiresAt   time.Time
}

// IsAuthenticated reports whether both token and user ID are set.
func (s Snapshot) IsAuthenticated() bool {
	return s.Token != "" && s.UserID != ""
}

// Store is safe for concurrent use. Fields that belong together are always updated
// together, so readers never see a token paired with a stale user ID.
type Store struct {
	mu       sync.RWMutex
	current  Snapshot
	observer func(string)
}

// New returns an empty, signed-out store.
func New() *Store {
	return &Store{}
}

// SetSession replaces the identity in one step. The display name is kept only when the
// user ID is unchanged, since it arrives separately from a profile lookup.
func (s *Store) SetSession(token, userID, email string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := ""
	if s.current.UserID == userID {
		name = s.current.DisplayName
	}
	s.current = Snapshot{
		Token:       token,
		UserID:      userID,
		Email:       email,
		DisplayName: name,
		ExpiresAt:   expiresAt,
	}
}

// SetDisplayName stores name and then calls the registered observer, if any, with it.
// The observer runs on the caller's goroutine after the lock is released, so it may
// read the store.
func (s *Store) SetDisplayName(name string) {
	s.mu.Lock()
	s.current.DisplayName = name
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		observer(name)
	}
}

// OnDisplayNameChange registers fn as the only observer, replacing any earlier one.
// Passing nil unregisters.
func (s *Store) OnDisplayNameChange(fn func(string)) {
	s.mu.Lock()
	s.observer = fn
	s.mu.Unlock()
}

// Clear signs out, dropping every field and the observer.
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = Snapshot{}
	s.observer = nil
	s.mu.Unlock()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

func (s *Store) Token() string { return s.Snapshot().Token }

func (s *Store) UserID() string { return s.Snapshot().UserID }

func (s *Store) Email() string { return s.Snapshot().Email }

func (s *Store) DisplayName() string { return s.Snapshot().DisplayName }

// ExpiresAt returns the token expiry; the zero time means unknown.
func (s *Store) ExpiresAt() time.Time { return s.Snapshot().ExpiresAt }

// Expired reports whether a known expiry is at or before now.
func (s *Store) Expired(now time.Time) bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}
