// Package session holds the client-side authentication state and the
// startup routine that restores it from durable storage.
package session

import (
	"sync"

	"github.com/createsphere/marketplace/internal/core/domain"
	"github.com/createsphere/marketplace/internal/core/ports"
)

// Durable storage keys.
const (
	KeyAuthToken  = "auth_token"
	KeyAdminToken = "admin_token"
	KeyUserRole   = "user_role"
)

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	AuthToken  string
	AdminToken string
	User       *domain.User
}

func (s Snapshot) IsAuthenticated() bool      { return s.AuthToken != "" }
func (s Snapshot) IsAdminAuthenticated() bool { return s.AdminToken != "" }

// Role is derived from the cached user; empty when no profile is loaded.
func (s Snapshot) Role() string {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s Snapshot) IsCreator() bool  { return s.User.IsCreator() }
func (s Snapshot) IsVerified() bool { return s.User != nil && s.User.IsVerified }
func (s Snapshot) IsBlocked() bool  { return s.User != nil && s.User.IsBlocked }

func (s Snapshot) CreatorProfile() *domain.CreatorProfile {
	if s.User == nil {
		return nil
	}
	return s.User.CreatorProfile
}

// Session is the single source of truth for client authorization state.
// When a store is attached every mutation writes the keys it owns; the
// cached role is only ever written alongside the user it derives from.
type Session struct {
	mu     sync.RWMutex
	state  Snapshot
	store  ports.KeyValueStore
	nextID int
	subs   map[int]func(Snapshot)
}

// New returns an empty session. store may be nil when the host has no
// durable storage; mutations are then kept in memory only.
func New(store ports.KeyValueStore) *Session {
	return &Session{store: store, subs: make(map[int]func(Snapshot))}
}

// Snapshot returns a deep copy of the current state. Changing it does not
// affect the session; use the setters for that.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to receive the new snapshot after every mutation.
// The returned func removes the subscription.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) SetAuthToken(token string) error {
	return s.mutate(func(st *Snapshot) error {
		st.AuthToken = token
		return s.write(KeyAuthToken, token)
	})
}

func (s *Session) SetAdminToken(token string) error {
	return s.mutate(func(st *Snapshot) error {
		st.AdminToken = token
		return s.write(KeyAdminToken, token)
	})
}

// SetUser stores the profile snapshot and persists the role derived from it.
func (s *Session) SetUser(user *domain.User) error {
	return s.mutate(func(st *Snapshot) error {
		if user == nil {
			st.User = nil
			return s.write(KeyUserRole, "")
		}
		st.User = cloneUser(user)
		return s.write(KeyUserRole, user.Role)
	})
}

// Clear drops every credential in memory and in storage. All keys are
// attempted even if one removal fails; the first error is returned.
func (s *Session) Clear() error {
	return s.mutate(func(st *Snapshot) error {
		*st = Snapshot{}
		var first error
		for _, key := range []string{KeyAuthToken, KeyAdminToken, KeyUserRole} {
			if err := s.write(key, ""); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

// mutate applies fn under the lock and notifies subscribers outside it.
// The in-memory change stands even when persisting it fails.
func (s *Session) mutate(fn func(*Snapshot) error) error {
	s.mu.Lock()
	err := fn(&s.state)
	snap := s.state.clone()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	// Each subscriber gets its own copy so one cannot alter what the next sees.
	for _, sub := range subs {
		sub(snap.clone())
	}
	return err
}

func (s Snapshot) clone() Snapshot {
	s.User = cloneUser(s.User)
	return s
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.CreatorProfile != nil {
		cp := *u.CreatorProfile
		c.CreatorProfile = &cp
	}
	return &c
}

// write persists value under key; an empty value removes the key.
func (s *Session) write(key, value string) error {
	if s.store == nil {
		return nil
	}
	if value == "" {
		return s.store.Remove(key)
	}
	return s.store.Set(key, value)
}
