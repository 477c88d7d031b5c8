// Package auth holds the session gate: the persisted identity of the signed-in
// user, the role based landing page and the route guard.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Storage keys for the persisted session.
const (
	TokenKey = "nt_token"
	UserKey  = "nt_user"
)

// SessionUser is the identity stored for a signed-in user.
type SessionUser struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
	UserID   uint   `json:"userId,omitempty"`
}

// Store is a durable string key-value store for the session record.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Gate tracks the active session for one store. It is not safe for
// concurrent use; build one per request.
type Gate struct {
	store   Store
	current *SessionUser
}

// Restore builds a gate from whatever session is in store. A missing,
// unreadable or corrupted record yields an unauthenticated gate.
func Restore(store Store) *Gate {
	return &Gate{store: store, current: readSession(store)}
}

func readSession(store Store) *SessionUser {
	raw, ok := store.Get(UserKey)
	if !ok || raw == "" {
		return nil
	}
	var u SessionUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return &u
}

// ErrInvalidRole is returned by Login for a user without a known role.
var ErrInvalidRole = errors.New("session user has no valid role")

// Login persists user and makes it the active session, replacing any
// previous one. A user with an invalid role is rejected and the existing
// session is left as it was. If the store rejects the write the gate ends up
// signed out.
func (g *Gate) Login(user SessionUser) error {
	if !user.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, user.Role)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := g.store.Set(TokenKey, user.Token); err != nil {
		g.Logout()
		return fmt.Errorf("persist session token: %w", err)
	}
	if err := g.store.Set(UserKey, string(data)); err != nil {
		g.Logout()
		return fmt.Errorf("persist session user: %w", err)
	}
	g.current = &user
	return nil
}

// Logout removes the persisted session. Calling it again is a no-op.
func (g *Gate) Logout() {
	_ = g.store.Delete(TokenKey)
	_ = g.store.Delete(UserKey)
	g.current = nil
}

// IsAuthenticated reports whether a session is active.
func (g *Gate) IsAuthenticated() bool { return g.current != nil }

// Current returns the active session or nil.
func (g *Gate) Current() *SessionUser { return g.current }

// Role returns the active role, or RoleNone when signed out.
func (g *Gate) Role() Role {
	if g.current == nil {
		return RoleNone
	}
	return g.current.Role
}

// DefaultRoute is DefaultRouteFor the active session.
func (g *Gate) DefaultRoute() string { return DefaultRouteFor(g.current) }

// DefaultRouteFor picks the landing page for a session.
func DefaultRouteFor(s *SessionUser) string {
	if s == nil {
		return LoginRoute
	}
	switch s.Role {
	case RoleParent:
		return "/parent/dashboard"
	case RoleClinician, RoleAdmin:
		return "/clinician/dashboard"
	case RoleTherapist, RoleNone:
		return LoginRoute
	}
	return LoginRoute
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len is the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
