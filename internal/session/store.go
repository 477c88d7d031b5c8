// Package session binds the auth gate to gin requests: the gate is restored
// from the cookie session (or a bearer token) and stored on the gin context.
package session

import (
	"neurothrive/internal/auth"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// cookieStore adapts a gin-contrib session to auth.Store. Every write is
// saved immediately so a failed save surfaces to Gate.Login.
type cookieStore struct {
	s sessions.Session
}

// NewCookieStore returns the auth.Store backed by the request's session cookie.
func NewCookieStore(c *gin.Context) auth.Store {
	return &cookieStore{s: sessions.Default(c)}
}

func (cs *cookieStore) Get(key string) (string, bool) {
	v, ok := cs.s.Get(key).(string)
	return v, ok
}

func (cs *cookieStore) Set(key, value string) error {
	cs.s.Set(key, value)
	return cs.s.Save()
}

func (cs *cookieStore) Delete(key string) error {
	if cs.s.Get(key) == nil {
		return nil
	}
	cs.s.Delete(key)
	return cs.s.Save()
}
