package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"neurothrive/internal/auth"
	"neurothrive/internal/metrics"
	"neurothrive/internal/models"
	"neurothrive/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	gateContextKey   = "session_gate"
	bearerContextKey = "session_bearer"
)

// UserFinder looks up the account behind a session.
type UserFinder interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Loader restores the caller's session into the gin context. The cookie
// session wins; otherwise a valid bearer token gives a session that is not
// persisted. Sessions whose account was deleted or deactivated are cleared
// so no "zombie" session survives.
func Loader(users UserFinder, jwtSecret func() string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		gate := auth.Restore(NewCookieStore(c))

		if !gate.IsAuthenticated() {
			if token := extractBearerToken(c); token != "" {
				if bearer := bearerGate(token, jwtSecret()); bearer != nil {
					gate = bearer
					c.Set(bearerContextKey, true)
				} else {
					log.Debug("Rejected bearer token", zap.String("path", c.Request.URL.Path))
				}
			}
		}

		if cur := gate.Current(); cur != nil && cur.UserID != 0 && users != nil {
			user, err := users.GetUserByID(c.Request.Context(), cur.UserID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				log.Info("Clearing session for missing user", zap.Uint("userID", cur.UserID))
				gate.Logout()
			case err != nil:
				log.Error("Failed to load session user", zap.Uint("userID", cur.UserID), zap.Error(err))
				gate.Logout()
			case !user.IsActive:
				log.Info("Clearing session for deactivated user", zap.Uint("userID", cur.UserID))
				gate.Logout()
			}
		}

		c.Set(gateContextKey, gate)
		c.Next()
	}
}

func bearerGate(token, secret string) *auth.Gate {
	claims, err := auth.ParseToken(secret, token)
	if err != nil {
		return nil
	}
	user, err := auth.SessionFromClaims(token, claims)
	if err != nil || !user.Role.Valid() {
		return nil
	}
	gate := auth.Restore(auth.NewMemoryStore())
	if err := gate.Login(*user); err != nil {
		return nil
	}
	return gate
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// Gate returns the request's gate. Outside Loader it is a signed-out gate.
func Gate(c *gin.Context) *auth.Gate {
	if v, ok := c.Get(gateContextKey); ok {
		if g, ok := v.(*auth.Gate); ok {
			return g
		}
	}
	return auth.Restore(auth.NewMemoryStore())
}

// CookieGate returns a gate bound to the session cookie, for sign-in and
// sign-out. It also replaces the request's gate.
func CookieGate(c *gin.Context) *auth.Gate {
	gate := auth.Restore(NewCookieStore(c))
	c.Set(gateContextKey, gate)
	c.Set(bearerContextKey, false)
	return gate
}

// IsBearer reports whether the request was authenticated by an
// Authorization header rather than the session cookie.
func IsBearer(c *gin.Context) bool {
	return c.GetBool(bearerContextKey)
}

// Require aborts requests whose session is not allowed by roles. An empty
// roles list admits any signed-in user.
func Require(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := auth.Guard(Gate(c).Current(), roles...)
		metrics.GuardDecisions.WithLabelValues(string(decision.Reason)).Inc()
		if decision.Allowed {
			c.Next()
			return
		}

		status, msg := http.StatusForbidden, auth.MsgForbidden
		if decision.Reason == auth.ReasonUnauthenticated {
			status, msg = http.StatusUnauthorized, auth.MsgNotAuthenticated
		}
		if c.GetHeader("HX-Request") == "true" {
			c.Header("HX-Redirect", decision.Redirect)
		}
		c.AbortWithStatusJSON(status, gin.H{"error": msg, "redirect": decision.Redirect})
	}
}
