package session

import (
	"crypto/subtle"
	"net/http"

	"neurothrive/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Define keys for storing the token in the session and context.
const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenFormKey    = "_csrf"
	csrfTokenContextKey = "csrf_token"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

// CSRFProtection issues a per-session token and checks it on unsafe methods.
// Requests authenticated by a bearer header carry no ambient credentials and
// are not checked. When enabled reports false the check is skipped entirely.
func CSRFProtection(enabled func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)

		token, _ := s.Get(csrfTokenSessionKey).(string)
		if token == "" {
			newToken, err := utils.GenerateSecureToken(32)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to generate CSRF token"})
				return
			}
			token = newToken
			s.Set(csrfTokenSessionKey, token)
			if err := s.Save(); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
				return
			}
		}
		c.Set(csrfTokenContextKey, token)

		if !enabled() || IsBearer(c) || !unsafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		submitted := c.GetHeader(csrfTokenHeaderKey)
		if submitted == "" {
			submitted = c.PostForm(csrfTokenFormKey)
		}
		if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
			if c.GetHeader("HX-Request") == "true" {
				c.Header("HX-Redirect", "/")
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid CSRF token"})
			return
		}

		c.Next()
	}
}

func unsafeMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// CSRFToken returns the token issued for this request's session.
func CSRFToken(c *gin.Context) string {
	return c.GetString(csrfTokenContextKey)
}
