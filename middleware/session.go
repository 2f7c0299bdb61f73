package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookieName identifies an anonymous viewer across requests.
	SessionCookieName = "binify_session"
	// ContextSessionKey stores the resolved session key in Gin context.
	ContextSessionKey = "session_key"

	sessionCookieMaxAge = 60 * 60 * 24 * 365
)

// SessionKey assigns every client a stable random session key via cookie.
// View deduplication for anonymous visitors hangs off this key.
func SessionKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := c.Cookie(SessionCookieName)
		if err != nil || key == "" {
			key = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, key, sessionCookieMaxAge, "/", "", false, true)
		}
		c.Set(ContextSessionKey, key)
		c.Next()
	}
}
