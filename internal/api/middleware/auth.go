package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerToken requires "Authorization: Bearer <token>" on every request.
// An empty token disables the check.
func BearerToken(token string) gin.HandlerFunc {
	return bearer(token, false)
}

// BearerTokenOrQuery is BearerToken for websocket upgrades: browsers cannot
// set headers there, so ?token= is accepted when no Authorization header is sent.
func BearerTokenOrQuery(token string) gin.HandlerFunc {
	return bearer(token, true)
}

func bearer(token string, allowQuery bool) gin.HandlerFunc {
	want := []byte(token)

	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		var got string
		if allowQuery {
			got = c.Query("token")
		}
		if header := c.GetHeader("Authorization"); header != "" {
			scheme, credentials, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			got = strings.TrimSpace(credentials)
		}

		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
