package middlewares

import (
	"crypto/subtle"
	"github.com/gin-gonic/gin"
	"net/http"
	"strings"
)

// Auth accepts either "Authorization: Bearer <token>" or HTTP basic auth
// with the given user and the token as password.
func (m *Middlewares) Auth(user, token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authorized(c.Request, user, token) {
			c.Next()
			return
		}

		c.Header("WWW-Authenticate", `Basic realm="chatrelay"`)
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

func authorized(r *http.Request, user, token string) bool {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return equal(strings.TrimPrefix(auth, "Bearer "), token)
	}

	u, p, ok := r.BasicAuth()
	return ok && equal(u, user) && equal(p, token)
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
