package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/scholardist/internal/response"
)

// AdminChecker reports whether a canonical identity is the administrator.
type AdminChecker interface {
	IsAdmin(caller string) bool
}

// RequireAdministrator rejects non-administrators before the request body is
// read, so they see NOT_ADMINISTRATOR rather than a validation error. The
// engine repeats the check on every privileged operation.
func RequireAdministrator(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if !checker.IsAdmin(identity) {
			response.AbortFail(c, http.StatusForbidden, response.ErrNotAdministrator)
			return
		}
		c.Next()
	}
}
