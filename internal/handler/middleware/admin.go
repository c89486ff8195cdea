package middleware

import (
	"github.com/gin-gonic/gin"

	"papir/backend/pkg/crypto"
	"papir/backend/pkg/response"
)

// AdminKey guards the admin routes with a static API key presented in the
// X-Admin-Key header and checked against a bcrypt hash from config.
func AdminKey(keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" {
			response.Unauthorized(c, "missing admin key")
			c.Abort()
			return
		}
		if !crypto.CheckKey(key, keyHash) {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
