package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-checkout/internal/errors"
)

const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey admits requests carrying the configured X-Admin-Key. With an empty key
// every request is refused.
func RequireAdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(AdminKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			GetLoggerFromContext(c).Warn("Admin request refused", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AdminForbidden, "관리자 권한이 필요합니다")
			c.Abort()
			return
		}
		c.Next()
	}
}
