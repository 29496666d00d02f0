package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-checkout/internal/errors"
)

// Context keys for shopper information
const (
	ShopperIDKey    = "shopper_id"
	ShopperIDHeader = "X-Shopper-ID"
)

var shopperIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// RequireShopper identifies the shopper from the X-Shopper-ID header. Websocket clients that
// cannot set headers pass it as the shopper_id query parameter instead.
func RequireShopper() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		shopperID := c.GetHeader(ShopperIDHeader)
		if shopperID == "" {
			shopperID = c.Query("shopper_id")
		}
		if shopperID == "" {
			log.Warn("Missing shopper id", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.ShopperRequiredError(c)
			c.Abort()
			return
		}
		if !shopperIDPattern.MatchString(shopperID) {
			log.Warn("Invalid shopper id", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.BadRequest(c, errors.ShopperInvalid, "쇼퍼 ID 형식이 올바르지 않습니다")
			c.Abort()
			return
		}

		c.Set(ShopperIDKey, shopperID)
		c.Next()
	}
}

// GetShopperID retrieves the shopper id set by RequireShopper
func GetShopperID(c *gin.Context) (string, bool) {
	shopperID, exists := c.Get(ShopperIDKey)
	if !exists {
		return "", false
	}
	id, ok := shopperID.(string)
	return id, ok && id != ""
}
