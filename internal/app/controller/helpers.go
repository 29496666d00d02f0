package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/udonggeum-checkout/internal/errors"
	"github.com/ikkim/udonggeum-checkout/internal/middleware"
)

// requireShopper reads the shopper id set by middleware.RequireShopper and answers 401 when it
// is absent.
func requireShopper(c *gin.Context) (string, bool) {
	shopperID, ok := middleware.GetShopperID(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Warn("Request without shopper id", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.ShopperRequiredError(c)
		return "", false
	}
	return shopperID, true
}

// respondError maps err onto its error code and status. Server errors are logged at Error,
// domain rejections at Warn.
func respondError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)
	info := apperrors.ParseError(err, context)

	fields := map[string]interface{}{
		"context": context,
		"code":    info.Code,
	}
	if info.Status >= http.StatusInternalServerError {
		log.Error("Request failed", err, fields)
	} else {
		fields["error"] = err.Error()
		log.Warn("Request rejected", fields)
	}

	c.JSON(info.Status, apperrors.ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
