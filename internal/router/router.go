package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-checkout/config"
	"github.com/ikkim/udonggeum-checkout/internal/app/controller"
	apperrors "github.com/ikkim/udonggeum-checkout/internal/errors"
	"github.com/ikkim/udonggeum-checkout/internal/middleware"
)

type Router struct {
	variantController    *controller.VariantController
	cartController       *controller.CartController
	cartSocketController *controller.CartSocketController
	settlementController *controller.SettlementController
	catalogController    *controller.CatalogController
	couponController     *controller.CouponController
	config               *config.Config
}

func NewRouter(
	variantController *controller.VariantController,
	cartController *controller.CartController,
	cartSocketController *controller.CartSocketController,
	settlementController *controller.SettlementController,
	catalogController *controller.CatalogController,
	couponController *controller.CouponController,
	cfg *config.Config,
) *Router {
	return &Router{
		variantController:    variantController,
		cartController:       cartController,
		cartSocketController: cartSocketController,
		settlementController: settlementController,
		catalogController:    catalogController,
		couponController:     couponController,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		middleware.GetLoggerFromContext(c).Error("Panic recovered", fmt.Errorf("%v", recovered))
		apperrors.InternalError(c, "")
		c.Abort()
	}))
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "UDONGGEUM Checkout API is running",
		})
	})

	router.GET("/ws/cart", middleware.RequireShopper(), r.cartSocketController.Connect)

	router.NoRoute(func(c *gin.Context) {
		apperrors.NotFound(c, apperrors.ResourceNotFound, "요청한 경로를 찾을 수 없습니다")
	})

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products/:id/variants", middleware.RequireShopper())
		{
			products.GET("", r.variantController.GetVariant)
			products.POST("/select", r.variantController.SelectOption)
			products.DELETE("/:dimension", r.variantController.DeselectOption)
			products.PUT("/quantity", r.variantController.SetQuantity)
			products.POST("/cart", r.variantController.AddToCart)
		}

		cart := v1.Group("/cart", middleware.RequireShopper())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("/lines/:id/toggle", r.cartController.ToggleLine)
			cart.PUT("/lines/:id", r.cartController.UpdateQuantity)
			cart.DELETE("/lines/:id", r.cartController.RemoveLine)
			cart.POST("/stores/:storeId/toggle", r.cartController.ToggleStore)
			cart.POST("/select-all", r.cartController.SelectAll)
		}

		settlements := v1.Group("/settlements", middleware.RequireShopper())
		{
			settlements.POST("", r.settlementController.Begin)
			settlements.GET("/:id", r.settlementController.Get)
			settlements.PUT("/:id/lines/:lineId", r.settlementController.AdjustQuantity)
			settlements.DELETE("/:id", r.settlementController.Cancel)
			settlements.GET("/:id/export", r.settlementController.Export)
		}

		v1.GET("/coupons", middleware.RequireShopper(), r.couponController.ListCoupons)

		admin := v1.Group("/admin", middleware.RequireAdminKey(r.config.Server.AdminKey))
		{
			admin.PUT("/catalogs/:id", r.catalogController.PutCatalog)
			admin.POST("/catalogs/workbook", r.catalogController.ImportWorkbook)
			admin.DELETE("/catalogs/:id/cache", r.catalogController.InvalidateCatalog)
			admin.POST("/coupons", r.couponController.IssueCoupon)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, X-Request-ID, X-Shopper-ID, X-Admin-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
