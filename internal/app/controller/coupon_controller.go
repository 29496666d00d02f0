package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	apperrors "github.com/ikkim/udonggeum-checkout/internal/errors"
	"github.com/shopspring/decimal"
)

type CouponController struct {
	couponService service.CouponService
}

func NewCouponController(couponService service.CouponService) *CouponController {
	return &CouponController{
		couponService: couponService,
	}
}

type IssueCouponRequest struct {
	Code           string          `json:"code" binding:"required"`
	ShopperID      string          `json:"shopper_id" binding:"required"`
	Name           string          `json:"name"`
	MinAmount      decimal.Decimal `json:"min_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ExpiresAt      *time.Time      `json:"expires_at"`
}

// ListCoupons returns every coupon issued to the shopper
// GET /api/v1/coupons
func (ctrl *CouponController) ListCoupons(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	coupons, err := ctrl.couponService.ListCoupons(shopperID)
	if err != nil {
		respondError(c, err, "list coupons")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"coupons": coupons,
		"count":   len(coupons),
	})
}

// IssueCoupon issues a fixed-amount coupon to a shopper
// POST /api/v1/admin/coupons
func (ctrl *CouponController) IssueCoupon(c *gin.Context) {
	var req IssueCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithValidationError(c, apperrors.BindingFields(err))
		return
	}

	coupon := &model.Coupon{
		Code:           req.Code,
		ShopperID:      req.ShopperID,
		Name:           req.Name,
		MinAmount:      req.MinAmount,
		DiscountAmount: req.DiscountAmount,
		ExpiresAt:      req.ExpiresAt,
	}
	if err := ctrl.couponService.Issue(coupon); err != nil {
		respondError(c, err, "create coupon")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"coupon": coupon})
}
