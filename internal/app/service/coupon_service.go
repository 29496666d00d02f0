package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/internal/app/repository"
	"github.com/ikkim/udonggeum-checkout/internal/engine/pricing"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"github.com/shopspring/decimal"
)

var ErrInvalidCoupon = errors.New("invalid coupon")

type CouponService interface {
	Issue(coupon *model.Coupon) error
	UsableCoupons(shopperID string) ([]pricing.Coupon, error)
	ListCoupons(shopperID string) ([]model.Coupon, error)
	ExpireOverdue() (int64, error)
}

type couponService struct {
	repo repository.CouponRepository
	now  func() time.Time
}

func NewCouponService(repo repository.CouponRepository) CouponService {
	return &couponService{repo: repo, now: time.Now}
}

func (s *couponService) Issue(coupon *model.Coupon) error {
	if coupon.Code == "" || coupon.ShopperID == "" || !coupon.DiscountAmount.IsPositive() || coupon.MinAmount.IsNegative() {
		logger.Warn("Rejected coupon issue", map[string]interface{}{
			"code":       coupon.Code,
			"shopper_id": coupon.ShopperID,
		})
		return ErrInvalidCoupon
	}
	if err := s.repo.Create(coupon); err != nil {
		return fmt.Errorf("issue coupon %s: %w", coupon.Code, err)
	}

	logger.Info("Coupon issued", map[string]interface{}{
		"code":            coupon.Code,
		"shopper_id":      coupon.ShopperID,
		"discount_amount": coupon.DiscountAmount.String(),
	})
	return nil
}

// UsableCoupons returns the shopper's coupons in the pricing engine's shape.
func (s *couponService) UsableCoupons(shopperID string) ([]pricing.Coupon, error) {
	rows, err := s.repo.FindUsableByShopper(shopperID, s.now())
	if err != nil {
		return nil, err
	}
	coupons := make([]pricing.Coupon, 0, len(rows))
	for _, row := range rows {
		coupons = append(coupons, couponFromModel(row))
	}
	return coupons, nil
}

func (s *couponService) ListCoupons(shopperID string) ([]model.Coupon, error) {
	return s.repo.FindByShopperID(shopperID)
}

func (s *couponService) ExpireOverdue() (int64, error) {
	count, err := s.repo.ExpireOverdue(s.now())
	if err != nil {
		logger.Error("Failed to expire overdue coupons", err)
		return 0, err
	}
	if count > 0 {
		logger.Info("Overdue coupons expired", map[string]interface{}{
			"count": count,
		})
	}
	return count, nil
}

func couponFromModel(row model.Coupon) pricing.Coupon {
	id := row.Code
	if id == "" {
		id = strconv.FormatUint(uint64(row.ID), 10)
	}
	return pricing.Coupon{
		ID:             id,
		MinAmount:      row.MinAmount,
		DiscountAmount: row.DiscountAmount,
		Used:           row.Used,
		Expired:        row.Expired,
	}
}

// ShippingRuleFor builds the free-shipping-over-threshold rule, or a flat rule when threshold is
// not positive.
func ShippingRuleFor(threshold, fee decimal.Decimal) pricing.ShippingRule {
	if !threshold.IsPositive() {
		return pricing.FlatShipping(fee)
	}
	return pricing.FreeShippingOver(threshold, fee)
}
