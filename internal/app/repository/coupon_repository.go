package repository

import (
	"time"

	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(coupon *model.Coupon) error
	FindByShopperID(shopperID string) ([]model.Coupon, error)
	FindUsableByShopper(shopperID string, now time.Time) ([]model.Coupon, error)
	MarkUsed(code string, usedAt time.Time) error
	ExpireOverdue(now time.Time) (int64, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	logger.Debug("Creating coupon in database", map[string]interface{}{
		"code":       coupon.Code,
		"shopper_id": coupon.ShopperID,
	})

	if err := r.db.Create(coupon).Error; err != nil {
		logger.Error("Failed to create coupon in database", err, map[string]interface{}{
			"code":       coupon.Code,
			"shopper_id": coupon.ShopperID,
		})
		return err
	}
	return nil
}

func (r *couponRepository) FindByShopperID(shopperID string) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := r.db.Where("shopper_id = ?", shopperID).Order("id ASC").Find(&coupons).Error
	if err != nil {
		logger.Error("Failed to find coupons by shopper ID in database", err, map[string]interface{}{
			"shopper_id": shopperID,
		})
		return nil, err
	}
	return coupons, nil
}

// FindUsableByShopper returns unused, unexpired coupons in issue order.
func (r *couponRepository) FindUsableByShopper(shopperID string, now time.Time) ([]model.Coupon, error) {
	logger.Debug("Finding usable coupons in database", map[string]interface{}{
		"shopper_id": shopperID,
	})

	var coupons []model.Coupon
	err := r.db.Where("shopper_id = ? AND used = ? AND expired = ?", shopperID, false, false).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("id ASC").
		Find(&coupons).Error
	if err != nil {
		logger.Error("Failed to find usable coupons in database", err, map[string]interface{}{
			"shopper_id": shopperID,
		})
		return nil, err
	}

	logger.Debug("Usable coupons found in database", map[string]interface{}{
		"shopper_id": shopperID,
		"count":      len(coupons),
	})
	return coupons, nil
}

func (r *couponRepository) MarkUsed(code string, usedAt time.Time) error {
	result := r.db.Model(&model.Coupon{}).
		Where("code = ? AND used = ?", code, false).
		Updates(map[string]interface{}{"used": true, "used_at": usedAt})
	if result.Error != nil {
		logger.Error("Failed to mark coupon used in database", result.Error, map[string]interface{}{
			"code": code,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExpireOverdue flags every coupon whose expiry is at or before now and returns how many changed.
func (r *couponRepository) ExpireOverdue(now time.Time) (int64, error) {
	result := r.db.Model(&model.Coupon{}).
		Where("expired = ? AND expires_at IS NOT NULL AND expires_at <= ?", false, now).
		Update("expired", true)
	if result.Error != nil {
		logger.Error("Failed to expire overdue coupons in database", result.Error, nil)
		return 0, result.Error
	}

	logger.Debug("Overdue coupons expired in database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
