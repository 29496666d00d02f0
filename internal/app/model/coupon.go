package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a fixed-amount discount issued to one shopper.
type Coupon struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	Code           string          `gorm:"size:64;not null;uniqueIndex" json:"code"`
	ShopperID      string          `gorm:"size:64;not null;index" json:"shopper_id"`
	Name           string          `gorm:"size:255" json:"name"`
	MinAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"min_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"discount_amount"`
	Used           bool            `gorm:"not null;default:false;index" json:"used"`
	Expired        bool            `gorm:"not null;default:false;index" json:"expired"`
	ExpiresAt      *time.Time      `gorm:"index" json:"expires_at,omitempty"`
	UsedAt         *time.Time      `json:"used_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// IsOverdue reports whether the coupon passed its expiry at now.
func (c *Coupon) IsOverdue(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}
