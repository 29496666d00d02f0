package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one persisted row of a shopper's cart. Position keeps insertion order across
// restarts.
type CartLine struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	ShopperID        string          `gorm:"size:64;not null;index;uniqueIndex:idx_cart_lines_shopper_variant,priority:1" json:"shopper_id"`
	LineID           string          `gorm:"size:64;not null;uniqueIndex" json:"line_id"`
	ProductID        string          `gorm:"size:128;not null;uniqueIndex:idx_cart_lines_shopper_variant,priority:2" json:"product_id"`
	VariantSignature string          `gorm:"size:32;not null;uniqueIndex:idx_cart_lines_shopper_variant,priority:3" json:"variant_signature"`
	StoreID          string          `gorm:"size:64;not null;index" json:"store_id"`
	Title            string          `gorm:"size:255" json:"title"`
	VariantLabel     string          `gorm:"size:255" json:"variant_label"`
	Image            string          `gorm:"size:512" json:"image"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	Quantity         int             `gorm:"not null;default:1" json:"quantity"`
	Selected         bool            `gorm:"not null;default:true" json:"selected"`
	MaxQuantity      int             `gorm:"not null;default:0" json:"max_quantity"`
	Position         int             `gorm:"not null;default:0" json:"position"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (CartLine) TableName() string {
	return "cart_lines"
}
