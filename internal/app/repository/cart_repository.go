package repository

import (
	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindByShopperID(shopperID string) ([]model.CartLine, error)
	ReplaceForShopper(shopperID string, lines []model.CartLine) error
	DeleteByShopperID(shopperID string) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByShopperID(shopperID string) ([]model.CartLine, error) {
	logger.Debug("Finding cart lines by shopper ID in database", map[string]interface{}{
		"shopper_id": shopperID,
	})

	var lines []model.CartLine
	err := r.db.Where("shopper_id = ?", shopperID).
		Order("position ASC").
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		logger.Error("Failed to find cart lines by shopper ID in database", err, map[string]interface{}{
			"shopper_id": shopperID,
		})
		return nil, err
	}

	logger.Debug("Cart lines found by shopper ID in database", map[string]interface{}{
		"shopper_id": shopperID,
		"count":      len(lines),
	})
	return lines, nil
}

// ReplaceForShopper swaps the stored cart for lines in one transaction. Positions are rewritten
// from the slice order.
func (r *cartRepository) ReplaceForShopper(shopperID string, lines []model.CartLine) error {
	logger.Debug("Replacing cart lines in database", map[string]interface{}{
		"shopper_id": shopperID,
		"count":      len(lines),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shopper_id = ?", shopperID).Delete(&model.CartLine{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		rows := make([]model.CartLine, len(lines))
		for i, line := range lines {
			line.ID = 0
			line.ShopperID = shopperID
			line.Position = i
			rows[i] = line
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		logger.Error("Failed to replace cart lines in database", err, map[string]interface{}{
			"shopper_id": shopperID,
		})
		return err
	}

	logger.Debug("Cart lines replaced in database", map[string]interface{}{
		"shopper_id": shopperID,
	})
	return nil
}

func (r *cartRepository) DeleteByShopperID(shopperID string) error {
	logger.Debug("Deleting cart lines by shopper ID from database", map[string]interface{}{
		"shopper_id": shopperID,
	})

	if err := r.db.Where("shopper_id = ?", shopperID).Delete(&model.CartLine{}).Error; err != nil {
		logger.Error("Failed to delete cart lines by shopper ID from database", err, map[string]interface{}{
			"shopper_id": shopperID,
		})
		return err
	}
	return nil
}
