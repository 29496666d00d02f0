package repository

import (
	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogRepository interface {
	FindByProductID(productID string) (*model.CatalogDocument, error)
	Upsert(doc *model.CatalogDocument) error
	ListProductIDs() ([]string, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindByProductID(productID string) (*model.CatalogDocument, error) {
	logger.Debug("Finding catalog document by product ID in database", map[string]interface{}{
		"product_id": productID,
	})

	var doc model.CatalogDocument
	if err := r.db.Where("product_id = ?", productID).First(&doc).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find catalog document in database", err, map[string]interface{}{
				"product_id": productID,
			})
		}
		return nil, err
	}
	return &doc, nil
}

// Upsert inserts doc or replaces the stored document of the same product.
func (r *catalogRepository) Upsert(doc *model.CatalogDocument) error {
	logger.Debug("Upserting catalog document in database", map[string]interface{}{
		"product_id": doc.ProductID,
		"format":     doc.Format,
	})

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"store_id", "format", "body", "checksum", "updated_at"}),
	}).Create(doc).Error
	if err != nil {
		logger.Error("Failed to upsert catalog document in database", err, map[string]interface{}{
			"product_id": doc.ProductID,
		})
		return err
	}
	return nil
}

func (r *catalogRepository) ListProductIDs() ([]string, error) {
	var ids []string
	if err := r.db.Model(&model.CatalogDocument{}).Order("product_id ASC").Pluck("product_id", &ids).Error; err != nil {
		logger.Error("Failed to list catalog product IDs", err, nil)
		return nil, err
	}
	return ids, nil
}
