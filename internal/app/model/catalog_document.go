package model

import "time"

type CatalogFormat string

const (
	CatalogFormatJSON CatalogFormat = "json"
	CatalogFormatYAML CatalogFormat = "yaml"
)

// CatalogDocument stores the raw variant catalog of one product as uploaded.
type CatalogDocument struct {
	ID        uint          `gorm:"primarykey" json:"id"`
	ProductID string        `gorm:"size:128;not null;uniqueIndex" json:"product_id"`
	StoreID   string        `gorm:"size:64;not null;index" json:"store_id"`
	Format    CatalogFormat `gorm:"size:8;not null;default:'json'" json:"format"`
	Body      string        `gorm:"type:text;not null" json:"-"`
	Checksum  string        `gorm:"size:64" json:"checksum"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (CatalogDocument) TableName() string {
	return "catalog_documents"
}
