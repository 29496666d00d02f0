package service

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
	"github.com/ikkim/udonggeum-checkout/pkg/redis"
)

// ProductCatalog is a built catalog plus the store that sells the product.
type ProductCatalog struct {
	Catalog *catalog.Catalog
	StoreID string
}

type CatalogService interface {
	Get(ctx context.Context, productID string) (*ProductCatalog, error)
	Import(ctx context.Context, doc *CatalogDocument, format string) (*ProductCatalog, error)
	Invalidate(ctx context.Context, productID string)
}

type cachedCatalog struct {
	product  *ProductCatalog
	loadedAt time.Time
}

type catalogService struct {
	source CatalogSource
	cache  *redis.CatalogCache
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	built map[string]cachedCatalog
}

// NewCatalogService builds catalogs from source. Raw documents are cached in redis when cache
// is enabled; built catalogs are kept in memory for ttl (forever when ttl is zero).
func NewCatalogService(source CatalogSource, cache *redis.CatalogCache, ttl time.Duration) CatalogService {
	return &catalogService{
		source: source,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		built:  make(map[string]cachedCatalog),
	}
}

func (s *catalogService) Get(ctx context.Context, productID string) (*ProductCatalog, error) {
	if product, ok := s.lookup(productID); ok {
		return product, nil
	}

	body, format, err := s.fetch(ctx, productID)
	if err != nil {
		return nil, err
	}

	doc, err := DecodeCatalogDocument(body, format)
	if err != nil {
		logger.Error("Failed to decode catalog document", err, map[string]interface{}{
			"product_id": productID,
			"format":     format,
		})
		return nil, err
	}
	product, err := s.build(doc)
	if err != nil {
		logger.Warn("Catalog rejected at load", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		return nil, err
	}

	s.remember(productID, product)
	logger.Info("Catalog loaded", map[string]interface{}{
		"product_id": productID,
		"store_id":   product.StoreID,
		"dimensions": len(product.Catalog.Dimensions()),
	})
	return product, nil
}

// Import validates doc, stores it in the source and refreshes both caches.
func (s *catalogService) Import(ctx context.Context, doc *CatalogDocument, format string) (*ProductCatalog, error) {
	normalized, err := NormalizeCatalogFormat(format)
	if err != nil {
		return nil, err
	}
	product, err := s.build(doc)
	if err != nil {
		logger.Warn("Catalog import rejected", map[string]interface{}{
			"product_id": doc.ProductID,
			"error":      err.Error(),
		})
		return nil, err
	}

	body, err := EncodeCatalogDocument(doc, normalized)
	if err != nil {
		return nil, err
	}
	err = s.source.Put(ctx, CatalogRecord{
		ProductID: doc.ProductID,
		StoreID:   doc.StoreID,
		Format:    normalized,
		Body:      body,
	})
	if err != nil {
		logger.Error("Failed to store catalog document", err, map[string]interface{}{
			"product_id": doc.ProductID,
		})
		return nil, err
	}

	s.Invalidate(ctx, doc.ProductID)
	s.remember(doc.ProductID, product)

	logger.Info("Catalog imported", map[string]interface{}{
		"product_id": doc.ProductID,
		"format":     normalized,
	})
	return product, nil
}

func (s *catalogService) Invalidate(ctx context.Context, productID string) {
	s.mu.Lock()
	delete(s.built, productID)
	s.mu.Unlock()

	if err := s.cache.Invalidate(ctx, productID); err != nil {
		logger.Warn("Catalog cache invalidation failed", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
	}
}

func (s *catalogService) build(doc *CatalogDocument) (*ProductCatalog, error) {
	cat, err := doc.Build()
	if err != nil {
		return nil, err
	}
	return &ProductCatalog{Catalog: cat, StoreID: doc.StoreID}, nil
}

func (s *catalogService) lookup(productID string) (*ProductCatalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.built[productID]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(entry.loadedAt) > s.ttl {
		return nil, false
	}
	return entry.product, true
}

func (s *catalogService) remember(productID string, product *ProductCatalog) {
	s.mu.Lock()
	s.built[productID] = cachedCatalog{product: product, loadedAt: s.now()}
	s.mu.Unlock()
}

// fetch reads the raw document through the redis cache. Cache failures fall through to the source.
func (s *catalogService) fetch(ctx context.Context, productID string) ([]byte, string, error) {
	cached, ok, err := s.cache.Get(ctx, productID)
	if err != nil {
		logger.Warn("Catalog cache read failed", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
	}
	if ok {
		return cached.Body, cached.Format, nil
	}

	body, format, err := s.source.Fetch(ctx, productID)
	if err != nil {
		return nil, "", err
	}

	if err := s.cache.Set(ctx, productID, redis.CachedDocument{Format: format, Body: body}); err != nil {
		logger.Warn("Catalog cache write failed", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
	}
	return body, format, nil
}
