package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
	"github.com/ikkim/udonggeum-checkout/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const phoneYAML = `
product_id: phone-1
title: 우동폰
store_id: store-a
max_quantity: 5
dimensions:
  - id: color
    name: 색상
    options:
      - {id: black, label: 블랙, is_default: true}
      - {id: white, label: 화이트}
  - id: storage
    name: 용량
    options:
      - {id: "128", label: 128GB, is_default: true}
      - {id: "256", label: 256GB}
rules:
  - options: {color: black, storage: "128"}
    price: "3899"
  - options: {color: white, storage: "256"}
    price: "4199"
    available: false
  - options: {color: white, storage: "128"}
    price: "3899"
`

// countingSource counts Fetch calls on top of a directory source.
type countingSource struct {
	CatalogSource
	fetches int
}

func (s *countingSource) Fetch(ctx context.Context, productID string) ([]byte, string, error) {
	s.fetches++
	return s.CatalogSource.Fetch(ctx, productID)
}

func setupCatalogServiceTest(t *testing.T) (*catalogService, *countingSource, string) {
	dir := t.TempDir()
	source := &countingSource{CatalogSource: NewDirCatalogSource(dir)}
	svc := NewCatalogService(source, redis.NewCatalogCache(nil, time.Minute), 10*time.Minute).(*catalogService)
	return svc, source, dir
}

func TestCatalogService_LoadsFromDirectory(t *testing.T) {
	svc, source, dir := setupCatalogServiceTest(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "phone-1.yaml"), []byte(phoneYAML), 0o644))

	product, err := svc.Get(t.Context(), "phone-1")
	require.NoError(t, err)
	assert.Equal(t, "store-a", product.StoreID)
	assert.Equal(t, "우동폰", product.Catalog.Title())
	assert.Equal(t, 5, product.Catalog.MaxQuantity())

	again, err := svc.Get(t.Context(), "phone-1")
	require.NoError(t, err)
	assert.Same(t, product, again)
	assert.Equal(t, 1, source.fetches)
}

func TestCatalogService_ReloadsAfterTTL(t *testing.T) {
	svc, source, dir := setupCatalogServiceTest(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "phone-1.yaml"), []byte(phoneYAML), 0o644))

	now := time.Now()
	svc.now = func() time.Time { return now }
	_, err := svc.Get(t.Context(), "phone-1")
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	_, err = svc.Get(t.Context(), "phone-1")
	require.NoError(t, err)
	assert.Equal(t, 2, source.fetches)
}

func TestCatalogService_NotFound(t *testing.T) {
	svc, _, _ := setupCatalogServiceTest(t)

	_, err := svc.Get(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrCatalogNotFound)

	_, err = svc.Get(t.Context(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}

func TestCatalogService_RejectsUnsellableCatalog(t *testing.T) {
	svc, _, dir := setupCatalogServiceTest(t)
	body := `{"product_id":"broken","store_id":"s","dimensions":[{"id":"color","name":"색상","options":[]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(body), 0o644))

	_, err := svc.Get(t.Context(), "broken")
	assert.ErrorIs(t, err, catalog.ErrConfiguration)
}

func TestCatalogService_Import(t *testing.T) {
	svc, source, dir := setupCatalogServiceTest(t)

	t.Run("Valid document is stored and cached", func(t *testing.T) {
		product, err := svc.Import(t.Context(), phoneDocument(), "yml")
		require.NoError(t, err)
		assert.Equal(t, "phone-1", product.Catalog.ProductID())
		assert.FileExists(t, filepath.Join(dir, "phone-1.yaml"))

		got, err := svc.Get(t.Context(), "phone-1")
		require.NoError(t, err)
		assert.Same(t, product, got)
		assert.Zero(t, source.fetches)
	})

	t.Run("Invalidate forces a reload", func(t *testing.T) {
		svc.Invalidate(t.Context(), "phone-1")
		_, err := svc.Get(t.Context(), "phone-1")
		require.NoError(t, err)
		assert.Equal(t, 1, source.fetches)
	})

	t.Run("Unsellable document is not stored", func(t *testing.T) {
		doc := phoneDocument()
		doc.ProductID = "phone-2"
		for i := range doc.Rules {
			doc.Rules[i].Available = boolPtr(false)
		}
		_, err := svc.Import(t.Context(), doc, "json")
		assert.ErrorIs(t, err, catalog.ErrConfiguration)
		assert.NoFileExists(t, filepath.Join(dir, "phone-2.json"))
	})

	t.Run("Unknown format", func(t *testing.T) {
		_, err := svc.Import(t.Context(), phoneDocument(), "toml")
		assert.ErrorIs(t, err, ErrUnsupportedCatalogFormat)
	})
}

func TestDBCatalogSource_RoundTrip(t *testing.T) {
	svc := setupServices(t, phoneDocument())

	var stored struct {
		Format   string
		Checksum string
	}
	require.NoError(t, svc.db.Table("catalog_documents").Select("format", "checksum").
		Where("product_id = ?", "phone-1").Scan(&stored).Error)
	assert.Equal(t, "json", stored.Format)
	assert.Len(t, stored.Checksum, 64)

	product, err := svc.catalogs.Get(t.Context(), "phone-1")
	require.NoError(t, err)
	assert.Equal(t, "store-a", product.StoreID)
}
