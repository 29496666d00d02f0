package repository

import (
	"testing"

	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCatalogTest(t *testing.T) CatalogRepository {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return NewCatalogRepository(testDB)
}

func TestCatalogRepository_UpsertAndFind(t *testing.T) {
	repo := setupCatalogTest(t)

	require.NoError(t, repo.Upsert(&model.CatalogDocument{
		ProductID: "phone-1",
		StoreID:   "store-a",
		Format:    model.CatalogFormatJSON,
		Body:      `{"product_id":"phone-1"}`,
	}))
	require.NoError(t, repo.Upsert(&model.CatalogDocument{
		ProductID: "phone-1",
		StoreID:   "store-b",
		Format:    model.CatalogFormatYAML,
		Body:      "product_id: phone-1\n",
	}))

	doc, err := repo.FindByProductID("phone-1")
	require.NoError(t, err)
	assert.Equal(t, "store-b", doc.StoreID)
	assert.Equal(t, model.CatalogFormatYAML, doc.Format)
	assert.Equal(t, "product_id: phone-1\n", doc.Body)

	ids, err := repo.ListProductIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"phone-1"}, ids)
}

func TestCatalogRepository_FindMissing(t *testing.T) {
	repo := setupCatalogTest(t)

	_, err := repo.FindByProductID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
