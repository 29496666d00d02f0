package repository

import (
	"testing"

	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	return testDB, NewCartRepository(testDB)
}

func cartLine(lineID, productID, signature string, qty int) model.CartLine {
	return model.CartLine{
		LineID:           lineID,
		ProductID:        productID,
		VariantSignature: signature,
		StoreID:          "store-a",
		UnitPrice:        decimal.NewFromInt(3899),
		Quantity:         qty,
		Selected:         true,
	}
}

func TestCartRepository_ReplaceAndFind(t *testing.T) {
	_, repo := setupCartTest(t)

	err := repo.ReplaceForShopper("shopper-1", []model.CartLine{
		cartLine("l2", "p2", "sig-b", 1),
		cartLine("l1", "p1", "sig-a", 2),
	})
	require.NoError(t, err)

	lines, err := repo.FindByShopperID("shopper-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "l2", lines[0].LineID)
	assert.Equal(t, "l1", lines[1].LineID)
	assert.Equal(t, "shopper-1", lines[0].ShopperID)
	assert.Equal(t, 2, lines[1].Quantity)
	assert.True(t, lines[1].UnitPrice.Equal(decimal.NewFromInt(3899)))
}

func TestCartRepository_ReplaceOverwritesPreviousCart(t *testing.T) {
	_, repo := setupCartTest(t)

	require.NoError(t, repo.ReplaceForShopper("shopper-1", []model.CartLine{
		cartLine("l1", "p1", "sig-a", 1),
		cartLine("l2", "p2", "sig-b", 1),
	}))
	require.NoError(t, repo.ReplaceForShopper("shopper-1", []model.CartLine{
		cartLine("l1", "p1", "sig-a", 5),
	}))

	lines, err := repo.FindByShopperID("shopper-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestCartRepository_ShoppersAreIsolated(t *testing.T) {
	_, repo := setupCartTest(t)

	require.NoError(t, repo.ReplaceForShopper("shopper-1", []model.CartLine{cartLine("l1", "p1", "sig-a", 1)}))
	require.NoError(t, repo.ReplaceForShopper("shopper-2", []model.CartLine{cartLine("l2", "p1", "sig-a", 3)}))

	require.NoError(t, repo.ReplaceForShopper("shopper-1", nil))

	lines, err := repo.FindByShopperID("shopper-1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = repo.FindByShopperID("shopper-2")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestCartRepository_ReplaceRollsBackOnDuplicate(t *testing.T) {
	_, repo := setupCartTest(t)

	require.NoError(t, repo.ReplaceForShopper("shopper-1", []model.CartLine{cartLine("l1", "p1", "sig-a", 1)}))

	err := repo.ReplaceForShopper("shopper-1", []model.CartLine{
		cartLine("l2", "p1", "sig-a", 1),
		cartLine("l3", "p1", "sig-a", 1),
	})
	assert.Error(t, err)

	lines, err := repo.FindByShopperID("shopper-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "l1", lines[0].LineID)
}

func TestCartRepository_DeleteByShopperID(t *testing.T) {
	_, repo := setupCartTest(t)
	require.NoError(t, repo.ReplaceForShopper("shopper-1", []model.CartLine{cartLine("l1", "p1", "sig-a", 1)}))

	require.NoError(t, repo.DeleteByShopperID("shopper-1"))

	lines, err := repo.FindByShopperID("shopper-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
