package service

import (
	"testing"
	"time"

	"github.com/ikkim/udonggeum-checkout/internal/app/model"
	"github.com/ikkim/udonggeum-checkout/internal/app/repository"
	"github.com/ikkim/udonggeum-checkout/internal/db"
	"github.com/ikkim/udonggeum-checkout/pkg/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func boolPtr(b bool) *bool { return &b }

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// phoneDocument: white/256 is not sold, white/128 is sold out and red is never offered.
func phoneDocument() *CatalogDocument {
	return &CatalogDocument{
		ProductID: "phone-1",
		Title:     "우동폰",
		StoreID:   "store-a",
		Dimensions: []DimensionDocument{
			{
				ID:   "color",
				Name: "색상",
				Options: []OptionDocument{
					{ID: "black", Label: "블랙", IsDefault: true},
					{ID: "white", Label: "화이트"},
					{ID: "red", Label: "레드", BaseAvailable: boolPtr(false)},
				},
			},
			{
				ID:   "storage",
				Name: "용량",
				Options: []OptionDocument{
					{ID: "128", Label: "128GB", IsDefault: true},
					{ID: "256", Label: "256GB"},
				},
			},
		},
		Rules: []RuleDocument{
			{Options: map[string]string{"color": "black", "storage": "128"}, Price: decimal.NewFromInt(3899)},
			{Options: map[string]string{"color": "black", "storage": "256"}, Price: decimal.NewFromInt(4199), OriginalPrice: decimalPtr(4599)},
			{Options: map[string]string{"color": "white", "storage": "128"}, Price: decimal.NewFromInt(3899), StockTag: "sold_out"},
			{Options: map[string]string{"color": "white", "storage": "256"}, Available: boolPtr(false), Price: decimal.NewFromInt(4199)},
		},
	}
}

// caseDocument is a single-option product priced from its base price.
func caseDocument() *CatalogDocument {
	return &CatalogDocument{
		ProductID: "case-1",
		Title:     "투명 케이스",
		StoreID:   "store-b",
		Dimensions: []DimensionDocument{
			{ID: "color", Name: "색상", Options: []OptionDocument{{ID: "clear", Label: "투명", IsDefault: true}}},
		},
		BasePrice: decimalPtr(1000),
	}
}

type testServices struct {
	db         *gorm.DB
	catalogs   CatalogService
	carts      *CartRegistry
	cartRepo   repository.CartRepository
	coupons    CouponService
	shopping   ShoppingService
	settlement SettlementService
}

func setupServices(t *testing.T, docs ...*CatalogDocument) *testServices {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	catalogs := NewCatalogService(
		NewDBCatalogSource(repository.NewCatalogRepository(testDB)),
		redis.NewCatalogCache(nil, time.Minute),
		0,
	)
	for _, doc := range docs {
		_, err := catalogs.Import(t.Context(), doc, "json")
		require.NoError(t, err)
	}

	cartRepo := repository.NewCartRepository(testDB)
	carts := NewCartRegistry(cartRepo, nil, 99)
	coupons := NewCouponService(repository.NewCouponRepository(testDB))
	shipping := ShippingRuleFor(decimal.NewFromInt(50000), decimal.NewFromInt(3000))

	return &testServices{
		db:         testDB,
		catalogs:   catalogs,
		carts:      carts,
		cartRepo:   cartRepo,
		coupons:    coupons,
		shopping:   NewShoppingService(catalogs, carts, coupons, shipping),
		settlement: NewSettlementService(carts, coupons, shipping),
	}
}

func issueCoupon(t *testing.T, coupons CouponService, code string, minAmount, discount int64) {
	require.NoError(t, coupons.Issue(&model.Coupon{
		Code:           code,
		ShopperID:      "shopper-1",
		MinAmount:      decimal.NewFromInt(minAmount),
		DiscountAmount: decimal.NewFromInt(discount),
	}))
}
