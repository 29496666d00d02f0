package service

import (
	"testing"
	"time"

	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/internal/engine/pricing"
	"github.com/ikkim/udonggeum-checkout/internal/engine/variant"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopper = "shopper-1"

func TestShoppingService_VariantStateStartsOnDefaults(t *testing.T) {
	svc := setupServices(t, phoneDocument())

	view, err := svc.shopping.VariantState(t.Context(), shopper, "phone-1")
	require.NoError(t, err)

	assert.Equal(t, variant.StatusResolved, view.Status)
	assert.Equal(t, "store-a", view.StoreID)
	assert.True(t, view.CanCommit)
	assert.Equal(t, 1, view.Quantity)
	assert.Equal(t, 99, view.MaxQuantity)
	require.NotNil(t, view.Variant)
	assert.True(t, decimal.NewFromInt(3899).Equal(view.Amount))

	require.Len(t, view.Dimensions, 2)
	color := view.Dimensions[0]
	assert.Equal(t, "black", color.Selected)
	require.Len(t, color.Options, 3)
	assert.True(t, color.Options[0].Selected)
	assert.True(t, color.Options[1].Selectable)
	assert.False(t, color.Options[2].Selectable, "red is never offered")
}

func TestShoppingService_SelectOption(t *testing.T) {
	svc := setupServices(t, phoneDocument())
	ctx := t.Context()

	t.Run("Price follows the resolved combination", func(t *testing.T) {
		view, err := svc.shopping.SelectOption(ctx, shopper, "phone-1", "storage", "256")
		require.NoError(t, err)
		require.NotNil(t, view.Variant)
		assert.True(t, decimal.NewFromInt(4199).Equal(view.Variant.Price))
		assert.True(t, decimal.NewFromInt(4599).Equal(view.Variant.OriginalPrice))
	})

	t.Run("Unsellable partner falls back to its default", func(t *testing.T) {
		view, err := svc.shopping.SelectOption(ctx, shopper, "phone-1", "color", "white")
		require.NoError(t, err)
		assert.Equal(t, variant.StatusResolved, view.Status)
		assert.Equal(t, "128", view.Dimensions[1].Selected)
		assert.False(t, view.Dimensions[1].Options[1].Selectable)
	})

	t.Run("Unavailable option is rejected", func(t *testing.T) {
		_, err := svc.shopping.SelectOption(ctx, shopper, "phone-1", "color", "red")
		assert.ErrorIs(t, err, variant.ErrInvalidOption)
	})

	t.Run("Unknown dimension is rejected", func(t *testing.T) {
		_, err := svc.shopping.SelectOption(ctx, shopper, "phone-1", "size", "xl")
		assert.ErrorIs(t, err, variant.ErrUnknownDimension)
	})

	t.Run("Unknown product", func(t *testing.T) {
		_, err := svc.shopping.SelectOption(ctx, shopper, "nope", "color", "black")
		assert.ErrorIs(t, err, ErrCatalogNotFound)
	})
}

func TestShoppingService_SelectionSurvivesCatalogReload(t *testing.T) {
	svc := setupServices(t, phoneDocument())
	ctx := t.Context()

	catalogs := svc.catalogs.(*catalogService)
	clock := time.Now()
	catalogs.ttl = time.Minute
	catalogs.now = func() time.Time { return clock }

	before, err := catalogs.Get(ctx, "phone-1")
	require.NoError(t, err)
	_, err = svc.shopping.SelectOption(ctx, shopper, "phone-1", "storage", "256")
	require.NoError(t, err)
	_, err = svc.shopping.SetVariantQuantity(ctx, shopper, "phone-1", 2)
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	view, err := svc.shopping.VariantState(ctx, shopper, "phone-1")
	require.NoError(t, err)

	after, err := catalogs.Get(ctx, "phone-1")
	require.NoError(t, err)
	assert.NotSame(t, before.Catalog, after.Catalog)

	assert.Equal(t, "black", view.Dimensions[0].Selected)
	assert.Equal(t, "256", view.Dimensions[1].Selected)
	assert.Equal(t, 2, view.Quantity)
	require.NotNil(t, view.Variant)
	assert.True(t, decimal.NewFromInt(4199).Equal(view.Variant.Price))
}

func TestShoppingService_AddToCartMergesSameVariant(t *testing.T) {
	svc := setupServices(t, phoneDocument())
	ctx := t.Context()
	issueCoupon(t, svc.coupons, "c1", 3000, 50)

	firstID, view, err := svc.shopping.AddToCart(ctx, shopper, "phone-1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.LineCount)
	assert.True(t, decimal.NewFromInt(3849).Equal(view.Pricing.Total.Sub(view.Pricing.ShippingFee)))

	secondID, view, err := svc.shopping.AddToCart(ctx, shopper, "phone-1")
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)
	assert.Equal(t, 1, view.LineCount)
	assert.Equal(t, 2, view.Stores[0].Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(7798).Equal(view.SelectedTotal))

	assert.True(t, decimal.NewFromInt(50).Equal(view.Pricing.Discount))
	assert.Equal(t, "c1", view.Pricing.CouponID)
	assert.True(t, decimal.NewFromInt(3000).Equal(view.Pricing.ShippingFee))
	assert.True(t, decimal.NewFromInt(10748).Equal(view.Pricing.Total))
}

func TestShoppingService_AddToCartUsesChosenQuantity(t *testing.T) {
	svc := setupServices(t, phoneDocument())
	ctx := t.Context()

	view, err := svc.shopping.SetVariantQuantity(ctx, shopper, "phone-1", 3)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(11697).Equal(view.Amount))

	_, cartView, err := svc.shopping.AddToCart(ctx, shopper, "phone-1")
	require.NoError(t, err)
	assert.Equal(t, 3, cartView.Stores[0].Lines[0].Quantity)

	view, err = svc.shopping.SetVariantQuantity(ctx, shopper, "phone-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Quantity)
}

func TestShoppingService_ProductMaxQuantityBoundsCartLine(t *testing.T) {
	doc := phoneDocument()
	doc.MaxQuantity = 5
	svc := setupServices(t, doc)
	ctx := t.Context()

	view, err := svc.shopping.SetVariantQuantity(ctx, shopper, "phone-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Quantity)

	lineID, _, err := svc.shopping.AddToCart(ctx, shopper, "phone-1")
	require.NoError(t, err)
	_, cartView, err := svc.shopping.AddToCart(ctx, shopper, "phone-1")
	require.NoError(t, err)
	require.Equal(t, 1, cartView.LineCount)
	assert.Equal(t, 5, cartView.Stores[0].Lines[0].Quantity)

	cartView, err = svc.shopping.SetLineQuantity(shopper, lineID, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, cartView.Stores[0].Lines[0].Quantity)

	restarted := NewShoppingService(svc.catalogs, NewCartRegistry(svc.cartRepo, nil, 99), svc.coupons, nil)
	cartView, err = restarted.SetLineQuantity(shopper, lineID, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, cartView.Stores[0].Lines[0].Quantity)
}

func TestShoppingService_AddToCartRejections(t *testing.T) {
	svc := setupServices(t, phoneDocument())
	ctx := t.Context()

	t.Run("Incomplete selection", func(t *testing.T) {
		view, err := svc.shopping.DeselectOption(ctx, "shopper-2", "phone-1", "storage")
		require.NoError(t, err)
		assert.Equal(t, variant.StatusIncomplete, view.Status)
		assert.Equal(t, []string{"storage"}, view.Missing)
		assert.False(t, view.CanCommit)

		_, _, err = svc.shopping.AddToCart(ctx, "shopper-2", "phone-1")
		assert.ErrorIs(t, err, cart.ErrIncompleteSpec)
	})

	t.Run("Sold out variant", func(t *testing.T) {
		_, err := svc.shopping.SelectOption(ctx, "shopper-3", "phone-1", "color", "white")
		require.NoError(t, err)

		_, _, err = svc.shopping.AddToCart(ctx, "shopper-3", "phone-1")
		assert.ErrorIs(t, err, ErrOutOfStock)

		view, err := svc.shopping.GetCart("shopper-3")
		require.NoError(t, err)
		assert.Zero(t, view.LineCount)
	})
}

func TestShoppingService_CartCommands(t *testing.T) {
	svc := setupServices(t, phoneDocument(), caseDocument())
	ctx := t.Context()

	phoneLine, _, err := svc.shopping.AddToCart(ctx, shopper, "phone-1")
	require.NoError(t, err)
	caseLine, view, err := svc.shopping.AddToCart(ctx, shopper, "case-1")
	require.NoError(t, err)

	require.Len(t, view.Stores, 2)
	assert.Equal(t, "store-a", view.Stores[0].StoreID)
	assert.Equal(t, "store-b", view.Stores[1].StoreID)
	assert.True(t, view.AllSelected)
	assert.True(t, decimal.NewFromInt(4899).Equal(view.AllTotal))

	t.Run("Toggle line", func(t *testing.T) {
		view, err := svc.shopping.ToggleLine(shopper, caseLine)
		require.NoError(t, err)
		assert.False(t, view.AllSelected)
		assert.Equal(t, 1, view.SelectedCount)
		assert.True(t, decimal.NewFromInt(3899).Equal(view.SelectedTotal))
		assert.True(t, decimal.NewFromInt(4899).Equal(view.AllTotal))
	})

	t.Run("Toggle store", func(t *testing.T) {
		view, err := svc.shopping.ToggleStore(shopper, "store-b")
		require.NoError(t, err)
		assert.True(t, view.AllSelected)

		view, err = svc.shopping.ToggleStore(shopper, "store-b")
		require.NoError(t, err)
		assert.False(t, view.Stores[1].AllSelected)
		assert.True(t, view.Stores[0].AllSelected)
	})

	t.Run("Select all", func(t *testing.T) {
		view, err := svc.shopping.SelectAll(shopper, false)
		require.NoError(t, err)
		assert.Zero(t, view.SelectedCount)
		assert.True(t, view.Pricing.Total.IsZero())

		view, err = svc.shopping.SelectAll(shopper, true)
		require.NoError(t, err)
		assert.Equal(t, 2, view.SelectedCount)
	})

	t.Run("Quantity is clamped", func(t *testing.T) {
		view, err := svc.shopping.SetLineQuantity(shopper, phoneLine, 1000)
		require.NoError(t, err)
		assert.Equal(t, 99, view.Stores[0].Lines[0].Quantity)

		_, err = svc.shopping.SetLineQuantity(shopper, "missing", 2)
		assert.ErrorIs(t, err, cart.ErrLineNotFound)
	})

	t.Run("Remove line", func(t *testing.T) {
		view, err := svc.shopping.RemoveLine(shopper, caseLine)
		require.NoError(t, err)
		assert.Equal(t, 1, view.LineCount)

		again, err := svc.shopping.RemoveLine(shopper, caseLine)
		require.NoError(t, err)
		assert.Equal(t, view.Version, again.Version)
	})
}

func TestShoppingService_CartSurvivesRestart(t *testing.T) {
	svc := setupServices(t, phoneDocument())
	ctx := t.Context()

	lineID, _, err := svc.shopping.AddToCart(ctx, shopper, "phone-1")
	require.NoError(t, err)
	_, err = svc.shopping.SetLineQuantity(shopper, lineID, 4)
	require.NoError(t, err)
	_, err = svc.shopping.ToggleLine(shopper, lineID)
	require.NoError(t, err)

	restarted := NewShoppingService(svc.catalogs, NewCartRegistry(svc.cartRepo, nil, 99), svc.coupons, nil)
	view, err := restarted.GetCart(shopper)
	require.NoError(t, err)

	require.Equal(t, 1, view.LineCount)
	line := view.Stores[0].Lines[0]
	assert.Equal(t, lineID, line.LineID)
	assert.Equal(t, 4, line.Quantity)
	assert.False(t, line.Selected)
	assert.True(t, decimal.NewFromInt(15596).Equal(view.AllTotal))
}

func TestNewCartView_EmptyCart(t *testing.T) {
	view := NewCartView(cart.New().Snapshot(), pricing.ComputeBreakdown(nil, nil, nil))
	assert.NotNil(t, view.Stores)
	assert.Empty(t, view.Stores)
	assert.False(t, view.AllSelected)
	assert.Zero(t, view.Version)
}
