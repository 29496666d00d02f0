package settlement

import (
	"testing"

	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/internal/engine/catalog"
	"github.com/ikkim/udonggeum-checkout/internal/engine/pricing"
	"github.com/ikkim/udonggeum-checkout/internal/engine/variant"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartTest(t *testing.T) (*cart.Aggregator, string) {
	tuple := catalog.Tuple{"color": "black"}
	state := variant.Resolved{Variant: variant.ResolvedVariant{
		ProductID: "phone-1",
		Tuple:     tuple,
		Signature: tuple.Signature(),
		Price:     decimal.NewFromInt(3899),
	}}

	agg := cart.New()
	lineID, err := agg.AddLine(state, 1, "store-a")
	require.NoError(t, err)
	return agg, lineID
}

func TestBegin_EmptySelection(t *testing.T) {
	agg, lineID := setupCartTest(t)
	require.NoError(t, agg.ToggleSelection(lineID))

	session, err := Begin(agg.Snapshot(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Nil(t, session)

	_, err = Begin(cart.New().Snapshot(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestBegin_CopiesSelectedLinesOnly(t *testing.T) {
	agg, _ := setupCartTest(t)
	tuple := catalog.Tuple{"color": "white"}
	other, err := agg.AddLine(variant.Resolved{Variant: variant.ResolvedVariant{
		ProductID: "phone-1", Tuple: tuple, Signature: tuple.Signature(), Price: decimal.NewFromInt(100),
	}}, 1, "store-a")
	require.NoError(t, err)
	require.NoError(t, agg.ToggleSelection(other))

	session, err := Begin(agg.Snapshot(), nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID())
	require.Len(t, session.Lines(), 1)
	assert.True(t, session.Pricing().Subtotal.Equal(decimal.NewFromInt(3899)))
}

func TestSession_AdjustQuantityIsIsolatedFromCart(t *testing.T) {
	agg, lineID := setupCartTest(t)
	require.True(t, agg.Snapshot().SelectedTotal().Equal(decimal.NewFromInt(3899)))

	session, err := Begin(agg.Snapshot(), nil, nil)
	require.NoError(t, err)

	breakdown, err := session.AdjustQuantity(lineID, 2)
	require.NoError(t, err)

	assert.True(t, breakdown.Subtotal.Equal(decimal.NewFromInt(7798)))
	assert.Equal(t, map[string]int{lineID: 2}, session.Overrides())
	assert.Equal(t, 2, session.Lines()[0].Quantity)

	assert.True(t, agg.Snapshot().SelectedTotal().Equal(decimal.NewFromInt(3899)))
	line, _ := agg.Snapshot().Line(lineID)
	assert.Equal(t, 1, line.Quantity)
}

func TestSession_LaterCartChangesDoNotLeakIn(t *testing.T) {
	agg, lineID := setupCartTest(t)
	session, err := Begin(agg.Snapshot(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, agg.SetQuantity(lineID, 5))
	agg.RemoveLine(lineID)

	require.Len(t, session.Lines(), 1)
	assert.Equal(t, 1, session.Lines()[0].Quantity)
}

func TestSession_AdjustQuantityClampsAndReprices(t *testing.T) {
	agg, lineID := setupCartTest(t)
	coupons := []pricing.Coupon{{ID: "c1", MinAmount: decimal.NewFromInt(5000), DiscountAmount: decimal.NewFromInt(500)}}

	session, err := Begin(agg.Snapshot(), coupons, pricing.FreeShippingOver(decimal.NewFromInt(5000), decimal.NewFromInt(300)))
	require.NoError(t, err)
	assert.True(t, session.Pricing().Total.Equal(decimal.NewFromInt(4199)))
	assert.Empty(t, session.Pricing().CouponID)

	breakdown, err := session.AdjustQuantity(lineID, 2)
	require.NoError(t, err)
	assert.Equal(t, "c1", breakdown.CouponID)
	assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(7298)))

	_, err = session.AdjustQuantity(lineID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, session.Overrides()[lineID])

	_, err = session.AdjustQuantity(lineID, 1000)
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultMaxQuantity, session.Overrides()[lineID])
}

func TestSession_AdjustQuantityHonorsLineLimit(t *testing.T) {
	tuple := catalog.Tuple{"color": "black"}
	agg := cart.New()
	lineID, err := agg.AddLine(variant.Resolved{Variant: variant.ResolvedVariant{
		ProductID:   "phone-1",
		Tuple:       tuple,
		Signature:   tuple.Signature(),
		Price:       decimal.NewFromInt(3899),
		MaxQuantity: 5,
	}}, 1, "store-a")
	require.NoError(t, err)

	session, err := Begin(agg.Snapshot(), nil, nil)
	require.NoError(t, err)

	_, err = session.AdjustQuantity(lineID, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, session.Overrides()[lineID])
}

func TestSession_AdjustUnknownLine(t *testing.T) {
	agg, _ := setupCartTest(t)
	session, err := Begin(agg.Snapshot(), nil, nil)
	require.NoError(t, err)

	before := session.Pricing()
	_, err = session.AdjustQuantity("missing", 3)
	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.Empty(t, session.Overrides())
	assert.Equal(t, before, session.Pricing())
}

func TestSession_Cancel(t *testing.T) {
	agg, lineID := setupCartTest(t)
	session, err := Begin(agg.Snapshot(), nil, nil)
	require.NoError(t, err)

	session.Cancel()
	session.Cancel()
	assert.True(t, session.Closed())

	_, err = session.AdjustQuantity(lineID, 2)
	assert.ErrorIs(t, err, ErrSessionClosed)

	assert.Equal(t, 1, agg.Snapshot().Len())
	assert.True(t, agg.Snapshot().SelectedTotal().Equal(decimal.NewFromInt(3899)))
}
