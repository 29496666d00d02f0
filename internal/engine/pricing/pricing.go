package pricing

import (
	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/shopspring/decimal"
)

// Coupon is a fixed-amount discount gated by a minimum order amount.
type Coupon struct {
	ID             string          `json:"id"`
	MinAmount      decimal.Decimal `json:"min_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Used           bool            `json:"used"`
	Expired        bool            `json:"expired"`
}

// Applicable reports whether the coupon can be used against subtotal.
func (c Coupon) Applicable(subtotal decimal.Decimal) bool {
	return !c.Used && !c.Expired && subtotal.GreaterThanOrEqual(c.MinAmount)
}

// ShippingRule maps the pre-discount subtotal to a shipping fee.
type ShippingRule func(subtotal decimal.Decimal) decimal.Decimal

// FlatShipping charges fee on every non-empty order.
func FlatShipping(fee decimal.Decimal) ShippingRule {
	return func(subtotal decimal.Decimal) decimal.Decimal {
		if !subtotal.IsPositive() {
			return decimal.Zero
		}
		return fee
	}
}

// FreeShippingOver charges fee below threshold and nothing at or above it. An empty order ships free.
func FreeShippingOver(threshold, fee decimal.Decimal) ShippingRule {
	return func(subtotal decimal.Decimal) decimal.Decimal {
		if !subtotal.IsPositive() || subtotal.GreaterThanOrEqual(threshold) {
			return decimal.Zero
		}
		return fee
	}
}

type Breakdown struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
	CouponID    string          `json:"coupon_id,omitempty"`
}

// Subtotal sums UnitPrice * Quantity over lines.
func Subtotal(lines []cart.Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount())
	}
	return total
}

// BestCoupon picks the applicable coupon with the largest discount. Ties keep the earlier coupon.
func BestCoupon(subtotal decimal.Decimal, coupons []Coupon) (Coupon, bool) {
	var best Coupon
	found := false
	for _, c := range coupons {
		if !c.Applicable(subtotal) {
			continue
		}
		if !found || c.DiscountAmount.GreaterThan(best.DiscountAmount) {
			best = c
			found = true
		}
	}
	return best, found
}

// ComputeBreakdown prices lines as given; callers pass only the lines being bought. It reads
// nothing but its arguments, so the live cart preview and settlement share one result for one input.
func ComputeBreakdown(lines []cart.Line, coupons []Coupon, shipping ShippingRule) Breakdown {
	subtotal := Subtotal(lines)

	b := Breakdown{
		Subtotal:    subtotal,
		Discount:    decimal.Zero,
		ShippingFee: decimal.Zero,
	}
	if coupon, ok := BestCoupon(subtotal, coupons); ok {
		b.Discount = coupon.DiscountAmount
		b.CouponID = coupon.ID
	}
	if shipping != nil {
		b.ShippingFee = shipping(subtotal)
	}

	discounted := subtotal.Sub(b.Discount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}
	b.Total = discounted.Add(b.ShippingFee)
	return b
}
