// Package pricing holds the pure price arithmetic used by the catalog, cart and checkout.
//
// All amounts are whole currency units. Results are rounded half away from
// zero to integer units, so identical inputs always give identical outputs.
package pricing

import (
	"github.com/shopspring/decimal"
)

// DiscountType is the kind of reduction a discount code grants
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

func init() {
	// amounts are rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Rule is the part of a discount code the engine needs
type Rule struct {
	Type              DiscountType
	Value             decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
}

// Round rounds to whole currency units
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// EffectiveUnitPrice applies a product's percentage discount to its base price
func EffectiveUnitPrice(price decimal.Decimal, discountPercent int) decimal.Decimal {
	if discountPercent <= 0 {
		return price
	}
	if discountPercent >= 100 {
		return decimal.Zero
	}
	return Round(price.Mul(decimal.NewFromInt(int64(100 - discountPercent))).Div(hundred))
}

// ProductDiscountAmount is the reduction a product discount gives per unit
func ProductDiscountAmount(price decimal.Decimal, discountPercent int) decimal.Decimal {
	return price.Sub(EffectiveUnitPrice(price, discountPercent))
}

// LineTotal is unit price times quantity
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// MeetsMinimum reports whether subtotal reaches the rule's minimum order amount
func (r Rule) MeetsMinimum(subtotal decimal.Decimal) bool {
	return !subtotal.LessThan(r.MinOrderAmount)
}

// DiscountAmount computes the reduction a rule grants on subtotal.
// It yields zero when subtotal is below the minimum; the caller must reject the order.
// The result never exceeds the subtotal.
func DiscountAmount(r Rule, subtotal decimal.Decimal) decimal.Decimal {
	if !r.MeetsMinimum(subtotal) {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch r.Type {
	case DiscountTypePercentage:
		amount = Round(subtotal.Mul(r.Value).Div(hundred))
	case DiscountTypeFixed:
		amount = r.Value
	default:
		return decimal.Zero
	}

	if r.MaxDiscountAmount != nil && amount.GreaterThan(*r.MaxDiscountAmount) {
		amount = *r.MaxDiscountAmount
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// OrderTotal is subtotal - discount + delivery
func OrderTotal(subtotal, discount, delivery decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(delivery)
}
