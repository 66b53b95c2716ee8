package domain

import "github.com/shopspring/decimal"

// Monetary amounts are carried as decimals at full precision through a pricing
// computation and rounded to the smallest currency unit only when a figure is
// about to be displayed or persisted. Rounding mid-computation would make the
// per-rate VAT buckets drift from the totals they must reconcile with.

// MoneyPlaces is the number of decimal places of the smallest currency unit.
const MoneyPlaces = 2

// RoundMoney rounds an amount half-up to the smallest currency unit.
// shopspring's Round rounds half away from zero, which is half-up for the
// non-negative amounts this engine deals in.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// IsNegative reports whether an amount is below zero. Negative money anywhere
// in a cart snapshot indicates corrupted upstream data, never a discount.
func IsNegative(d decimal.Decimal) bool {
	return d.Sign() < 0
}
