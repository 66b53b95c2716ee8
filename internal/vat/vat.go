// Package vat classifies customers for VAT purposes and computes VAT on net
// amounts. All computation is pure; rates come from a table fixed at
// construction time.
package vat

import (
	"github.com/dukerupert/vanir/internal/domain"
	"github.com/shopspring/decimal"
)

// RateTable binds each named rate band to its percentage.
type RateTable map[domain.VatRate]decimal.Decimal

// DefaultRates returns the Irish VAT rate table.
func DefaultRates() RateTable {
	return RateTable{
		domain.VatRateStandard:      decimal.NewFromInt(23),
		domain.VatRateReduced:       decimal.RequireFromString("13.5"),
		domain.VatRateSecondReduced: decimal.NewFromInt(9),
		domain.VatRateZero:          decimal.Zero,
	}
}

// Calculation is the result of a single VAT computation. Amounts are
// unrounded; callers round at the output boundary.
type Calculation struct {
	Net           decimal.Decimal
	Vat           decimal.Decimal
	Gross         decimal.Decimal
	ReverseCharge bool
}

// Calculator computes VAT for a net amount, rate band, and customer status.
type Calculator struct {
	rates RateTable
}

// NewCalculator creates a Calculator over the given rate table.
func NewCalculator(rates RateTable) *Calculator {
	return &Calculator{rates: rates}
}

var hundred = decimal.NewFromInt(100)

// Calculate computes net, VAT, and gross for a single net amount.
//
//   - EU customers (business or consumer) get 0% VAT with reverse-charge
//     semantics. Consumers are deliberately collapsed into the same
//     treatment as businesses; destination-VAT (OSS) handling would need
//     per-member-state rate tables and is not modeled.
//   - Non-EU customers get 0% VAT as an export, without reverse charge.
//   - Domestic customers get vat = net × rate / 100.
//
// A zero rate band goes through the normal formula and yields the same
// numbers as the exemption paths; the distinction is informational only.
func (c *Calculator) Calculate(net decimal.Decimal, rate domain.VatRate, status domain.CustomerTaxStatus) (Calculation, error) {
	if domain.IsNegative(net) {
		return Calculation{}, domain.ErrNegativePrice
	}

	switch status {
	case domain.StatusEUBusiness, domain.StatusEUConsumer:
		return Calculation{Net: net, Vat: decimal.Zero, Gross: net, ReverseCharge: true}, nil
	case domain.StatusNonEUBusiness:
		return Calculation{Net: net, Vat: decimal.Zero, Gross: net}, nil
	}

	pct, ok := c.rates[rate]
	if !ok {
		return Calculation{}, domain.ErrUnknownVatRate
	}

	vat := net.Mul(pct).Div(hundred)
	return Calculation{Net: net, Vat: vat, Gross: net.Add(vat)}, nil
}

// Percentage returns the percentage bound to a rate band.
func (c *Calculator) Percentage(rate domain.VatRate) (decimal.Decimal, bool) {
	pct, ok := c.rates[rate]
	return pct, ok
}
