package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICING DOMAIN ERRORS
// =============================================================================

var (
	ErrNegativePrice   = &Error{Code: EINVALID, Message: "Price must not be negative"}
	ErrInvalidQuantity = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrUnknownVatRate  = &Error{Code: EINVALID, Message: "Unknown VAT rate"}
)

// VatRate names one of the closed set of VAT rate bands. Each band is bound to
// a percentage by the calculator's rate table; the names are stable identifiers
// used in breakdowns and reporting.
type VatRate string

const (
	VatRateStandard      VatRate = "standard"
	VatRateReduced       VatRate = "reduced"
	VatRateSecondReduced VatRate = "second_reduced"
	VatRateZero          VatRate = "zero"
)

// KnownVatRate reports whether r is one of the named rate bands.
func KnownVatRate(r VatRate) bool {
	switch r {
	case VatRateStandard, VatRateReduced, VatRateSecondReduced, VatRateZero:
		return true
	}
	return false
}

// CustomerTaxStatus classifies a customer for VAT purposes. It is derived per
// pricing request from country code and optional VAT registration number and
// is never persisted.
type CustomerTaxStatus string

const (
	StatusDomesticConsumer CustomerTaxStatus = "domestic_consumer"
	StatusDomesticBusiness CustomerTaxStatus = "domestic_business"
	StatusEUBusiness       CustomerTaxStatus = "eu_business"
	StatusEUConsumer       CustomerTaxStatus = "eu_consumer"
	StatusNonEUBusiness    CustomerTaxStatus = "non_eu_business"
)

// CartLine is an immutable snapshot of a single cart or order item at pricing
// time. BasePrice is the product price, sale price, or fixed printable-item
// price; Surcharge covers per-item extras such as a custom-print fee.
type CartLine struct {
	ProductID  uuid.UUID
	CategoryID uuid.UUID
	BasePrice  decimal.Decimal
	Surcharge  decimal.Decimal
	Quantity   int32
	VatRate    VatRate
}

// NetTotal returns (BasePrice + Surcharge) × Quantity, unrounded.
func (l CartLine) NetTotal() decimal.Decimal {
	return l.BasePrice.Add(l.Surcharge).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Validate checks the line for data-integrity faults. A failure here means the
// cart snapshot is corrupt and pricing must abort.
func (l CartLine) Validate() error {
	if IsNegative(l.BasePrice) || IsNegative(l.Surcharge) {
		return ErrNegativePrice
	}
	if l.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if !KnownVatRate(l.VatRate) {
		return ErrUnknownVatRate
	}
	return nil
}

// RateBucket aggregates the amounts attributed to a single nominal VAT rate.
type RateBucket struct {
	Net   decimal.Decimal
	Vat   decimal.Decimal
	Gross decimal.Decimal
}

// CartTotals is the output of cart valuation. Breakdown is keyed by each
// line's nominal rate even when the effective VAT is zero under reverse
// charge, so reporting can still see which band each net amount came from.
type CartTotals struct {
	NetTotal      decimal.Decimal
	VatTotal      decimal.Decimal
	GrossTotal    decimal.Decimal
	Breakdown     map[VatRate]RateBucket
	ReverseCharge bool
}

// PricingResult is the sole output contract of order pricing. It is a pure
// value, never mutated after construction. Business rejections land in
// RejectionReason alongside a fully priced cart; they are not errors.
type PricingResult struct {
	NetTotal     decimal.Decimal
	VatTotal     decimal.Decimal
	GrossTotal   decimal.Decimal
	VatBreakdown map[VatRate]RateBucket

	DiscountAmount decimal.Decimal
	FinalTotal     decimal.Decimal
	ReverseCharge  bool

	// FreeShipping signals the checkout flow to zero the shipping line. The
	// pricing engine does not own shipping cost.
	FreeShipping bool

	AppliedCode     *DiscountCode
	RejectionReason string
}

// PricingService prices an order: tax status resolution, discount validation
// and application, and cart valuation, in that order.
type PricingService interface {
	// PriceOrder returns a complete PricingResult for the given cart snapshot.
	// Invalid or inapplicable discount codes never fail the call; the cart is
	// priced without the discount and RejectionReason explains why. Only
	// malformed input (negative amounts, zero quantity, unknown rate) errors.
	PriceOrder(ctx context.Context, params PriceOrderParams) (*PricingResult, error)
}

// PriceOrderParams is the inbound contract from the checkout flow. The
// CustomerPriorUsage count is supplied by the persistence collaborator, not
// fetched internally.
type PriceOrderParams struct {
	Lines              []CartLine
	CustomerCountry    string
	CustomerVatNumber  string
	DiscountCode       string
	Now                time.Time
	CustomerPriorUsage int32
}
