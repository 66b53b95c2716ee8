package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/vanir/internal/discount"
	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/pricing"
	"github.com/dukerupert/vanir/internal/vat"
	"github.com/shopspring/decimal"
)

// pricingService implements domain.PricingService. It composes the status
// resolver, the discount validator/calculator, and cart valuation into the
// single entry point the checkout flow calls.
type pricingService struct {
	codes    domain.DiscountStore
	resolver *vat.StatusResolver
	calc     *vat.Calculator
	logger   *slog.Logger
}

// Compile-time check that pricingService implements domain.PricingService.
var _ domain.PricingService = (*pricingService)(nil)

// NewPricingService creates a PricingService. The store is only consulted
// when a discount code accompanies the request.
func NewPricingService(codes domain.DiscountStore, resolver *vat.StatusResolver, calc *vat.Calculator, logger *slog.Logger) domain.PricingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &pricingService{
		codes:    codes,
		resolver: resolver,
		calc:     calc,
		logger:   logger,
	}
}

// PriceOrder prices a cart snapshot. The sequence is fixed: resolve tax
// status, validate and apply the discount on net (pre-VAT) line totals,
// proportionally reduce the qualifying lines' net bases, then compute VAT on
// the reduced bases. Discounting after VAT would discount the tax itself,
// which must never happen.
//
// A bad or inapplicable code never blocks checkout: the cart is priced at
// full value and RejectionReason carries the explanation.
func (s *pricingService) PriceOrder(ctx context.Context, params domain.PriceOrderParams) (*domain.PricingResult, error) {
	if params.Now.IsZero() {
		return nil, ErrMissingTimestamp
	}

	status := s.resolver.Resolve(params.CustomerCountry, params.CustomerVatNumber)

	bases, err := pricing.Bases(params.Lines)
	if err != nil {
		return nil, err
	}

	result := &domain.PricingResult{
		DiscountAmount: decimal.Zero,
	}

	if params.DiscountCode != "" {
		applied, err := s.applyDiscount(ctx, params, bases, result)
		if err != nil {
			return nil, err
		}
		if applied != nil {
			pricing.ReduceProportionally(bases, applied.QualifyingLines, applied.Amount)
			result.DiscountAmount = domain.RoundMoney(applied.Amount)
			result.FreeShipping = applied.FreeShipping
		}
	}

	totals, err := pricing.ValueBases(s.calc, bases, status)
	if err != nil {
		return nil, err
	}

	result.NetTotal = totals.NetTotal
	result.VatTotal = totals.VatTotal
	result.GrossTotal = totals.GrossTotal
	result.VatBreakdown = totals.Breakdown
	result.ReverseCharge = totals.ReverseCharge

	// The discount is already folded into the net bases, so the gross is
	// the final amount due.
	result.FinalTotal = totals.GrossTotal

	return result, nil
}

// applyDiscount looks up, validates, and applies the request's code. It
// returns the application when the discount goes through, nil when the code
// was rejected (with the reason recorded on the result), and an error only
// for infrastructure faults or malformed code records.
func (s *pricingService) applyDiscount(ctx context.Context, params domain.PriceOrderParams, bases []pricing.LineBasis, result *domain.PricingResult) (*discount.Application, error) {
	normalized := domain.NormalizeCode(params.DiscountCode)

	code, err := s.codes.GetCodeByCode(ctx, normalized)
	if err != nil && !errors.Is(err, domain.ErrCodeNotFound) {
		return nil, domain.WrapError(err, domain.EINTERNAL, "pricing.price_order", "failed to look up discount code")
	}

	validation := discount.Validate(code, params.Now)
	if !validation.Valid {
		s.logger.Debug("discount code rejected",
			"code", normalized,
			"reason", validation.Reason,
		)
		result.RejectionReason = validation.Reason
		return nil, nil
	}

	cartNet := decimal.Zero
	for _, b := range bases {
		cartNet = cartNet.Add(b.Net)
	}

	app, err := discount.Apply(validation.Code, params.Lines, cartNet, params.CustomerPriorUsage)
	if err != nil {
		return nil, err
	}
	if !app.Applied {
		result.RejectionReason = app.Reason
		return nil, nil
	}

	result.AppliedCode = validation.Code
	return &app, nil
}
