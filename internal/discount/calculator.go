package discount

import (
	"fmt"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Application is the outcome of applying a validated code to a cart.
// QualifyingLines indexes into the cart passed to Apply; the orchestrator
// uses it to spread the amount across those lines' net bases.
type Application struct {
	Applied bool
	Amount  decimal.Decimal

	// FreeShipping tells the orchestrator to signal the shipping
	// collaborator; the merchandise amount stays zero.
	FreeShipping bool

	QualifyingLines []int
	QualifyingTotal decimal.Decimal

	Reason string
}

// Apply determines eligibility and computes the discount amount for a
// validated code. Amounts are computed over the sum of qualifying line net
// totals, not the full cart. Business outcomes come back in the Application;
// only an unknown type or scope enum is an error.
func Apply(code *domain.DiscountCode, lines []domain.CartLine, cartNetTotal decimal.Decimal, customerPriorUsage int32) (Application, error) {
	if !domain.KnownDiscountType(code.Type) {
		return Application{}, domain.Errorf(domain.EINVALID, "discount.apply", "unknown discount type: %s", code.Type)
	}
	if err := code.Scope.Validate(); err != nil {
		return Application{}, domain.WrapError(err, domain.EINVALID, "discount.apply", "unknown discount scope")
	}

	if code.PerCustomerLimit != nil && customerPriorUsage >= *code.PerCustomerLimit {
		return Application{Reason: ReasonPerCustomerLimit}, nil
	}

	if code.MinOrderValue != nil && cartNetTotal.LessThan(*code.MinOrderValue) {
		// The threshold goes into the reason so the shopper knows how far
		// off they are.
		reason := fmt.Sprintf("minimum order value not met (requires %s)", code.MinOrderValue.StringFixed(domain.MoneyPlaces))
		return Application{Reason: reason}, nil
	}

	var qualifying []int
	qualifyingTotal := decimal.Zero
	for i, line := range lines {
		if code.Scope.Matches(line) {
			qualifying = append(qualifying, i)
			qualifyingTotal = qualifyingTotal.Add(line.NetTotal())
		}
	}
	if len(qualifying) == 0 {
		return Application{Reason: ReasonNoQualifyingItems}, nil
	}

	app := Application{
		Applied:         true,
		Amount:          decimal.Zero,
		QualifyingLines: qualifying,
		QualifyingTotal: qualifyingTotal,
	}

	switch code.Type {
	case domain.DiscountFixed:
		// Never discounts below zero on the qualifying subset.
		app.Amount = decimal.Min(code.Value, qualifyingTotal)

	case domain.DiscountPercentage:
		raw := qualifyingTotal.Mul(code.Value).Div(hundred)
		if code.MaxDiscount != nil {
			raw = decimal.Min(raw, *code.MaxDiscount)
		}
		app.Amount = raw

	case domain.DiscountFreeShipping:
		// Shipping is not merchandise; the orchestrator relays the signal
		// to the shipping-cost collaborator.
		app.FreeShipping = true

	case domain.DiscountBOGO:
		// Declared but inert until the business rules exist.
	}

	return app, nil
}
