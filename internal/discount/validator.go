// Package discount validates discount codes and computes discount amounts
// over the qualifying subset of a cart. Everything here is pure; the
// authoritative usage-limit check at redemption time lives in the store.
package discount

import (
	"time"

	"github.com/dukerupert/vanir/internal/domain"
)

// Rejection reasons surfaced to the checkout UI. Read-time only; the
// transactional re-check at redemption reuses the domain conflict errors.
const (
	ReasonNotFound           = "not found"
	ReasonInactive           = "inactive"
	ReasonNotYetValid        = "not yet valid"
	ReasonExpired            = "expired"
	ReasonUsageLimitExceeded = "usage limit exceeded"
	ReasonPerCustomerLimit   = "per-customer limit exceeded"
	ReasonNoQualifyingItems  = "no qualifying items"
)

// Validation is the outcome of read-time code validation. It is advisory:
// concurrent checkouts can still exhaust a code between validation and
// redemption, which the transactional redemption re-check catches.
type Validation struct {
	Valid  bool
	Code   *domain.DiscountCode
	Reason string
}

// Validate runs the state checks in order, first failure wins. A nil code
// means the lookup found nothing.
func Validate(code *domain.DiscountCode, now time.Time) Validation {
	if code == nil {
		return Validation{Reason: ReasonNotFound}
	}
	if !code.IsActive {
		return Validation{Code: code, Reason: ReasonInactive}
	}
	if code.StartsAt != nil && now.Before(*code.StartsAt) {
		return Validation{Code: code, Reason: ReasonNotYetValid}
	}
	if code.ExpiresAt != nil && now.After(*code.ExpiresAt) {
		return Validation{Code: code, Reason: ReasonExpired}
	}
	if code.UsageLimit != nil && code.UsageCount >= *code.UsageLimit {
		return Validation{Code: code, Reason: ReasonUsageLimitExceeded}
	}
	return Validation{Valid: true, Code: code}
}
