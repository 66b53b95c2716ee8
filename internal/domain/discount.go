package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DISCOUNT DOMAIN ERRORS
// =============================================================================

var (
	ErrCodeNotFound             = &Error{Code: ENOTFOUND, Message: "Discount code not found"}
	ErrUsageLimitExceeded       = &Error{Code: ECONFLICT, Message: "Discount code usage limit exceeded"}
	ErrPerCustomerLimitExceeded = &Error{Code: ECONFLICT, Message: "Per-customer discount limit exceeded"}
	ErrUnknownDiscountType      = &Error{Code: EINVALID, Message: "Unknown discount type"}
	ErrUnknownScopeKind         = &Error{Code: EINVALID, Message: "Unknown discount scope"}
)

// DiscountType enumerates how a discount amount is computed.
type DiscountType string

const (
	DiscountFixed        DiscountType = "fixed"
	DiscountPercentage   DiscountType = "percentage"
	DiscountFreeShipping DiscountType = "free_shipping"

	// DiscountBOGO is declared but has no effect: the business rules for
	// buy-one-get-one were never defined, so the type must not silently
	// apply anything.
	DiscountBOGO DiscountType = "bogo"
)

// KnownDiscountType reports whether t is one of the named discount types.
func KnownDiscountType(t DiscountType) bool {
	switch t {
	case DiscountFixed, DiscountPercentage, DiscountFreeShipping, DiscountBOGO:
		return true
	}
	return false
}

// ScopeKind enumerates which cart lines a discount code can apply to.
type ScopeKind string

const (
	ScopeAll        ScopeKind = "all"
	ScopeCategories ScopeKind = "categories"
	ScopeProducts   ScopeKind = "products"
)

// Scope is the decoded eligibility filter of a discount code. The id set is
// decoded once at load time rather than re-parsed per calculation.
type Scope struct {
	Kind ScopeKind
	IDs  map[uuid.UUID]struct{}
}

// AllScope returns a scope matching every cart line.
func AllScope() Scope {
	return Scope{Kind: ScopeAll}
}

// CategoryScope returns a scope matching lines in the given categories.
func CategoryScope(ids ...uuid.UUID) Scope {
	return Scope{Kind: ScopeCategories, IDs: idSet(ids)}
}

// ProductScope returns a scope matching lines for the given products.
func ProductScope(ids ...uuid.UUID) Scope {
	return Scope{Kind: ScopeProducts, IDs: idSet(ids)}
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Matches reports whether a cart line falls within the scope.
func (s Scope) Matches(line CartLine) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeCategories:
		_, ok := s.IDs[line.CategoryID]
		return ok
	case ScopeProducts:
		_, ok := s.IDs[line.ProductID]
		return ok
	}
	return false
}

// Validate checks the scope kind is known.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeAll, ScopeCategories, ScopeProducts:
		return nil
	}
	return ErrUnknownScopeKind
}

// DiscountCode is an administrator-managed promotion. Codes are stored
// upper-cased and compared case-insensitively. UsageCount is monotonic and
// incremented only on successful redemption.
type DiscountCode struct {
	ID   uuid.UUID
	Code string
	Type DiscountType

	// Value is an amount for fixed discounts and a percentage for
	// percentage discounts. Unused for free-shipping and BOGO.
	Value decimal.Decimal

	// MaxDiscount caps a percentage discount when set.
	MaxDiscount *decimal.Decimal

	// MinOrderValue gates the discount on the cart's net total when set.
	MinOrderValue *decimal.Decimal

	UsageLimit       *int32
	UsageCount       int32
	PerCustomerLimit *int32

	IsActive  bool
	StartsAt  *time.Time
	ExpiresAt *time.Time

	Scope Scope

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeCode upper-cases and trims a code for case-insensitive lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redemption records one successful use of a discount code on an order.
// Redemption records are append-only.
type Redemption struct {
	ID             uuid.UUID
	DiscountCodeID uuid.UUID
	OrderID        uuid.UUID
	CustomerID     uuid.UUID
	Amount         decimal.Decimal
	RedeemedAt     time.Time
}

// RedeemParams describes a redemption to commit at order placement.
type RedeemParams struct {
	DiscountCodeID uuid.UUID
	OrderID        uuid.UUID
	CustomerID     uuid.UUID
	Amount         decimal.Decimal
}

// DiscountStore is the persistence collaborator for discount codes.
// Read-time lookups are advisory; RedeemCode is the authoritative check.
type DiscountStore interface {
	// GetCodeByCode fetches a code by its normalized form.
	// Returns ErrCodeNotFound if it does not exist.
	GetCodeByCode(ctx context.Context, code string) (*DiscountCode, error)

	// CountCustomerRedemptions returns how many times a customer has
	// redeemed a code.
	CountCustomerRedemptions(ctx context.Context, codeID, customerID uuid.UUID) (int32, error)

	// RedeemCode atomically re-validates usage limits, increments the
	// code's usage count, and appends a redemption record. Read-time
	// validation is stale under concurrent checkouts; this transactional
	// re-check is what actually enforces the caps. Returns
	// ErrUsageLimitExceeded or ErrPerCustomerLimitExceeded when a limit
	// would be breached.
	RedeemCode(ctx context.Context, params RedeemParams) (*Redemption, error)
}
