// Package events publishes pricing-engine domain events for downstream
// consumers (analytics, notification jobs). Publishing is fire-and-forget
// from the caller's perspective; delivery guarantees live in the broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subjects for published events.
const (
	SubjectDiscountRedeemed = "discount.redeemed"
)

// DiscountRedeemed is emitted after a discount redemption commits.
type DiscountRedeemed struct {
	RedemptionID   uuid.UUID `json:"redemption_id"`
	DiscountCodeID uuid.UUID `json:"discount_code_id"`
	OrderID        uuid.UUID `json:"order_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	Amount         string    `json:"amount"`
	RedeemedAt     time.Time `json:"redeemed_at"`
}

// Publisher publishes domain events.
type Publisher interface {
	PublishDiscountRedeemed(ctx context.Context, event DiscountRedeemed) error
}

// Noop is a Publisher that discards everything. Used when eventing is
// disabled and in tests.
type Noop struct{}

// PublishDiscountRedeemed discards the event.
func (Noop) PublishDiscountRedeemed(ctx context.Context, event DiscountRedeemed) error {
	return nil
}
