package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/events"
	"github.com/dukerupert/vanir/internal/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RedemptionService commits discount redemptions at order placement. The
// store re-validates usage limits inside a single transaction; read-time
// validation is stale the moment two checkouts race the same code.
type RedemptionService interface {
	// RedeemCode atomically increments the code's usage count and appends
	// a redemption record. Returns domain.ErrUsageLimitExceeded or
	// domain.ErrPerCustomerLimitExceeded when the transactional re-check
	// fails; the caller must then re-price without the discount or abort
	// the order, never apply the discount anyway.
	RedeemCode(ctx context.Context, params RedeemCodeParams) (*domain.Redemption, error)
}

// RedeemCodeParams identifies the redemption to commit.
type RedeemCodeParams struct {
	DiscountCodeID uuid.UUID
	OrderID        uuid.UUID
	CustomerID     uuid.UUID
	Amount         decimal.Decimal
}

type redemptionService struct {
	store     domain.DiscountStore
	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	logger    *slog.Logger
}

// NewRedemptionService creates a RedemptionService. The publisher may be an
// events.Noop when eventing is disabled; metrics may be nil.
func NewRedemptionService(store domain.DiscountStore, publisher events.Publisher, metrics *telemetry.BusinessMetrics, logger *slog.Logger) RedemptionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &redemptionService{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// RedeemCode commits the redemption and publishes a discount.redeemed event.
// Publishing is best-effort: the redemption stands even if the event fails.
func (s *redemptionService) RedeemCode(ctx context.Context, params RedeemCodeParams) (*domain.Redemption, error) {
	if params.OrderID == uuid.Nil {
		return nil, ErrMissingOrderID
	}
	if params.CustomerID == uuid.Nil {
		return nil, ErrMissingCustomerID
	}
	if domain.IsNegative(params.Amount) {
		return nil, ErrNegativeAmount
	}

	redemption, err := s.store.RedeemCode(ctx, domain.RedeemParams{
		DiscountCodeID: params.DiscountCodeID,
		OrderID:        params.OrderID,
		CustomerID:     params.CustomerID,
		Amount:         params.Amount,
	})
	if err != nil {
		if domain.ErrorCode(err) == domain.ECONFLICT {
			s.metrics.RecordRedemption("conflict")
		}
		return nil, err
	}
	s.metrics.RecordRedemption("committed")

	event := events.DiscountRedeemed{
		RedemptionID:   redemption.ID,
		DiscountCodeID: redemption.DiscountCodeID,
		OrderID:        redemption.OrderID,
		CustomerID:     redemption.CustomerID,
		Amount:         redemption.Amount.StringFixed(domain.MoneyPlaces),
		RedeemedAt:     redemption.RedeemedAt,
	}
	if err := s.publisher.PublishDiscountRedeemed(ctx, event); err != nil {
		s.logger.Warn("failed to publish discount.redeemed event",
			"redemption_id", redemption.ID.String(),
			"error", err,
		)
	}

	return redemption, nil
}
