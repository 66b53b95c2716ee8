package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// DiscountHandler commits discount redemptions at order placement.
type DiscountHandler struct {
	redemptions service.RedemptionService
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewDiscountHandler creates a new discount handler.
func NewDiscountHandler(redemptions service.RedemptionService, logger *slog.Logger) *DiscountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscountHandler{
		redemptions: redemptions,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Register mounts the discount routes on the given echo group.
func (h *DiscountHandler) Register(g *echo.Group) {
	g.POST("/discounts/redeem", h.Redeem)
}

// RedeemRequest commits a previously quoted discount against an order.
type RedeemRequest struct {
	DiscountCodeID string `json:"discount_code_id" validate:"required,uuid"`
	OrderID        string `json:"order_id" validate:"required,uuid"`
	CustomerID     string `json:"customer_id" validate:"required,uuid"`
	Amount         string `json:"amount" validate:"required"`
}

// RedeemResponse is the committed redemption record.
type RedeemResponse struct {
	RedemptionID string `json:"redemption_id"`
	OrderID      string `json:"order_id"`
	Amount       string `json:"amount"`
	RedeemedAt   string `json:"redeemed_at"`
}

// Redeem handles POST /api/discounts/redeem. A 409 response means a usage
// limit was hit between quoting and redemption; the caller must re-price.
func (h *DiscountHandler) Redeem(c echo.Context) error {
	var req RedeemRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domain.Invalid("discount.redeem", "invalid request body"))
	}
	if err := h.validate.Struct(req); err != nil {
		return writeError(c, domain.WrapError(err, domain.EINVALID, "discount.redeem", "request validation failed"))
	}

	codeID, err := uuid.Parse(req.DiscountCodeID)
	if err != nil {
		return writeError(c, domain.Invalid("discount.redeem", "invalid discount code id"))
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return writeError(c, domain.Invalid("discount.redeem", "invalid order id"))
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return writeError(c, domain.Invalid("discount.redeem", "invalid customer id"))
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return writeError(c, domain.Invalid("discount.redeem", "invalid amount"))
	}

	redemption, err := h.redemptions.RedeemCode(c.Request().Context(), service.RedeemCodeParams{
		DiscountCodeID: codeID,
		OrderID:        orderID,
		CustomerID:     customerID,
		Amount:         amount,
	})
	if err != nil {
		if domain.ErrorCode(err) != domain.ECONFLICT {
			h.logger.Error("redemption failed", "order_id", req.OrderID, "error", err)
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, RedeemResponse{
		RedemptionID: redemption.ID.String(),
		OrderID:      redemption.OrderID.String(),
		Amount:       redemption.Amount.StringFixed(domain.MoneyPlaces),
		RedeemedAt:   redemption.RedeemedAt.UTC().Format(time.RFC3339),
	})
}
