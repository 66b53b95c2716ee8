// Package handler exposes the pricing engine over HTTP for the checkout
// frontend. The engine itself stays a library; this is a thin JSON surface.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/shipping"
	"github.com/dukerupert/vanir/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// PricingHandler handles pricing quote requests.
type PricingHandler struct {
	pricing  domain.PricingService
	shipping shipping.Provider
	validate *validator.Validate
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

// NewPricingHandler creates a new pricing handler. metrics may be nil.
func NewPricingHandler(pricing domain.PricingService, shippingProvider shipping.Provider, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *PricingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PricingHandler{
		pricing:  pricing,
		shipping: shippingProvider,
		validate: validator.New(),
		metrics:  metrics,
		logger:   logger,
	}
}

// Register mounts the pricing routes on the given echo group.
func (h *PricingHandler) Register(g *echo.Group) {
	g.POST("/pricing/quote", h.Quote)
}

// QuoteRequest is the inbound cart snapshot from the checkout flow.
type QuoteRequest struct {
	Lines              []QuoteLine `json:"lines" validate:"required,dive"`
	Country            string      `json:"country" validate:"required,len=2"`
	VatNumber          string      `json:"vat_number"`
	DiscountCode       string      `json:"discount_code"`
	CustomerPriorUsage int32       `json:"customer_prior_usage" validate:"gte=0"`
}

// QuoteLine is one cart line in a quote request. Amounts are decimal strings.
type QuoteLine struct {
	ProductID  string `json:"product_id" validate:"required,uuid"`
	CategoryID string `json:"category_id" validate:"required,uuid"`
	BasePrice  string `json:"base_price" validate:"required"`
	Surcharge  string `json:"surcharge"`
	Quantity   int32  `json:"quantity" validate:"required,gte=1"`
	VatRate    string `json:"vat_rate"`
}

// QuoteResponse mirrors domain.PricingResult for the checkout UI.
type QuoteResponse struct {
	NetTotal        string                `json:"net_total"`
	VatTotal        string                `json:"vat_total"`
	GrossTotal      string                `json:"gross_total"`
	VatBreakdown    map[string]RateBucket `json:"vat_breakdown"`
	DiscountAmount  string                `json:"discount_amount"`
	FinalTotal      string                `json:"final_total"`
	ReverseCharge   bool                  `json:"reverse_charge"`
	FreeShipping    bool                  `json:"free_shipping"`
	AppliedCode     string                `json:"applied_code,omitempty"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	ShippingOptions []ShippingOption      `json:"shipping_options,omitempty"`
}

// RateBucket is one nominal-rate slice of the VAT breakdown.
type RateBucket struct {
	Net   string `json:"net"`
	Vat   string `json:"vat"`
	Gross string `json:"gross"`
}

// ShippingOption is a quoted shipping rate, zeroed under free shipping.
type ShippingOption struct {
	ServiceName string `json:"service_name"`
	ServiceCode string `json:"service_code"`
	CostCents   int64  `json:"cost_cents"`
}

// Quote handles POST /api/pricing/quote.
func (h *PricingHandler) Quote(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domain.Invalid("pricing.quote", "invalid request body"))
	}
	if err := h.validate.Struct(req); err != nil {
		return writeError(c, domain.WrapError(err, domain.EINVALID, "pricing.quote", "request validation failed"))
	}

	lines, err := decodeLines(req.Lines)
	if err != nil {
		return writeError(c, err)
	}

	result, err := h.pricing.PriceOrder(c.Request().Context(), domain.PriceOrderParams{
		Lines:              lines,
		CustomerCountry:    req.Country,
		CustomerVatNumber:  req.VatNumber,
		DiscountCode:       req.DiscountCode,
		Now:                time.Now(),
		CustomerPriorUsage: req.CustomerPriorUsage,
	})
	if err != nil {
		h.logger.Error("pricing failed",
			"country", req.Country,
			"error", err,
		)
		return writeError(c, err)
	}

	grossValue, _ := result.GrossTotal.Float64()
	h.metrics.RecordQuote(req.Country, result.ReverseCharge, grossValue)
	if req.DiscountCode != "" {
		discountValue, _ := result.DiscountAmount.Float64()
		h.metrics.RecordDiscountOutcome(result.AppliedCode != nil, discountValue)
	}

	resp := toQuoteResponse(result)

	if len(lines) > 0 {
		options, err := h.shippingOptions(c, req.Country, int32(len(lines)), result.FreeShipping)
		if err != nil {
			// Shipping quotes are auxiliary; the price quote still stands.
			h.logger.Warn("failed to quote shipping", "error", err)
		} else {
			resp.ShippingOptions = options
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *PricingHandler) shippingOptions(c echo.Context, country string, itemCount int32, free bool) ([]ShippingOption, error) {
	rates, err := h.shipping.GetRates(c.Request().Context(), shipping.RateParams{
		DestinationCountry: country,
		ItemCount:          itemCount,
	})
	if err != nil {
		return nil, err
	}

	options := make([]ShippingOption, len(rates))
	for i, rate := range rates {
		cost := rate.CostCents
		if free {
			cost = 0
		}
		options[i] = ShippingOption{
			ServiceName: rate.ServiceName,
			ServiceCode: rate.ServiceCode,
			CostCents:   cost,
		}
	}
	return options, nil
}

func decodeLines(in []QuoteLine) ([]domain.CartLine, error) {
	lines := make([]domain.CartLine, len(in))
	for i, ql := range in {
		productID, err := uuid.Parse(ql.ProductID)
		if err != nil {
			return nil, domain.Invalid("pricing.quote", "invalid product id")
		}
		categoryID, err := uuid.Parse(ql.CategoryID)
		if err != nil {
			return nil, domain.Invalid("pricing.quote", "invalid category id")
		}

		basePrice, err := decimal.NewFromString(ql.BasePrice)
		if err != nil {
			return nil, domain.Invalid("pricing.quote", "invalid base price")
		}
		surcharge := decimal.Zero
		if ql.Surcharge != "" {
			if surcharge, err = decimal.NewFromString(ql.Surcharge); err != nil {
				return nil, domain.Invalid("pricing.quote", "invalid surcharge")
			}
		}

		rate := domain.VatRate(ql.VatRate)
		if ql.VatRate == "" {
			rate = domain.VatRateStandard
		}

		lines[i] = domain.CartLine{
			ProductID:  productID,
			CategoryID: categoryID,
			BasePrice:  basePrice,
			Surcharge:  surcharge,
			Quantity:   ql.Quantity,
			VatRate:    rate,
		}
	}
	return lines, nil
}

func toQuoteResponse(result *domain.PricingResult) *QuoteResponse {
	resp := &QuoteResponse{
		NetTotal:        result.NetTotal.StringFixed(domain.MoneyPlaces),
		VatTotal:        result.VatTotal.StringFixed(domain.MoneyPlaces),
		GrossTotal:      result.GrossTotal.StringFixed(domain.MoneyPlaces),
		VatBreakdown:    make(map[string]RateBucket, len(result.VatBreakdown)),
		DiscountAmount:  result.DiscountAmount.StringFixed(domain.MoneyPlaces),
		FinalTotal:      result.FinalTotal.StringFixed(domain.MoneyPlaces),
		ReverseCharge:   result.ReverseCharge,
		FreeShipping:    result.FreeShipping,
		RejectionReason: result.RejectionReason,
	}
	if result.AppliedCode != nil {
		resp.AppliedCode = result.AppliedCode.Code
	}
	for rate, bucket := range result.VatBreakdown {
		resp.VatBreakdown[string(rate)] = RateBucket{
			Net:   bucket.Net.StringFixed(domain.MoneyPlaces),
			Vat:   bucket.Vat.StringFixed(domain.MoneyPlaces),
			Gross: bucket.Gross.StringFixed(domain.MoneyPlaces),
		}
	}
	return resp
}

// writeError maps a domain error to an HTTP response.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch domain.ErrorCode(err) {
	case domain.EINVALID:
		status = http.StatusBadRequest
	case domain.ENOTFOUND:
		status = http.StatusNotFound
	case domain.ECONFLICT:
		status = http.StatusConflict
	case domain.ENOTIMPL:
		status = http.StatusNotImplemented
	}

	var ve validator.ValidationErrors
	message := domain.ErrorMessage(err)
	if errors.As(err, &ve) && len(ve) > 0 {
		message = "request validation failed: " + ve[0].Field()
	}

	return c.JSON(status, map[string]string{
		"error": message,
		"code":  domain.ErrorCode(err),
	})
}
