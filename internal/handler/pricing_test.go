package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/handler"
	"github.com/dukerupert/vanir/internal/shipping"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPricing returns a canned result and records the params it was called with.
type stubPricing struct {
	result *domain.PricingResult
	err    error
	params domain.PriceOrderParams
}

func (s *stubPricing) PriceOrder(ctx context.Context, params domain.PriceOrderParams) (*domain.PricingResult, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testProvider() shipping.Provider {
	return shipping.NewFlatRateProvider([]shipping.FlatRate{
		{ServiceName: "Standard Shipping", ServiceCode: "STD", CostCents: 500, DaysMin: 3, DaysMax: 5},
	})
}

func doQuote(t *testing.T, pricing domain.PricingService, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	h := handler.NewPricingHandler(pricing, testProvider(), nil, nil)
	h.Register(e.Group("/api"))

	req := httptest.NewRequest(http.MethodPost, "/api/pricing/quote", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func quoteBody(t *testing.T, overrides map[string]any) string {
	t.Helper()

	body := map[string]any{
		"lines": []map[string]any{
			{
				"product_id":  uuid.NewString(),
				"category_id": uuid.NewString(),
				"base_price":  "100.00",
				"quantity":    1,
				"vat_rate":    "standard",
			},
		},
		"country": "IE",
	}
	for k, v := range overrides {
		body[k] = v
	}

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return string(raw)
}

func cannedResult() *domain.PricingResult {
	return &domain.PricingResult{
		NetTotal:   decimal.RequireFromString("100.00"),
		VatTotal:   decimal.RequireFromString("23.00"),
		GrossTotal: decimal.RequireFromString("123.00"),
		VatBreakdown: map[domain.VatRate]domain.RateBucket{
			domain.VatRateStandard: {
				Net:   decimal.RequireFromString("100.00"),
				Vat:   decimal.RequireFromString("23.00"),
				Gross: decimal.RequireFromString("123.00"),
			},
		},
		DiscountAmount: decimal.Zero,
		FinalTotal:     decimal.RequireFromString("123.00"),
	}
}

func TestQuote_Success(t *testing.T) {
	pricing := &stubPricing{result: cannedResult()}

	rec := doQuote(t, pricing, quoteBody(t, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "100.00", resp.NetTotal)
	assert.Equal(t, "23.00", resp.VatTotal)
	assert.Equal(t, "123.00", resp.GrossTotal)
	assert.Equal(t, "123.00", resp.FinalTotal)
	assert.Equal(t, "0.00", resp.DiscountAmount)

	require.Contains(t, resp.VatBreakdown, "standard")
	assert.Equal(t, "23.00", resp.VatBreakdown["standard"].Vat)

	require.Len(t, resp.ShippingOptions, 1)
	assert.Equal(t, int64(500), resp.ShippingOptions[0].CostCents)

	assert.False(t, pricing.params.Now.IsZero(), "handler supplies the evaluation time")
	assert.Equal(t, "IE", pricing.params.CustomerCountry)
}

func TestQuote_FreeShippingZeroesOptions(t *testing.T) {
	result := cannedResult()
	result.FreeShipping = true
	result.AppliedCode = &domain.DiscountCode{Code: "FREESHIP"}
	pricing := &stubPricing{result: result}

	rec := doQuote(t, pricing, quoteBody(t, map[string]any{"discount_code": "FREESHIP"}))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.FreeShipping)
	assert.Equal(t, "FREESHIP", resp.AppliedCode)
	require.Len(t, resp.ShippingOptions, 1)
	assert.Zero(t, resp.ShippingOptions[0].CostCents)

	assert.Equal(t, "FREESHIP", pricing.params.DiscountCode)
}

func TestQuote_RejectionReasonPassesThrough(t *testing.T) {
	result := cannedResult()
	result.RejectionReason = "expired"
	pricing := &stubPricing{result: result}

	rec := doQuote(t, pricing, quoteBody(t, map[string]any{"discount_code": "OLD"}))

	require.Equal(t, http.StatusOK, rec.Code, "a rejected code is still a successful quote")

	var resp handler.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "expired", resp.RejectionReason)
	assert.Empty(t, resp.AppliedCode)
}

func TestQuote_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{not json"},
		{"missing country", quoteBody(t, map[string]any{"country": ""})},
		{"bad country length", quoteBody(t, map[string]any{"country": "IRL"})},
		{"no lines", `{"country":"IE"}`},
		{"bad product id", quoteBody(t, map[string]any{
			"lines": []map[string]any{{
				"product_id":  "nope",
				"category_id": uuid.NewString(),
				"base_price":  "10.00",
				"quantity":    1,
			}},
		})},
		{"bad base price", quoteBody(t, map[string]any{
			"lines": []map[string]any{{
				"product_id":  uuid.NewString(),
				"category_id": uuid.NewString(),
				"base_price":  "ten euro",
				"quantity":    1,
			}},
		})},
		{"zero quantity", quoteBody(t, map[string]any{
			"lines": []map[string]any{{
				"product_id":  uuid.NewString(),
				"category_id": uuid.NewString(),
				"base_price":  "10.00",
				"quantity":    0,
			}},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doQuote(t, &stubPricing{result: cannedResult()}, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestQuote_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid", domain.Invalid("test", "bad input"), http.StatusBadRequest},
		{"internal", domain.Internal(assert.AnError, "test", "lookup failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doQuote(t, &stubPricing{err: tt.err}, quoteBody(t, nil))
			assert.Equal(t, tt.status, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			assert.Equal(t, domain.ErrorCode(tt.err), resp["code"])
		})
	}
}

func TestQuote_DefaultsVatRateToStandard(t *testing.T) {
	pricing := &stubPricing{result: cannedResult()}

	body := quoteBody(t, map[string]any{
		"lines": []map[string]any{{
			"product_id":  uuid.NewString(),
			"category_id": uuid.NewString(),
			"base_price":  "10.00",
			"quantity":    2,
		}},
	})
	rec := doQuote(t, pricing, body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pricing.params.Lines, 1)
	assert.Equal(t, domain.VatRateStandard, pricing.params.Lines[0].VatRate)
	assert.Equal(t, int32(2), pricing.params.Lines[0].Quantity)
	assert.True(t, pricing.params.Lines[0].Surcharge.IsZero())
}
