// Package telemetry exposes business-level Prometheus metrics for the
// pricing engine, separate from the HTTP request metrics in middleware.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for pricing observability.
type BusinessMetrics struct {
	// Quotes
	QuotesTotal *prometheus.CounterVec
	QuoteValue  *prometheus.HistogramVec

	// Discounts
	DiscountOutcomes *prometheus.CounterVec
	DiscountValue    prometheus.Histogram

	// Redemptions
	RedemptionsTotal *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers the business metrics with the
// default registry.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "vanir"
	}

	return &BusinessMetrics{
		QuotesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pricing_quotes_total",
				Help:      "Total pricing quotes computed",
			},
			[]string{"country", "reverse_charge"},
		),
		QuoteValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pricing_quote_gross_value",
				Help:      "Gross order value of computed quotes",
				Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
			},
			[]string{"country"},
		),
		DiscountOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discount_code_outcomes_total",
				Help:      "Discount code evaluation outcomes",
			},
			[]string{"outcome"},
		),
		DiscountValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "discount_applied_value",
				Help:      "Monetary value of applied discounts",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
			},
		),
		RedemptionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discount_redemptions_total",
				Help:      "Discount redemption attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordQuote records a computed quote. grossValue is the post-VAT total.
func (m *BusinessMetrics) RecordQuote(country string, reverseCharge bool, grossValue float64) {
	if m == nil {
		return
	}
	rc := "false"
	if reverseCharge {
		rc = "true"
	}
	m.QuotesTotal.WithLabelValues(country, rc).Inc()
	m.QuoteValue.WithLabelValues(country).Observe(grossValue)
}

// RecordDiscountOutcome records whether a submitted code was applied or rejected.
func (m *BusinessMetrics) RecordDiscountOutcome(applied bool, amount float64) {
	if m == nil {
		return
	}
	if applied {
		m.DiscountOutcomes.WithLabelValues("applied").Inc()
		m.DiscountValue.Observe(amount)
		return
	}
	m.DiscountOutcomes.WithLabelValues("rejected").Inc()
}

// RecordRedemption records a redemption attempt outcome.
func (m *BusinessMetrics) RecordRedemption(outcome string) {
	if m == nil {
		return
	}
	m.RedemptionsTotal.WithLabelValues(outcome).Inc()
}
