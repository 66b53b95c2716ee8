// Package shipping is the shipping-cost collaborator of the pricing engine.
// The engine never owns shipping cost; it only signals free shipping, and the
// checkout flow consults a Provider for the actual rates.
package shipping

import (
	"context"
	"time"
)

// Provider quotes shipping options for a destination.
type Provider interface {
	// GetRates returns the available shipping options, cheapest first not
	// guaranteed; callers sort as needed.
	GetRates(ctx context.Context, params RateParams) ([]Rate, error)
}

// RateParams describes a shipment to quote.
type RateParams struct {
	DestinationCountry string
	ItemCount          int32
}

// Rate is a single shipping option.
type Rate struct {
	RateID                string
	ServiceName           string
	ServiceCode           string
	CostCents             int64
	EstimatedDaysMin      int
	EstimatedDaysMax      int
	EstimatedDeliveryDate time.Time
}
