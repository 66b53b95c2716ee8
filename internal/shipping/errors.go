package shipping

import "github.com/dukerupert/vanir/internal/domain"

var (
	ErrNoItems            = domain.Errorf(domain.EINVALID, "", "Shipment has no items")
	ErrMissingDestination = domain.Errorf(domain.EINVALID, "", "Destination country is required")
)
