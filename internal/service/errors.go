package service

import (
	"github.com/dukerupert/vanir/internal/domain"
)

// Pricing errors - malformed input, use domain.EINVALID
var (
	ErrMissingTimestamp = domain.Errorf(domain.EINVALID, "", "Pricing timestamp is required")
)

// Redemption errors
var (
	ErrMissingOrderID    = domain.Errorf(domain.EINVALID, "", "Order ID is required")
	ErrMissingCustomerID = domain.Errorf(domain.EINVALID, "", "Customer ID is required")
	ErrNegativeAmount    = domain.Errorf(domain.EINVALID, "", "Redemption amount must not be negative")
)
