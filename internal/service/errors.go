package service

import (
	"github.com/dukerupert/idunn/internal/domain"
)

// Lookup errors - use domain.ENOTFOUND
var (
	ErrCartNotFound        = domain.ErrCartNotFound
	ErrCartItemNotFound    = domain.ErrCartItemNotFound
	ErrVariantNotFound     = domain.ErrVariantNotFound
	ErrReservationNotFound = domain.ErrReservationNotFound
	ErrCheckoutNotFound    = domain.ErrCheckoutNotFound
	ErrOrderNotFound       = domain.ErrOrderNotFound
	ErrLocationNotFound    = domain.Errorf(domain.ENOTFOUND, "", "Stock location not found")
)

// Validation errors - use domain.EINVALID
var (
	ErrEmptyCart           = domain.ErrCartEmpty
	ErrVariantInactive     = domain.Errorf(domain.EINVALID, "", "Product variant is not available")
	ErrMissingEmail        = domain.Errorf(domain.EINVALID, "", "Customer email required for checkout")
	ErrInvalidAddress      = domain.Errorf(domain.EINVALID, "", "Address failed validation")
	ErrAmountMismatch      = domain.Errorf(domain.EPAYMENT, "", "Payment amount does not match checkout total")
	ErrPaymentNotSettled   = domain.Errorf(domain.EPAYMENT, "", "Payment has not been authorized or captured")
	ErrOwnershipMismatch   = domain.Errorf(domain.EFORBIDDEN, "", "Checkout belongs to a different owner")
	ErrInsufficientStock   = domain.Errorf(domain.ECAPACITY, "", "Insufficient stock for one or more items")
	ErrNoFulfillmentSource = domain.Errorf(domain.EINTERNAL, "", "No fulfillment location available")
)
