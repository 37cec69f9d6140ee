package shipping

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoPackages is returned when a rate request carries nothing to ship.
	ErrNoPackages = errors.New("shipping: no packages to rate")

	// ErrUnknownOption is returned when a shipping option code does not exist.
	ErrUnknownOption = errors.New("shipping: unknown shipping option")
)

// Provider defines the interface for shipping rate calculation.
// Implementations can integrate with carriers like FedEx, UPS, USPS, etc.
type Provider interface {
	// GetRates returns available shipping options for a shipment.
	GetRates(ctx context.Context, params RateParams) ([]Rate, error)

	// GetRate resolves a single option by its service code.
	GetRate(ctx context.Context, serviceCode string, params RateParams) (*Rate, error)
}

// RateParams contains parameters for calculating shipping rates.
type RateParams struct {
	DestinationCountry string
	Packages           []Package
	SubtotalCents      int64
}

// Package represents a physical package to be shipped.
type Package struct {
	WeightGrams int32
}

// Rate represents a shipping rate option.
type Rate struct {
	ServiceName           string
	ServiceCode           string
	CostCents             int64
	EstimatedDaysMin      int
	EstimatedDaysMax      int
	EstimatedDeliveryDate time.Time
}
