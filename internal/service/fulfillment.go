package service

import (
	"context"

	"github.com/dukerupert/idunn/internal/domain"
	"github.com/dukerupert/idunn/internal/repository"
)

// LocationSelector picks the stock location an order draws down from.
type LocationSelector interface {
	SelectLocation(ctx context.Context, q repository.Querier) (repository.LocationRow, error)
}

// StaticSelector always returns one configured location.
type StaticSelector struct {
	LocationID string
}

func (s StaticSelector) SelectLocation(ctx context.Context, q repository.Querier) (repository.LocationRow, error) {
	row, err := q.GetLocationByID(ctx, s.LocationID)
	if repository.IsNoRows(err) {
		return repository.LocationRow{}, ErrLocationNotFound
	}
	if err != nil {
		return repository.LocationRow{}, domain.Internal(err, "fulfillment.select", "failed to load location")
	}
	return row, nil
}

// FirstWarehouseSelector picks the highest-priority active warehouse.
type FirstWarehouseSelector struct{}

func (FirstWarehouseSelector) SelectLocation(ctx context.Context, q repository.Querier) (repository.LocationRow, error) {
	row, err := q.FindFirstWarehouse(ctx)
	if repository.IsNoRows(err) {
		return repository.LocationRow{}, ErrNoFulfillmentSource
	}
	if err != nil {
		return repository.LocationRow{}, domain.Internal(err, "fulfillment.select", "failed to find warehouse")
	}
	return row, nil
}

// ChainSelector tries each selector in order, falling through on
// not-found. A chain that exhausts all selectors is a deployment
// problem, not a shopper problem.
type ChainSelector struct {
	Selectors []LocationSelector
}

func (c ChainSelector) SelectLocation(ctx context.Context, q repository.Querier) (repository.LocationRow, error) {
	for _, sel := range c.Selectors {
		row, err := sel.SelectLocation(ctx, q)
		if err == nil {
			return row, nil
		}
		if err != ErrLocationNotFound && err != ErrNoFulfillmentSource {
			return repository.LocationRow{}, err
		}
	}
	return repository.LocationRow{}, ErrNoFulfillmentSource
}

// NewDefaultSelector builds the production chain: the configured
// location if any, then the first active warehouse.
func NewDefaultSelector(configuredLocationID string) LocationSelector {
	var selectors []LocationSelector
	if configuredLocationID != "" {
		selectors = append(selectors, StaticSelector{LocationID: configuredLocationID})
	}
	selectors = append(selectors, FirstWarehouseSelector{})
	return ChainSelector{Selectors: selectors}
}
