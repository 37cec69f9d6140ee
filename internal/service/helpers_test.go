package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/idunn/internal/domain"
	"github.com/dukerupert/idunn/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// testClock is the frozen "now" all service clocks run on in tests.
var testClock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReservations(store *memStore) *ReservationManager {
	m := NewReservationManager(store, testLogger(), nil, 30*time.Minute)
	m.now = func() time.Time { return testClock }
	return m
}

func seedGuestCart(t *testing.T, store *memStore) (domain.CartID, domain.GuestToken) {
	t.Helper()
	token, err := domain.NewGuestToken()
	require.NoError(t, err)
	cartID := domain.NewCartID()
	tok := token.String()
	_, err = store.CreateCart(context.Background(), repository.CreateCartParams{
		ID:         cartID.String(),
		GuestToken: &tok,
		Currency:   "USD",
	})
	require.NoError(t, err)
	return cartID, token
}

func seedUserCart(t *testing.T, store *memStore, userID string) domain.CartID {
	t.Helper()
	cartID := domain.NewCartID()
	_, err := store.CreateCart(context.Background(), repository.CreateCartParams{
		ID:       cartID.String(),
		UserID:   &userID,
		Currency: "USD",
	})
	require.NoError(t, err)
	return cartID
}

// seedVariant registers a variant with stock in one warehouse and
// returns its ID.
func seedVariant(t *testing.T, store *memStore, priceCents int64, stock int64) domain.VariantID {
	t.Helper()
	variantID := domain.NewVariantID()
	store.seedCatalog(variantID.String(), uuid.New().String(), priceCents)
	store.seedStock(variantID.String(), "loc-main", stock)
	return variantID
}

func mustQty(t *testing.T, n int) domain.Quantity {
	t.Helper()
	q, err := domain.NewQuantity(n)
	require.NoError(t, err)
	return q
}
