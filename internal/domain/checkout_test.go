package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCheckout(t *testing.T, now time.Time) *Checkout {
	t.Helper()
	co, err := NewCheckout(NewCartID(), CartOwner{UserID: "user-1"}, 4500, CurrencyUSD, DefaultCheckoutExpiry, now)
	require.NoError(t, err)
	return co
}

func TestNewCheckoutValidation(t *testing.T) {
	now := time.Now()

	_, err := NewCheckout(NewCartID(), CartOwner{}, 1000, CurrencyUSD, DefaultCheckoutExpiry, now)
	assert.Equal(t, EINVALID, ErrorCode(err))

	_, err = NewCheckout(NewCartID(), CartOwner{UserID: "u"}, -1, CurrencyUSD, DefaultCheckoutExpiry, now)
	assert.Equal(t, EINVALID, ErrorCode(err))
}

func TestCheckoutFrozenTotal(t *testing.T) {
	now := time.Now()
	co := newTestCheckout(t, now)

	// The amount captured at creation does not track later cart edits.
	assert.Equal(t, int64(4500), co.TotalAmountCents)
	assert.Equal(t, CheckoutPending, co.Status)
	assert.Equal(t, now.Add(DefaultCheckoutExpiry), co.ExpiresAt)
}

func TestCheckoutComplete(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	co := newTestCheckout(t, now)

	at := now.Add(5 * time.Minute)
	require.NoError(t, co.CompleteAt(at))
	assert.Equal(t, CheckoutCompleted, co.Status)
	require.NotNil(t, co.CompletedAt)
	assert.Equal(t, at, *co.CompletedAt)

	// Completing twice reports the terminal state it is in.
	assert.ErrorIs(t, co.CompleteAt(at), ErrCheckoutAlreadyCompleted)
}

func TestCheckoutCompleteAfterDeadline(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	co := newTestCheckout(t, now)

	err := co.CompleteAt(co.ExpiresAt.Add(time.Second))
	assert.ErrorIs(t, err, ErrCheckoutExpiredErr)
}

func TestCheckoutTerminalStateErrorsAreDistinct(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cancelled := newTestCheckout(t, now)
	require.NoError(t, cancelled.Cancel())
	assert.ErrorIs(t, cancelled.CompleteAt(now), ErrCheckoutCancelled)

	expired := newTestCheckout(t, now)
	require.NoError(t, expired.MarkExpired())
	assert.ErrorIs(t, expired.CompleteAt(now), ErrCheckoutExpiredErr)
}

func TestCheckoutCancel(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Cancel is legal from pending and from expired, but not after completion.
	co := newTestCheckout(t, now)
	require.NoError(t, co.Cancel())
	assert.Equal(t, CheckoutCancelled, co.Status)
	assert.ErrorIs(t, co.Cancel(), ErrCheckoutCancelled)

	expired := newTestCheckout(t, now)
	require.NoError(t, expired.MarkExpired())
	require.NoError(t, expired.Cancel())

	done := newTestCheckout(t, now)
	require.NoError(t, done.CompleteAt(now))
	assert.ErrorIs(t, done.Cancel(), ErrCheckoutAlreadyCompleted)
}

func TestCheckoutMarkExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	co := newTestCheckout(t, now)
	require.NoError(t, co.MarkExpired())
	assert.Equal(t, CheckoutExpired, co.Status)
	assert.True(t, co.IsExpiredAt(now))

	assert.ErrorIs(t, co.MarkExpired(), ErrCheckoutNotPending)
}
