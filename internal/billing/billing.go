package billing

import "context"

// Provider defines the interface for payment processing.
// Implementations can use Stripe, PayPal, Square, etc.
type Provider interface {
	// CreatePaymentIntent creates a payment intent for a checkout.
	// Returns a payment intent with client_secret for frontend confirmation.
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntent retrieves an existing payment intent.
	// Used to verify payment state before creating an order.
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	// CancelPaymentIntent cancels a payment intent that hasn't been confirmed.
	// Used to clean up abandoned checkouts.
	CancelPaymentIntent(ctx context.Context, paymentIntentID string) error

	// VerifyWebhookSignature verifies that a webhook request is authentic.
	VerifyWebhookSignature(payload []byte, signature string, secret string) error
}

// CreatePaymentIntentParams contains parameters for creating a payment intent.
type CreatePaymentIntentParams struct {
	// AmountCents is the amount in smallest currency unit (cents for USD)
	AmountCents int64

	// Currency code (ISO 4217) - e.g., "usd", "eur"
	Currency string

	// CustomerEmail is used to prefill customer email in the payment sheet
	CustomerEmail string

	// Description appears on the customer's statement and in the dashboard
	Description string

	// IdempotencyKey makes retried creations safe. Checkout ID works well.
	IdempotencyKey string

	// Metadata is attached to the intent for reconciliation
	Metadata map[string]string
}

// PaymentIntent represents a payment in progress or completed.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
	Status       string
	Metadata     map[string]string
}

// Statuses that prove the money side of a checkout is settled enough to
// create an order against. Anything else blocks order creation.
const (
	StatusAuthorized        = "authorized"
	StatusCaptured          = "captured"
	StatusSucceeded         = "succeeded"
	StatusRequiresCapture   = "requires_capture"
	StatusTestModeSucceeded = "test_mode_succeeded"
)

var acceptedStatuses = map[string]struct{}{
	StatusAuthorized:        {},
	StatusCaptured:          {},
	StatusSucceeded:         {},
	StatusRequiresCapture:   {},
	StatusTestModeSucceeded: {},
}

// IsAcceptedStatus reports whether a payment status is good enough to
// complete a checkout.
func IsAcceptedStatus(status string) bool {
	_, ok := acceptedStatuses[status]
	return ok
}
