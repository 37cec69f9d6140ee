package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing and local
// development. Simulates successful payment flows without calling the
// Stripe API.
type MockProvider struct {
	// CreatePaymentIntentFunc allows customizing payment intent creation behavior
	CreatePaymentIntentFunc func(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntentFunc allows customizing payment intent retrieval behavior
	GetPaymentIntentFunc func(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	// VerifyWebhookSignatureFunc allows customizing webhook verification behavior
	VerifyWebhookSignatureFunc func(payload []byte, signature string, secret string) error

	mu sync.Mutex

	// PaymentIntents stores created payment intents for retrieval
	PaymentIntents map[string]*PaymentIntent

	// CallLog tracks method calls for test assertions
	CallLog []string
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		PaymentIntents: make(map[string]*PaymentIntent),
		CallLog:        []string{},
	}
}

// CreatePaymentIntent creates a mock payment intent in test_mode_succeeded.
func (m *MockProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreatePaymentIntent(%d, %s)", params.AmountCents, params.Currency))
	m.mu.Unlock()

	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, params)
	}

	pi := &PaymentIntent{
		ID:           "pi_" + uuid.New().String(),
		ClientSecret: "pi_secret_" + uuid.New().String(),
		AmountCents:  params.AmountCents,
		Currency:     params.Currency,
		Status:       StatusTestModeSucceeded,
		Metadata:     params.Metadata,
	}

	m.mu.Lock()
	m.PaymentIntents[pi.ID] = pi
	m.mu.Unlock()
	return pi, nil
}

// GetPaymentIntent retrieves a previously created mock payment intent.
func (m *MockProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetPaymentIntent(%s)", paymentIntentID))
	pi, ok := m.PaymentIntents[paymentIntentID]
	m.mu.Unlock()

	if m.GetPaymentIntentFunc != nil {
		return m.GetPaymentIntentFunc(ctx, paymentIntentID)
	}
	if !ok {
		return nil, ErrPaymentIntentNotFound
	}
	return pi, nil
}

// CancelPaymentIntent marks a mock payment intent as canceled.
func (m *MockProvider) CancelPaymentIntent(ctx context.Context, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, fmt.Sprintf("CancelPaymentIntent(%s)", paymentIntentID))
	pi, ok := m.PaymentIntents[paymentIntentID]
	if !ok {
		return ErrPaymentIntentNotFound
	}
	pi.Status = "canceled"
	return nil
}

// VerifyWebhookSignature accepts any signature by default.
func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, "VerifyWebhookSignature")
	m.mu.Unlock()

	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature, secret)
	}
	return nil
}
