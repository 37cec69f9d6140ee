package email

import (
	"context"
	"fmt"
	"sync"
)

// MockSender records messages instead of sending them.
type MockSender struct {
	mu   sync.Mutex
	Sent []*Email

	// SendFunc allows customizing send behavior
	SendFunc func(ctx context.Context, email *Email) (string, error)
}

var _ Sender = (*MockSender)(nil)

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(ctx context.Context, email *Email) (string, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, email)
	return fmt.Sprintf("mock-%d", len(m.Sent)), nil
}
