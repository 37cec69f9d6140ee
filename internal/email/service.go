package email

import (
	"context"
	"fmt"
	"time"
)

// Service composes the transactional messages the store sends and hands
// them to a Sender.
type Service struct {
	sender      Sender
	fromAddress string
	fromName    string
}

// NewService creates a new email service.
func NewService(sender Sender, fromAddress, fromName string) *Service {
	return &Service{
		sender:      sender,
		fromAddress: fromAddress,
		fromName:    fromName,
	}
}

// ReservationExpiringEmail carries the details for an expiring-soon notice.
type ReservationExpiringEmail struct {
	Email     string
	ItemCount int
	ExpiresAt time.Time
}

// SendReservationExpiring warns a shopper their held items are about to
// be released.
func (s *Service) SendReservationExpiring(ctx context.Context, data ReservationExpiringEmail) error {
	body := fmt.Sprintf(
		"The %d item(s) held in your cart will be released at %s.\n\n"+
			"Return to your cart to keep them reserved.\n",
		data.ItemCount, data.ExpiresAt.Format(time.Kitchen))

	_, err := s.sender.Send(ctx, &Email{
		To:       []string{data.Email},
		From:     s.from(),
		Subject:  "Your cart items are about to be released",
		TextBody: body,
	})
	if err != nil {
		return fmt.Errorf("failed to send reservation expiring email: %w", err)
	}
	return nil
}

// OrderConfirmationEmail carries the details for an order confirmation.
type OrderConfirmationEmail struct {
	Email       string
	OrderNumber string
	TotalCents  int64
	Currency    string
}

// SendOrderConfirmation confirms a completed order.
func (s *Service) SendOrderConfirmation(ctx context.Context, data OrderConfirmationEmail) error {
	body := fmt.Sprintf(
		"Thanks for your order!\n\n"+
			"Order number: %s\n"+
			"Total: %.2f %s\n",
		data.OrderNumber, float64(data.TotalCents)/100, data.Currency)

	_, err := s.sender.Send(ctx, &Email{
		To:       []string{data.Email},
		From:     s.from(),
		Subject:  fmt.Sprintf("Order confirmation %s", data.OrderNumber),
		TextBody: body,
	})
	if err != nil {
		return fmt.Errorf("failed to send order confirmation email: %w", err)
	}
	return nil
}

func (s *Service) from() string {
	if s.fromName != "" {
		return fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	return s.fromAddress
}
