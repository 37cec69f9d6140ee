package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/idunn/internal/billing"
	"github.com/dukerupert/idunn/internal/domain"
	"github.com/dukerupert/idunn/internal/service"
)

const maxWebhookBody = 64 << 10

// stripeEvent is the subset of the webhook envelope we care about.
type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeIntentPayload struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// stripeWebhookHandler finalizes checkouts when the processor confirms
// payment. Completion is idempotent, so redelivered events are safe.
func stripeWebhookHandler(orders *service.OrderService, provider billing.Provider, webhookSecret string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if err := provider.VerifyWebhookSignature(payload, signature, webhookSecret); err != nil {
			logger.Warn("webhook signature rejected", "error", err)
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}

		var event stripeEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			http.Error(w, "malformed event", http.StatusBadRequest)
			return
		}

		if event.Type != "payment_intent.succeeded" {
			w.WriteHeader(http.StatusOK)
			return
		}

		var intent stripeIntentPayload
		if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
			http.Error(w, "malformed payment intent", http.StatusBadRequest)
			return
		}

		checkoutID := intent.Metadata["checkout_id"]
		if checkoutID == "" {
			// Not one of our intents. Acknowledge so Stripe stops retrying.
			logger.Warn("payment intent without checkout metadata", "payment_intent_id", intent.ID)
			w.WriteHeader(http.StatusOK)
			return
		}

		summary, err := orders.CompleteCheckoutWithOrder(r.Context(), service.CompleteCheckoutParams{
			CheckoutID:      checkoutID,
			PaymentIntentID: intent.ID,
			Actor:           service.Actor{System: true},
		})
		if err != nil {
			// Terminal checkout states will not change on redelivery, so
			// acknowledge those instead of asking Stripe to retry.
			if errors.Is(err, domain.ErrCheckoutExpiredErr) ||
				errors.Is(err, domain.ErrCheckoutCancelled) ||
				errors.Is(err, service.ErrCheckoutNotFound) {
				logger.Warn("payment arrived for unfinishable checkout",
					"checkout_id", checkoutID,
					"payment_intent_id", intent.ID,
					"error", err,
				)
				w.WriteHeader(http.StatusOK)
				return
			}
			logger.Error("webhook order completion failed",
				"checkout_id", checkoutID,
				"payment_intent_id", intent.ID,
				"error", err,
			)
			http.Error(w, "order completion failed", http.StatusInternalServerError)
			return
		}

		logger.Info("order created from webhook",
			"order_id", summary.OrderID,
			"order_number", summary.OrderNo,
			"checkout_id", checkoutID,
		)
		w.WriteHeader(http.StatusOK)
	}
}
