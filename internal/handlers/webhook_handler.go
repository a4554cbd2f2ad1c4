package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"qamqorBack/internal/models"
)

const maxWebhookBody = 1 << 20

// Narrow views of the gateway and the reconciliation engine, enough for the
// webhook endpoint and easy to stub in tests.
type signatureVerifier interface {
	VerifySignature(payload []byte, header string) error
}

type eventProcessor interface {
	HandleEvent(ctx context.Context, evt models.PaymentEvent) error
}

// WebhookHandler terminates payment gateway webhooks: verify the signature,
// decode, hand off to the reconciliation engine. Any processing error answers
// non-200 so the gateway redelivers.
type WebhookHandler struct {
	Verifier  signatureVerifier
	Processor eventProcessor
	Logger    *slog.Logger
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := h.Verifier.VerifySignature(body, r.Header.Get("Stripe-Signature")); err != nil {
		h.logger().Warn("webhook signature rejected", "err", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	evt, err := models.DecodePaymentEvent(body)
	if err != nil {
		h.logger().Warn("webhook payload undecodable", "err", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := h.Processor.HandleEvent(r.Context(), evt); err != nil {
		h.logger().Error("webhook processing failed", "event_id", evt.EventID(), "err", err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
