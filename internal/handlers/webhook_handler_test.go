package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"qamqorBack/internal/models"
)

type fakeVerifier struct {
	err error
}

func (f fakeVerifier) VerifySignature(payload []byte, header string) error { return f.err }

type fakeProcessor struct {
	events []models.PaymentEvent
	err    error
}

func (f *fakeProcessor) HandleEvent(ctx context.Context, evt models.PaymentEvent) error {
	f.events = append(f.events, evt)
	return f.err
}

func postWebhook(h *WebhookHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/payments", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	h.Receive(rec, req)
	return rec
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	processor := &fakeProcessor{}
	h := &WebhookHandler{
		Verifier:  fakeVerifier{err: fmt.Errorf("%w: signature mismatch", models.ErrUnauthorized)},
		Processor: processor,
	}

	rec := postWebhook(h, `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if len(processor.events) != 0 {
		t.Error("engine must not run on a rejected signature")
	}
}

func TestWebhookRejectsUndecodablePayload(t *testing.T) {
	processor := &fakeProcessor{}
	h := &WebhookHandler{Verifier: fakeVerifier{}, Processor: processor}

	rec := postWebhook(h, `not json at all`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(processor.events) != 0 {
		t.Error("engine must not run on an undecodable payload")
	}
}

func TestWebhookAcksProcessedEvent(t *testing.T) {
	processor := &fakeProcessor{}
	h := &WebhookHandler{Verifier: fakeVerifier{}, Processor: processor}

	rec := postWebhook(h, `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(processor.events) != 1 {
		t.Fatalf("events handled = %d, want 1", len(processor.events))
	}
	evt, ok := processor.events[0].(models.PaymentIntentSucceeded)
	if !ok || evt.IntentID != "pi_1" {
		t.Errorf("decoded event = %#v", processor.events[0])
	}
}

func TestWebhookAnswersNon200OnProcessingError(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("db down")}
	h := &WebhookHandler{Verifier: fakeVerifier{}, Processor: processor}

	rec := postWebhook(h, `{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{"id":"in_1"}}}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 so the gateway redelivers", rec.Code)
	}
}
