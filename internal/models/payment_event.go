package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BillingReasonSubscriptionCreate marks the first invoice of a new
// subscription on the gateway's wire format.
const BillingReasonSubscriptionCreate = "subscription_create"

// PaymentEvent is the tagged union over the webhook event kinds the
// reconciliation engine understands. Payloads are decoded once at the
// boundary; anything unrecognised becomes OtherEvent and is ignored.
type PaymentEvent interface {
	EventID() string
}

// SubscriptionInvoiceCreated is emitted when the gateway opens an invoice for
// a subscription. Only the first invoice (billing_reason subscription_create)
// triggers payment-method attachment.
type SubscriptionInvoiceCreated struct {
	ID              string
	InvoiceID       string
	SubscriptionID  string
	CustomerID      string
	PaymentIntentID string
	BillingReason   string
}

// InvoicePaid is emitted when a recurring invoice has been collected.
type InvoicePaid struct {
	ID             string
	InvoiceID      string
	SubscriptionID string
	AmountPaid     int64
}

// PaymentIntentSucceeded is emitted when a one-off charge completes.
type PaymentIntentSucceeded struct {
	ID       string
	IntentID string
}

// PaymentIntentFailed is emitted when a one-off charge is declined.
type PaymentIntentFailed struct {
	ID       string
	IntentID string
}

// OtherEvent covers every event kind the engine does not act on.
type OtherEvent struct {
	ID   string
	Type string
}

func (e SubscriptionInvoiceCreated) EventID() string { return e.ID }
func (e InvoicePaid) EventID() string                { return e.ID }
func (e PaymentIntentSucceeded) EventID() string     { return e.ID }
func (e PaymentIntentFailed) EventID() string        { return e.ID }
func (e OtherEvent) EventID() string                 { return e.ID }

type rawEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type rawInvoice struct {
	ID            string `json:"id"`
	Subscription  string `json:"subscription"`
	Customer      string `json:"customer"`
	PaymentIntent string `json:"payment_intent"`
	BillingReason string `json:"billing_reason"`
	AmountPaid    int64  `json:"amount_paid"`
}

type rawIntent struct {
	ID string `json:"id"`
}

// DecodePaymentEvent parses a webhook payload into the event union.
func DecodePaymentEvent(data []byte) (PaymentEvent, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode payment event: %w", err)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("decode payment event: missing event id")
	}

	switch raw.Type {
	case "invoice.created":
		var inv rawInvoice
		if err := json.Unmarshal(raw.Data.Object, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice object: %w", err)
		}
		return SubscriptionInvoiceCreated{
			ID:              raw.ID,
			InvoiceID:       inv.ID,
			SubscriptionID:  inv.Subscription,
			CustomerID:      inv.Customer,
			PaymentIntentID: inv.PaymentIntent,
			BillingReason:   inv.BillingReason,
		}, nil
	case "invoice.payment_succeeded":
		var inv rawInvoice
		if err := json.Unmarshal(raw.Data.Object, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice object: %w", err)
		}
		return InvoicePaid{
			ID:             raw.ID,
			InvoiceID:      inv.ID,
			SubscriptionID: inv.Subscription,
			AmountPaid:     inv.AmountPaid,
		}, nil
	case "payment_intent.succeeded":
		var pi rawIntent
		if err := json.Unmarshal(raw.Data.Object, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent object: %w", err)
		}
		return PaymentIntentSucceeded{ID: raw.ID, IntentID: pi.ID}, nil
	case "payment_intent.payment_failed":
		var pi rawIntent
		if err := json.Unmarshal(raw.Data.Object, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent object: %w", err)
		}
		return PaymentIntentFailed{ID: raw.ID, IntentID: pi.ID}, nil
	default:
		return OtherEvent{ID: raw.ID, Type: raw.Type}, nil
	}
}
