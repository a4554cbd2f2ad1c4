package services

import "context"

// Gateway subscription status required before recurring credits are applied.
const SubscriptionStatusActive = "active"

// PaymentIntent is the gateway-side record of a one-off charge.
type PaymentIntent struct {
	ID              string
	ClientSecret    string
	Status          string
	Amount          int64
	CustomerID      string
	PaymentMethodID string
}

// GatewaySubscription is the gateway-side record of a recurring plan.
type GatewaySubscription struct {
	ID           string
	Status       string
	CustomerID   string
	ItemID       string
	PriceID      string
	ClientSecret string
}

// PaymentGateway is the capability set the core places on the payment
// processor. The concrete processor is pluggable; the reconciliation engine
// and orchestrator only rely on this call surface.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateEphemeralKey(ctx context.Context, customerID string) (string, error)

	CreatePaymentIntent(ctx context.Context, customerID string, amount int64, metadata map[string]string) (PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (PaymentIntent, error)

	CreatePrice(ctx context.Context, amount int64, interval string) (string, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (GatewaySubscription, error)
	GetSubscription(ctx context.Context, id string) (GatewaySubscription, error)
	SwapSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) error
	PauseCollection(ctx context.Context, subscriptionID string, paused bool) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, subscriptionID, paymentMethodID string) error

	VerifySignature(payload []byte, header string) error
}
