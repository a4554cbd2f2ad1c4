package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"qamqorBack/internal/models"
)

const defaultStripeBaseURL = "https://api.stripe.com"

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// BaseURL overrides the API host, used by tests.
	BaseURL  string
	Currency string
	Client   *http.Client
	Logger   *slog.Logger
}

// StripeService is an HTTP client for a Stripe-style processor implementing
// PaymentGateway. Calls are form-encoded; every mutating call carries an
// Idempotency-Key so gateway-side retries cannot duplicate objects.
type StripeService struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	currency      string
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewStripeService(cfg StripeConfig) (*StripeService, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" || strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("stripe: secret_key and webhook_secret are required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultStripeBaseURL
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeService{
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		currency:      currency,
		httpClient:    client,
		logger:        logger,
	}, nil
}

// StripeError carries a non-2xx API response.
type StripeError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StripeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("stripe error: %s", e.Status)
	}
	return fmt.Sprintf("stripe error: %s: %s", e.Status, body)
}

func (s *StripeService) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	s.logger.Debug("stripe response", "method", method, "path", path, "status", resp.Status)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StripeError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}
	return nil
}

func (s *StripeService) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	form := url.Values{}
	if email != "" {
		form.Set("email", email)
	}
	if name != "" {
		form.Set("name", name)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/v1/customers", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *StripeService) CreateEphemeralKey(ctx context.Context, customerID string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	var out struct {
		Secret string `json:"secret"`
	}
	if err := s.do(ctx, http.MethodPost, "/v1/ephemeral_keys", form, &out); err != nil {
		return "", err
	}
	return out.Secret, nil
}

type stripeIntent struct {
	ID            string `json:"id"`
	ClientSecret  string `json:"client_secret"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Customer      string `json:"customer"`
	PaymentMethod string `json:"payment_method"`
}

func (pi stripeIntent) toIntent() PaymentIntent {
	return PaymentIntent{
		ID:              pi.ID,
		ClientSecret:    pi.ClientSecret,
		Status:          pi.Status,
		Amount:          pi.Amount,
		CustomerID:      pi.Customer,
		PaymentMethodID: pi.PaymentMethod,
	}
}

func (s *StripeService) CreatePaymentIntent(ctx context.Context, customerID string, amount int64, metadata map[string]string) (PaymentIntent, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", s.currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}
	var out stripeIntent
	if err := s.do(ctx, http.MethodPost, "/v1/payment_intents", form, &out); err != nil {
		return PaymentIntent{}, err
	}
	return out.toIntent(), nil
}

func (s *StripeService) GetPaymentIntent(ctx context.Context, id string) (PaymentIntent, error) {
	var out stripeIntent
	if err := s.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, &out); err != nil {
		return PaymentIntent{}, err
	}
	return out.toIntent(), nil
}

func (s *StripeService) CreatePrice(ctx context.Context, amount int64, interval string) (string, error) {
	form := url.Values{}
	form.Set("unit_amount", strconv.FormatInt(amount, 10))
	form.Set("currency", s.currency)
	form.Set("recurring[interval]", interval)
	form.Set("product_data[name]", "Recurring donation")
	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/v1/prices", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

type stripeSubscription struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Customer string `json:"customer"`
	Items    struct {
		Data []struct {
			ID    string `json:"id"`
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	LatestInvoice struct {
		PaymentIntent struct {
			ClientSecret string `json:"client_secret"`
		} `json:"payment_intent"`
	} `json:"latest_invoice"`
}

func (sub stripeSubscription) toSubscription() GatewaySubscription {
	out := GatewaySubscription{
		ID:           sub.ID,
		Status:       sub.Status,
		CustomerID:   sub.Customer,
		ClientSecret: sub.LatestInvoice.PaymentIntent.ClientSecret,
	}
	if len(sub.Items.Data) > 0 {
		out.ItemID = sub.Items.Data[0].ID
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}

func (s *StripeService) CreateSubscription(ctx context.Context, customerID, priceID string) (GatewaySubscription, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("items[0][price]", priceID)
	form.Set("payment_behavior", "default_incomplete")
	form.Set("expand[0]", "latest_invoice.payment_intent")
	var out stripeSubscription
	if err := s.do(ctx, http.MethodPost, "/v1/subscriptions", form, &out); err != nil {
		return GatewaySubscription{}, err
	}
	return out.toSubscription(), nil
}

func (s *StripeService) GetSubscription(ctx context.Context, id string) (GatewaySubscription, error) {
	var out stripeSubscription
	if err := s.do(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(id), nil, &out); err != nil {
		return GatewaySubscription{}, err
	}
	return out.toSubscription(), nil
}

// SwapSubscriptionPrice replaces the single subscription item with a new
// price, used for amount or interval changes.
func (s *StripeService) SwapSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) error {
	sub, err := s.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.ItemID == "" {
		return fmt.Errorf("stripe: subscription %s has no items", subscriptionID)
	}
	form := url.Values{}
	form.Set("items[0][id]", sub.ItemID)
	form.Set("items[0][price]", priceID)
	form.Set("proration_behavior", "none")
	return s.do(ctx, http.MethodPost, "/v1/subscriptions/"+url.PathEscape(subscriptionID), form, nil)
}

// PauseCollection suspends or resumes billing without deleting the
// subscription.
func (s *StripeService) PauseCollection(ctx context.Context, subscriptionID string, paused bool) error {
	form := url.Values{}
	if paused {
		form.Set("pause_collection[behavior]", "void")
	} else {
		form.Set("pause_collection", "")
	}
	return s.do(ctx, http.MethodPost, "/v1/subscriptions/"+url.PathEscape(subscriptionID), form, nil)
}

func (s *StripeService) SetDefaultPaymentMethod(ctx context.Context, customerID, subscriptionID, paymentMethodID string) error {
	form := url.Values{}
	form.Set("customer", customerID)
	err := s.do(ctx, http.MethodPost, "/v1/payment_methods/"+url.PathEscape(paymentMethodID)+"/attach", form, nil)
	if err != nil {
		// Already-attached methods come back as a 4xx; attaching is
		// still required for fresh cards, so only that case is fatal.
		var apiErr *StripeError
		if !(errors.As(err, &apiErr) && apiErr.StatusCode < 500) {
			return err
		}
	}

	form = url.Values{}
	form.Set("default_payment_method", paymentMethodID)
	if err := s.do(ctx, http.MethodPost, "/v1/subscriptions/"+url.PathEscape(subscriptionID), form, nil); err != nil {
		return err
	}

	form = url.Values{}
	form.Set("invoice_settings[default_payment_method]", paymentMethodID)
	return s.do(ctx, http.MethodPost, "/v1/customers/"+url.PathEscape(customerID), form, nil)
}

// VerifySignature checks the webhook signature header, formatted as
// "t=<unix>,v1=<hex hmac>" with the HMAC-SHA256 taken over "<unix>.<body>".
func (s *StripeService) VerifySignature(payload []byte, header string) error {
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return fmt.Errorf("%w: malformed webhook signature header", models.ErrUnauthorized)
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(sig)
	if err != nil || !hmac.Equal(expected, got) {
		return fmt.Errorf("%w: webhook signature mismatch", models.ErrUnauthorized)
	}
	return nil
}
