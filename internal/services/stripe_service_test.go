package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qamqorBack/internal/models"
)

func newTestStripe(t *testing.T, baseURL string) *StripeService {
	t.Helper()
	svc, err := NewStripeService(StripeConfig{
		SecretKey:     "sk_test_1",
		WebhookSecret: "whsec_1",
		BaseURL:       baseURL,
	})
	if err != nil {
		t.Fatalf("NewStripeService: %v", err)
	}
	return svc
}

func signPayload(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	svc := newTestStripe(t, "http://unused")
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	ts := time.Now().Unix()

	if err := svc.VerifySignature(payload, signPayload("whsec_1", ts, payload)); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}

	bad := []struct {
		name   string
		header string
	}{
		{"wrong secret", signPayload("whsec_other", ts, payload)},
		{"tampered payload", signPayload("whsec_1", ts, []byte(`{"id":"evt_2"}`))},
		{"missing parts", "t=123"},
		{"garbage", "nonsense"},
		{"empty", ""},
	}
	for _, c := range bad {
		err := svc.VerifySignature(payload, c.header)
		if err == nil {
			t.Errorf("%s: signature accepted", c.name)
			continue
		}
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("%s: err = %v, want ErrUnauthorized", c.name, err)
		}
	}
}

func TestCreatePaymentIntentRequest(t *testing.T) {
	var gotAuth, gotIdempotency string
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotIdempotency = r.Header.Get("Idempotency-Key")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = r.PostForm
		fmt.Fprint(w, `{"id":"pi_1","client_secret":"cs_1","status":"requires_payment_method","amount":1000,"customer":"cus_1"}`)
	}))
	defer srv.Close()

	svc := newTestStripe(t, srv.URL)
	pi, err := svc.CreatePaymentIntent(context.Background(), "cus_1", 1000, map[string]string{"user_id": "42"})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}

	if pi.ID != "pi_1" || pi.ClientSecret != "cs_1" || pi.Amount != 1000 {
		t.Errorf("unexpected intent: %+v", pi)
	}
	if gotAuth != "Bearer sk_test_1" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotIdempotency == "" {
		t.Error("mutating call sent without Idempotency-Key")
	}
	if got := gotForm["amount"]; len(got) != 1 || got[0] != "1000" {
		t.Errorf("amount form field = %v", got)
	}
	if got := gotForm["metadata[user_id]"]; len(got) != 1 || got[0] != "42" {
		t.Errorf("metadata form field = %v", got)
	}
}

func TestDoSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"code":"card_declined"}}`)
	}))
	defer srv.Close()

	svc := newTestStripe(t, srv.URL)
	_, err := svc.GetPaymentIntent(context.Background(), "pi_1")
	var apiErr *StripeError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *StripeError", err)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}

func TestGetSubscriptionDecodesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id": "sub_1",
			"status": "active",
			"customer": "cus_1",
			"items": {"data": [{"id": "si_1", "price": {"id": "price_1"}}]},
			"latest_invoice": {"payment_intent": {"client_secret": "cs_1"}}
		}`)
	}))
	defer srv.Close()

	svc := newTestStripe(t, srv.URL)
	sub, err := svc.GetSubscription(context.Background(), "sub_1")
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if sub.Status != SubscriptionStatusActive || sub.ItemID != "si_1" || sub.PriceID != "price_1" {
		t.Errorf("unexpected subscription: %+v", sub)
	}
	if sub.ClientSecret != "cs_1" {
		t.Errorf("client secret = %q", sub.ClientSecret)
	}
}

func TestNewStripeServiceRequiresSecrets(t *testing.T) {
	if _, err := NewStripeService(StripeConfig{WebhookSecret: "whsec"}); err == nil {
		t.Error("missing secret key accepted")
	}
	if _, err := NewStripeService(StripeConfig{SecretKey: "sk"}); err == nil {
		t.Error("missing webhook secret accepted")
	}
}
