package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fooddash-backend/internal/usecase"
)

const webhookSecret = "whsec_test"

func signedEvent() []byte {
	return []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_1",
			"amount": 3450,
			"currency": "usd",
			"metadata": {"order_id": "order-1"}
		}}
	}`)
}

func TestVerifyWebhook(t *testing.T) {
	c := &Client{WebhookSecret: webhookSecret}
	payload := signedEvent()
	header := SignPayload(payload, webhookSecret, time.Now())

	ev, err := c.VerifyWebhook(payload, header)
	if err != nil {
		t.Fatalf("VerifyWebhook failed: %v", err)
	}
	if ev.Type != "payment_intent.succeeded" || ev.IntentID != "pi_1" {
		t.Errorf("parsed event = %+v", ev)
	}
	if ev.AmountMinor != 3450 || ev.Currency != "usd" {
		t.Errorf("amount/currency = %d/%s", ev.AmountMinor, ev.Currency)
	}
	if ev.Metadata["order_id"] != "order-1" {
		t.Errorf("metadata = %v", ev.Metadata)
	}
}

func TestVerifyWebhookRejections(t *testing.T) {
	c := &Client{WebhookSecret: webhookSecret}
	payload := signedEvent()

	cases := []struct {
		name    string
		payload []byte
		header  string
	}{
		{"missing header", payload, ""},
		{"garbage header", payload, "v0=deadbeef"},
		{"wrong secret", payload, SignPayload(payload, "whsec_other", time.Now())},
		{"tampered payload", []byte(`{"type":"payment_intent.succeeded"}`), SignPayload(payload, webhookSecret, time.Now())},
		{"stale timestamp", payload, SignPayload(payload, webhookSecret, time.Now().Add(-time.Hour))},
		{"future timestamp", payload, SignPayload(payload, webhookSecret, time.Now().Add(time.Hour))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.VerifyWebhook(tc.payload, tc.header)
			var authn usecase.AuthenticationError
			if !errors.As(err, &authn) {
				t.Fatalf("got %v, want AuthenticationError", err)
			}
		})
	}
}

func TestVerifyWebhookNoSecretConfigured(t *testing.T) {
	c := &Client{}
	payload := signedEvent()
	_, err := c.VerifyWebhook(payload, SignPayload(payload, webhookSecret, time.Now()))
	var authn usecase.AuthenticationError
	if !errors.As(err, &authn) {
		t.Fatalf("got %v, want AuthenticationError", err)
	}
}

func TestCreateIntent(t *testing.T) {
	var gotForm map[string]string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Write([]byte(`{"id":"pi_srv_1","client_secret":"pi_srv_1_secret"}`))
	}))
	defer srv.Close()

	c := &Client{SecretKey: "sk_test", BaseURL: srv.URL}
	intent, err := c.CreateIntent(context.Background(), 3450, "usd", map[string]string{"order_id": "order-1"})
	if err != nil {
		t.Fatalf("CreateIntent failed: %v", err)
	}
	if intent.ID != "pi_srv_1" || intent.ClientSecret != "pi_srv_1_secret" {
		t.Errorf("intent = %+v", intent)
	}
	if gotAuth != "Bearer sk_test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotForm["amount"] != "3450" || gotForm["currency"] != "usd" {
		t.Errorf("form = %v", gotForm)
	}
	if gotForm["metadata[order_id]"] != "order-1" {
		t.Errorf("metadata not encoded: %v", gotForm)
	}
}

func TestRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/refunds" {
			t.Errorf("path = %s", r.URL.Path)
		}
		r.ParseForm()
		if r.PostForm.Get("payment_intent") != "pi_1" {
			t.Errorf("payment_intent = %q", r.PostForm.Get("payment_intent"))
		}
		w.Write([]byte(`{"id":"re_1","status":"succeeded"}`))
	}))
	defer srv.Close()

	c := &Client{SecretKey: "sk_test", BaseURL: srv.URL}
	refund, err := c.Refund(context.Background(), "pi_1")
	if err != nil {
		t.Fatalf("Refund failed: %v", err)
	}
	if refund.ID != "re_1" || refund.Status != "succeeded" {
		t.Errorf("refund = %+v", refund)
	}
}

func TestProviderOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{SecretKey: "sk_test", BaseURL: srv.URL}
	_, err := c.CreateIntent(context.Background(), 100, "usd", nil)
	var gatewayErr usecase.GatewayUnavailableError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("5xx: got %v, want GatewayUnavailableError", err)
	}

	srv.Close()
	_, err = c.CreateIntent(context.Background(), 100, "usd", nil)
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("connection refused: got %v, want GatewayUnavailableError", err)
	}
}

func TestProviderClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer srv.Close()

	c := &Client{SecretKey: "sk_test", BaseURL: srv.URL}
	_, err := c.CreateIntent(context.Background(), 100, "usd", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var gatewayErr usecase.GatewayUnavailableError
	if errors.As(err, &gatewayErr) {
		t.Error("4xx misclassified as outage")
	}
	if !strings.Contains(err.Error(), "card declined") {
		t.Errorf("error does not carry provider message: %v", err)
	}
}

func TestMockMode(t *testing.T) {
	c := &Client{WebhookSecret: webhookSecret}
	if !c.Mock() {
		t.Fatal("client with no secret key should be in mock mode")
	}

	intent, err := c.CreateIntent(context.Background(), 100, "usd", nil)
	if err != nil {
		t.Fatalf("mock CreateIntent failed: %v", err)
	}
	if !strings.HasPrefix(intent.ID, "pi_mock_") || intent.ClientSecret == "" {
		t.Errorf("mock intent = %+v", intent)
	}

	refund, err := c.Refund(context.Background(), intent.ID)
	if err != nil {
		t.Fatalf("mock Refund failed: %v", err)
	}
	if !strings.HasPrefix(refund.ID, "re_mock_") {
		t.Errorf("mock refund = %+v", refund)
	}
}
