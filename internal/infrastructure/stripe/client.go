// Package stripe is a minimal client for the payment provider's intent,
// refund and webhook APIs. Only the fields the order flow consumes are
// modeled.
package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fooddash-backend/internal/domain"
	"fooddash-backend/internal/usecase"
)

const defaultBaseURL = "https://api.stripe.com"

type Client struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Tolerance     time.Duration
	HTTP          *http.Client
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return defaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Client) tolerance() time.Duration {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return 5 * time.Minute
}

// Mock reports whether the client runs without provider credentials and
// fabricates intents/refunds locally.
func (c *Client) Mock() bool { return c.SecretKey == "" }

type intentResp struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*domain.PaymentIntent, error) {
	if c.Mock() {
		id := "pi_mock_" + randomID()
		return &domain.PaymentIntent{ID: id, ClientSecret: id + "_secret_" + randomID()}, nil
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var out intentResp
	if err := c.post(ctx, "/v1/payment_intents", form, &out); err != nil {
		return nil, err
	}
	if out.ID == "" || out.ClientSecret == "" {
		return nil, fmt.Errorf("stripe: payment intent response incomplete")
	}
	return &domain.PaymentIntent{ID: out.ID, ClientSecret: out.ClientSecret}, nil
}

type refundResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) Refund(ctx context.Context, intentID string) (*domain.PaymentRefund, error) {
	if intentID == "" {
		return nil, fmt.Errorf("stripe: intent id required")
	}
	if c.Mock() {
		return &domain.PaymentRefund{ID: "re_mock_" + randomID(), Status: "succeeded"}, nil
	}

	form := url.Values{}
	form.Set("payment_intent", intentID)

	var out refundResp
	if err := c.post(ctx, "/v1/refunds", form, &out); err != nil {
		return nil, err
	}
	return &domain.PaymentRefund{ID: out.ID, Status: out.Status}, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return usecase.GatewayUnavailableError{Op: path, Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 500 {
		return usecase.GatewayUnavailableError{Op: path, Err: fmt.Errorf("provider returned %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stripe: %s failed: %s", path, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Amount   int64             `json:"amount"`
			Currency string            `json:"currency"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the provider's signature header
// ("t=<unix>,v1=<hex hmac>") against the raw payload and parses the event.
// The signed message is "<t>.<payload>" under HMAC-SHA256 with the webhook
// secret; the timestamp must be within the tolerance window.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (*domain.PaymentEvent, error) {
	if c.WebhookSecret == "" {
		return nil, usecase.AuthenticationError("webhook secret not configured")
	}
	ts, sigs, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, usecase.AuthenticationError(err.Error())
	}
	age := time.Since(time.Unix(ts, 0))
	if age > c.tolerance() || age < -c.tolerance() {
		return nil, usecase.AuthenticationError("webhook timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(c.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	verified := false
	for _, sig := range sigs {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, usecase.AuthenticationError("webhook signature verification failed")
	}

	var ev webhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, usecase.AuthenticationError("webhook payload is not valid JSON")
	}
	return &domain.PaymentEvent{
		ID:          ev.ID,
		Type:        ev.Type,
		IntentID:    ev.Data.Object.ID,
		AmountMinor: ev.Data.Object.Amount,
		Currency:    ev.Data.Object.Currency,
		Metadata:    ev.Data.Object.Metadata,
	}, nil
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if strings.TrimSpace(header) == "" {
		return 0, nil, fmt.Errorf("signature header required")
	}
	var (
		ts   int64
		sigs []string
	)
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			v, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("invalid signature timestamp")
			}
			ts = v
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, fmt.Errorf("signature header incomplete")
	}
	return ts, sigs, nil
}

// SignPayload produces a valid signature header for a payload. Used by the
// mock flow and by tests standing in for the provider.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func randomID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(b)
}
