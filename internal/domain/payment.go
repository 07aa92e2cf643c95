package domain

// PaymentIntent is the gateway-side handle for an in-progress charge. The
// client secret goes back to the caller so payment can be completed client-side.
type PaymentIntent struct {
	ID           string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
}

type PaymentRefund struct {
	ID     string `json:"refundId"`
	Status string `json:"status"`
}

// PaymentEvent is a verified webhook event from the payment provider.
// AmountMinor is in the smallest currency unit.
type PaymentEvent struct {
	ID          string
	Type        string
	IntentID    string
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}
