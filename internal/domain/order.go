package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo is the strict status table. Cancellation is not part of it:
// cancelled is only reachable through the cancel flow, and only from pending.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderPreparing
	case OrderPreparing:
		return next == OrderReady
	case OrderReady:
		return next == OrderDelivered
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// OrderItem carries the unit price snapshotted from the menu at order time.
// Later menu price changes must never affect an existing order.
type OrderItem struct {
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

type PaymentDetails struct {
	IntentID      string          `json:"providerIntentId"`
	TransactionID string          `json:"transactionId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentTime   *time.Time      `json:"paymentTime,omitempty"`
}

type RefundStatus string

const RefundProcessed RefundStatus = "processed"

type Refund struct {
	Status      RefundStatus    `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	ProcessedAt time.Time       `json:"processedAt"`
}

type Order struct {
	OrderID      string      `json:"orderId"`
	CustomerID   string      `json:"customerId"`
	RestaurantID string      `json:"restaurantId"`
	Items        []OrderItem `json:"items"`

	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Tip         decimal.Decimal `json:"tip"`
	Total       decimal.Decimal `json:"total"`

	DeliveryAddress Address        `json:"deliveryAddress"`
	Status          OrderStatus    `json:"status"`
	PaymentStatus   PaymentStatus  `json:"paymentStatus"`
	Payment         PaymentDetails `json:"paymentDetails"`
	Refund          *Refund        `json:"refund,omitempty"`

	EstimatedDeliveryTime time.Time  `json:"estimatedDeliveryTime"`
	ActualDeliveryTime    *time.Time `json:"actualDeliveryTime,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// ComputedSubtotal recomputes the item sum from the snapshotted unit prices.
func (o *Order) ComputedSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// ComputedTotal must always equal the stored Total.
func (o *Order) ComputedTotal() decimal.Decimal {
	return o.Subtotal.Add(o.Tax).Add(o.DeliveryFee).Add(o.Tip)
}
