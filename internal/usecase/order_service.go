package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"fooddash-backend/internal/domain"
)

type OrderRepo interface {
	Put(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, bool, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListByRestaurants(ctx context.Context, restaurantIDs []string) ([]domain.Order, error)
}

type MenuItemRepo interface {
	Get(ctx context.Context, id string) (*domain.MenuItem, bool, error)
}

type RestaurantRepo interface {
	Get(ctx context.Context, id string) (*domain.Restaurant, bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Restaurant, error)
}

// PaymentGateway wraps the external payment provider. Amounts cross this
// boundary in the smallest currency unit.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*domain.PaymentIntent, error)
	Refund(ctx context.Context, intentID string) (*domain.PaymentRefund, error)
	VerifyWebhook(payload []byte, sigHeader string) (*domain.PaymentEvent, error)
}

// EventPublisher is the fire-and-forget side of the notification bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic, name string, payload map[string]any) error
}

const (
	TopicRestaurantPrefix = "restaurant:"
	TopicOrderPrefix      = "order:"

	EventNewOrder          = "new_order"
	EventOrderStatusUpdate = "order_status_update"
	EventOrderCancelled    = "order_cancelled"
)

func RestaurantTopic(restaurantID string) string { return TopicRestaurantPrefix + restaurantID }
func OrderTopic(orderID string) string           { return TopicOrderPrefix + orderID }

type CreateOrderItem struct {
	MenuItemID string
	Quantity   int
}

type CreateOrderInput struct {
	RestaurantID    string
	Items           []CreateOrderItem
	DeliveryAddress domain.Address
	Tip             decimal.Decimal
}

type OrderService struct {
	Orders      OrderRepo
	Menu        MenuItemRepo
	Restaurants RestaurantRepo
	Gateway     PaymentGateway
	Bus         EventPublisher
	Log         logrus.FieldLogger

	TaxRate     decimal.Decimal
	DeliveryFee decimal.Decimal
	Currency    string
	PrepWindow  time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lockOrder serializes mutations per order ID. Reads stay lock-free.
func (s *OrderService) lockOrder(id string) func() {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// CreateOrder validates the restaurant and items, snapshots prices, computes
// the totals, creates the payment intent and only then persists the order.
// A gateway failure aborts the whole operation with nothing committed.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, in CreateOrderInput) (*domain.Order, string, error) {
	if len(in.Items) == 0 {
		return nil, "", ValidationError("order must contain at least one item")
	}
	if in.Tip.IsNegative() {
		return nil, "", ValidationError("tip cannot be negative")
	}

	restaurant, ok, err := s.Restaurants.Get(ctx, in.RestaurantID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", NotFoundError("restaurant not found")
	}
	if !restaurant.IsActive {
		return nil, "", ValidationError("restaurant is not accepting orders")
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, "", ValidationError(fmt.Sprintf("invalid quantity for menu item %s", it.MenuItemID))
		}
		menuItem, ok, err := s.Menu.Get(ctx, it.MenuItemID)
		if err != nil {
			return nil, "", err
		}
		if !ok || menuItem.RestaurantID != restaurant.RestaurantID {
			return nil, "", NotFoundError(fmt.Sprintf("menu item %s not found", it.MenuItemID))
		}
		if !menuItem.IsAvailable {
			return nil, "", UnavailableItemError{MenuItemID: menuItem.MenuItemID, Name: menuItem.Name}
		}
		items = append(items, domain.OrderItem{
			MenuItemID: menuItem.MenuItemID,
			Name:       menuItem.Name,
			Quantity:   it.Quantity,
			UnitPrice:  menuItem.Price,
		})
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	tax := subtotal.Mul(s.TaxRate)
	tip := in.Tip
	total := subtotal.Add(tax).Add(s.DeliveryFee).Add(tip)

	orderID := uuid.NewString()
	intent, err := s.Gateway.CreateIntent(ctx, toMinorUnits(total), s.Currency, map[string]string{
		"order_id":      orderID,
		"restaurant_id": restaurant.RestaurantID,
		"customer_id":   customerID,
	})
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		OrderID:         orderID,
		CustomerID:      customerID,
		RestaurantID:    restaurant.RestaurantID,
		Items:           items,
		Subtotal:        subtotal,
		Tax:             tax,
		DeliveryFee:     s.DeliveryFee,
		Tip:             tip,
		Total:           total,
		DeliveryAddress: in.DeliveryAddress,
		Status:          domain.OrderPending,
		PaymentStatus:   domain.PaymentPending,
		Payment: domain.PaymentDetails{
			IntentID: intent.ID,
			Amount:   total,
			Currency: s.Currency,
		},
		EstimatedDeliveryTime: now.Add(s.PrepWindow),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.Orders.Put(ctx, order); err != nil {
		return nil, "", err
	}

	s.publish(ctx, RestaurantTopic(order.RestaurantID), EventNewOrder, map[string]any{
		"orderId":      order.OrderID,
		"restaurantId": order.RestaurantID,
	})

	return order, intent.ClientSecret, nil
}

// UpdateOrderStatus moves an order along the strict transition table. Only an
// admin or the owner of the order's restaurant may call it.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, actorID string, role domain.Role, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, ValidationError(fmt.Sprintf("invalid order status %q", next))
	}
	unlock := s.lockOrder(orderID)
	defer unlock()

	order, ok, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFoundError("order not found")
	}
	if err := s.authorizeRestaurantActor(ctx, order.RestaurantID, actorID, role); err != nil {
		return nil, err
	}
	if next == domain.OrderCancelled {
		return nil, InvalidStateError("orders are cancelled through the cancellation flow")
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, InvalidStateError(fmt.Sprintf("cannot transition order from %s to %s", order.Status, next))
	}

	now := time.Now().UTC()
	order.Status = next
	if next == domain.OrderDelivered {
		order.ActualDeliveryTime = &now
	}
	order.UpdatedAt = now
	if err := s.Orders.Put(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, OrderTopic(order.OrderID), EventOrderStatusUpdate, map[string]any{
		"orderId": order.OrderID,
		"status":  string(order.Status),
	})

	return order, nil
}

// CancelOrder cancels a still-pending order on behalf of its customer,
// refunding through the gateway when payment had already completed.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	unlock := s.lockOrder(orderID)
	defer unlock()

	order, ok, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFoundError("order not found")
	}
	if order.CustomerID != actorID {
		return nil, ForbiddenError("you can only cancel your own orders")
	}
	if order.Status != domain.OrderPending {
		return nil, InvalidStateError("cannot cancel order that is already being processed")
	}

	now := time.Now().UTC()
	if order.PaymentStatus == domain.PaymentCompleted {
		if _, err := s.Gateway.Refund(ctx, order.Payment.IntentID); err != nil {
			return nil, err
		}
		order.Refund = &domain.Refund{
			Status:      domain.RefundProcessed,
			Amount:      order.Total,
			ProcessedAt: now,
		}
		order.PaymentStatus = domain.PaymentRefunded
	}

	order.Status = domain.OrderCancelled
	order.UpdatedAt = now
	if err := s.Orders.Put(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, RestaurantTopic(order.RestaurantID), EventOrderCancelled, map[string]any{
		"orderId":      order.OrderID,
		"restaurantId": order.RestaurantID,
	})

	return order, nil
}

// ReconcilePaymentWebhook verifies and applies an asynchronous gateway event.
// Events are idempotent: replays and out-of-order deliveries never regress an
// order that has already reached completed.
func (s *OrderService) ReconcilePaymentWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.Gateway.VerifyWebhook(payload, sigHeader)
	if err != nil {
		return err
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return s.applyPaymentOutcome(ctx, event, domain.PaymentCompleted)
	case "payment_intent.payment_failed", "payment_intent.failed":
		return s.applyPaymentOutcome(ctx, event, domain.PaymentFailed)
	default:
		// Unknown event types are acknowledged and ignored.
		return nil
	}
}

func (s *OrderService) applyPaymentOutcome(ctx context.Context, event *domain.PaymentEvent, outcome domain.PaymentStatus) error {
	orderID := event.Metadata["order_id"]
	if orderID == "" {
		return nil
	}
	unlock := s.lockOrder(orderID)
	defer unlock()

	order, ok, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if order.PaymentStatus == outcome {
		return nil
	}
	// Completed is sticky: a late or replayed failure event cannot undo it.
	if order.PaymentStatus == domain.PaymentCompleted && outcome == domain.PaymentFailed {
		return nil
	}

	now := time.Now().UTC()
	order.PaymentStatus = outcome
	if outcome == domain.PaymentCompleted {
		order.Payment = domain.PaymentDetails{
			IntentID:      event.IntentID,
			TransactionID: event.IntentID,
			Amount:        decimal.New(event.AmountMinor, -2),
			Currency:      event.Currency,
			PaymentTime:   &now,
		}
	}
	order.UpdatedAt = now
	return s.Orders.Put(ctx, order)
}

// GetOrder returns the order if the actor is its customer, the owner of its
// restaurant, or an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID, actorID string, role domain.Role) (*domain.Order, error) {
	order, ok, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFoundError("order not found")
	}
	if role == domain.RoleAdmin || order.CustomerID == actorID {
		return order, nil
	}
	if err := s.authorizeRestaurantActor(ctx, order.RestaurantID, actorID, role); err != nil {
		return nil, ForbiddenError("you do not have permission to view this order")
	}
	return order, nil
}

func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.Orders.ListByCustomer(ctx, customerID)
}

// ListRestaurantOrders returns orders across every restaurant the actor owns.
func (s *OrderService) ListRestaurantOrders(ctx context.Context, actorID string) ([]domain.Order, error) {
	restaurants, err := s.Restaurants.ListByOwner(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(restaurants) == 0 {
		return nil, NotFoundError("no restaurants found for this user")
	}
	ids := make([]string, len(restaurants))
	for i, r := range restaurants {
		ids[i] = r.RestaurantID
	}
	return s.Orders.ListByRestaurants(ctx, ids)
}

// CreatePaymentIntent issues a fresh intent for an existing order, e.g. after
// the client abandoned the first checkout attempt.
func (s *OrderService) CreatePaymentIntent(ctx context.Context, orderID, actorID string) (string, error) {
	unlock := s.lockOrder(orderID)
	defer unlock()

	order, ok, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", NotFoundError("order not found")
	}
	if order.CustomerID != actorID {
		return "", ForbiddenError("you can only pay for your own orders")
	}
	if order.PaymentStatus == domain.PaymentCompleted {
		return "", InvalidStateError("order is already paid")
	}

	intent, err := s.Gateway.CreateIntent(ctx, toMinorUnits(order.Total), s.Currency, map[string]string{
		"order_id":    order.OrderID,
		"customer_id": order.CustomerID,
	})
	if err != nil {
		return "", err
	}

	order.Payment.IntentID = intent.ID
	order.UpdatedAt = time.Now().UTC()
	if err := s.Orders.Put(ctx, order); err != nil {
		return "", err
	}
	return intent.ClientSecret, nil
}

// AuthorizeRestaurantAccess reports whether the actor may watch a
// restaurant's event stream.
func (s *OrderService) AuthorizeRestaurantAccess(ctx context.Context, restaurantID, actorID string, role domain.Role) error {
	return s.authorizeRestaurantActor(ctx, restaurantID, actorID, role)
}

func (s *OrderService) authorizeRestaurantActor(ctx context.Context, restaurantID, actorID string, role domain.Role) error {
	if role == domain.RoleAdmin {
		return nil
	}
	restaurant, ok, err := s.Restaurants.Get(ctx, restaurantID)
	if err != nil {
		return err
	}
	if !ok {
		return NotFoundError("restaurant not found")
	}
	if restaurant.OwnerID != actorID {
		return ForbiddenError("you do not have permission to manage this order")
	}
	return nil
}

func (s *OrderService) publish(ctx context.Context, topic, name string, payload map[string]any) {
	if s.Bus == nil {
		return
	}
	if err := s.Bus.Publish(ctx, topic, name, payload); err != nil && s.Log != nil {
		s.Log.WithError(err).WithFields(logrus.Fields{"topic": topic, "event": name}).
			Warn("failed to publish notification")
	}
}

// toMinorUnits converts a decimal amount to the smallest currency unit,
// rounding to the nearest integer.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
