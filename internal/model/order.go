package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
// The transitions are owned by the storefront backend; they are mirrored
// here only so seeded orders stay within states the backend could produce.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusConfirmed       OrderStatus = "CONFIRMED"
	OrderStatusProcessing      OrderStatus = "PROCESSING"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAwaitingPayment,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusAwaitingPayment, OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusAwaitingPayment: {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:       {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:         {OrderStatusDelivered},
	OrderStatusDelivered:       {OrderStatusCompleted},
	OrderStatusCompleted:       nil,
	OrderStatusCancelled:       nil,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the backend allows s -> next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// PathFrom returns the shortest transition path from -> to, both ends included.
// It returns ErrStatusUnreachable if no path exists.
func PathFrom(from, to OrderStatus) ([]OrderStatus, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrStatusUnreachable, from, to)
	}

	prev := map[OrderStatus]OrderStatus{from: from}
	queue := []OrderStatus{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			break
		}
		for _, next := range orderTransitions[cur] {
			if _, seen := prev[next]; !seen {
				prev[next] = cur
				queue = append(queue, next)
			}
		}
	}

	if _, ok := prev[to]; !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrStatusUnreachable, from, to)
	}

	path := []OrderStatus{to}
	for cur := to; cur != from; {
		cur = prev[cur]
		path = append([]OrderStatus{cur}, path...)
	}
	return path, nil
}

// PaymentMethod is how an order is paid
type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodBitcoin PaymentMethod = "bitcoin"
)

// OrderItem is one line of an order
type OrderItem struct {
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity * unit price
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StatusChange is one entry of an order's status history
type StatusChange struct {
	Status OrderStatus `json:"status"`
	At     time.Time   `json:"at"`
}

// Order is an order fixture and its persisted form
type Order struct {
	ID             string          `json:"id,omitempty"`
	Number         string          `json:"number"`
	OwnerEmail     string          `json:"owner_email"`
	Status         OrderStatus     `json:"status"`
	History        []StatusChange  `json:"history,omitempty"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	Items          []OrderItem     `json:"items"`
	Total          decimal.Decimal `json:"total"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	BatchID        string          `json:"batch_id,omitempty"`
	SeedTag        string          `json:"seed_tag,omitempty"`
}

// ItemsTotal sums the order lines
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ValidateSeedable checks the order describes a state the backend could have reached
func (o *Order) ValidateSeedable() error {
	fail := func(field, msg string) error {
		return &ValidationError{Field: field, Message: msg, Value: o.Number}
	}

	if o.Number == "" {
		return &ValidationError{Field: "number", Message: "is required"}
	}
	if o.OwnerEmail == "" {
		return fail("owner_email", "is required")
	}
	if _, err := PathFrom(OrderStatusPending, o.Status); err != nil {
		return fmt.Errorf("%s: %w", o.Number, err)
	}
	if o.PaymentMethod != PaymentMethodCard && o.PaymentMethod != PaymentMethodBitcoin {
		return fail("payment_method", "must be card or bitcoin")
	}
	if len(o.Items) == 0 {
		return fail("items", "must not be empty")
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 || !item.UnitPrice.IsPositive() {
			return fail("items", fmt.Sprintf("line %s must have positive quantity and price", item.SKU))
		}
	}
	if !o.Total.Equal(o.ItemsTotal()) {
		return fail("total", fmt.Sprintf("%s does not match items %s", o.Total, o.ItemsTotal()))
	}

	switch o.Status {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCompleted:
		if o.TrackingNumber == "" {
			return fail("tracking_number", "is required once shipped")
		}
	case OrderStatusAwaitingPayment:
		// Card payments are captured synchronously; only Bitcoin orders wait
		if o.PaymentMethod != PaymentMethodBitcoin {
			return fail("payment_method", "must be bitcoin while awaiting payment")
		}
	}
	return nil
}

// BuildHistory returns the status history the backend would have recorded,
// one step per minute ending at end.
func (o *Order) BuildHistory(end time.Time) ([]StatusChange, error) {
	path, err := PathFrom(OrderStatusPending, o.Status)
	if err != nil {
		return nil, err
	}
	history := make([]StatusChange, len(path))
	for i, s := range path {
		history[i] = StatusChange{
			Status: s,
			At:     end.Add(-time.Duration(len(path)-1-i) * time.Minute),
		}
	}
	return history, nil
}
