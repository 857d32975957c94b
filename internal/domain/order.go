package domain

import "time"

// OrderStatus enumerates the forward-moving order states.
type OrderStatus string

const (
	OrderPending        OrderStatus = "PENDING"
	OrderConfirmed      OrderStatus = "CONFIRMED"
	OrderProcessing     OrderStatus = "PROCESSING"
	OrderShipped        OrderStatus = "SHIPPED"
	OrderOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderDelivered      OrderStatus = "DELIVERED"
	OrderCancelled      OrderStatus = "CANCELLED"
	OrderReturned       OrderStatus = "RETURNED"
)

// forwardRank orders the non-terminal progression. Terminal states have no
// rank.
var forwardRank = map[OrderStatus]int{
	OrderPending:        0,
	OrderConfirmed:      1,
	OrderProcessing:     2,
	OrderShipped:        3,
	OrderOutForDelivery: 4,
	OrderDelivered:      5,
}

// Terminal reports whether s admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled || s == OrderReturned
}

// PaymentStatus enumerates payment states.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// OrderItem is an immutable snapshot of price and quantity at order time.
type OrderItem struct {
	ProductID string  `json:"productId"`
	OwnerID   string  `json:"ownerId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"` // discounted total at order time
}

// StatusEntry is one append-only history record. Entries are never mutated or
// removed; they drive audit and tracking display.
type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note,omitempty"`
}

// Order is the order aggregate: embedded line items plus status and payment
// state machines. Once a terminal status is reached the order is immutable.
type Order struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customerId"`
	RetailerID    string        `json:"retailerId"`
	Items         []OrderItem   `json:"items"`
	Total         float64       `json:"total"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	History       []StatusEntry `json:"history"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// CanTransition reports whether moving from the current status to next is
// legal: strictly forward along the delivery progression, or to
// CANCELLED/RETURNED from any non-terminal state.
func (o *Order) CanTransition(next OrderStatus) bool {
	if o.Status.Terminal() {
		return false
	}
	if next == OrderCancelled || next == OrderReturned {
		return true
	}
	from, okFrom := forwardRank[o.Status]
	to, okTo := forwardRank[next]
	return okFrom && okTo && to == from+1
}

// TransitionTo applies a status change, appending an immutable history entry.
func (o *Order) TransitionTo(next OrderStatus, note string, now time.Time) error {
	if !o.CanTransition(next) {
		return ErrInvalidTransition
	}
	o.Status = next
	o.UpdatedAt = now
	o.History = append(o.History, StatusEntry{Status: next, Timestamp: now, Note: note})
	return nil
}

// Cancel moves the order to CANCELLED and marks the payment cancelled. Fails
// with ErrInvalidTransition once the order is DELIVERED or otherwise terminal.
func (o *Order) Cancel(note string, now time.Time) error {
	if err := o.TransitionTo(OrderCancelled, note, now); err != nil {
		return err
	}
	o.PaymentStatus = PaymentCancelled
	return nil
}

// Shipped reports whether stock for this order has already been consumed:
// reservations are confirmed when the order ships.
func (o *Order) Shipped() bool {
	for _, e := range o.History {
		if e.Status == OrderShipped {
			return true
		}
	}
	return false
}

// OrderRepository defines data access for orders. Save persists the aggregate
// including any newly appended history entries.
type OrderRepository interface {
	Create(order *Order) error
	GetByID(id string) (*Order, error)
	Save(order *Order) error
	ListByCustomer(customerID string) ([]*Order, error)
	ListByRetailer(retailerID string) ([]*Order, error)
	// ListStalePending returns PENDING orders created before the cutoff.
	ListStalePending(cutoff time.Time) ([]*Order, error)
}
