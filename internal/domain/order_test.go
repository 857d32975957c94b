package domain

import (
	"errors"
	"testing"
	"time"
)

func pendingOrder() *Order {
	now := time.Now()
	return &Order{
		ID:            "o1",
		CustomerID:    "c1",
		RetailerID:    "r1",
		Status:        OrderPending,
		PaymentStatus: PaymentPending,
		History:       []StatusEntry{{Status: OrderPending, Timestamp: now}},
		CreatedAt:     now,
	}
}

func TestForwardProgression(t *testing.T) {
	o := pendingOrder()
	steps := []OrderStatus{
		OrderConfirmed, OrderProcessing, OrderShipped, OrderOutForDelivery, OrderDelivered,
	}
	for _, next := range steps {
		if err := o.TransitionTo(next, "", time.Now()); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}
	if len(o.History) != 6 {
		t.Fatalf("expected 6 history entries, got %d", len(o.History))
	}
}

func TestNoSkippingStates(t *testing.T) {
	o := pendingOrder()
	if err := o.TransitionTo(OrderShipped, "", time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition when skipping states, got %v", err)
	}
}

func TestNoBackwardTransition(t *testing.T) {
	o := pendingOrder()
	if err := o.TransitionTo(OrderConfirmed, "", time.Now()); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if err := o.TransitionTo(OrderPending, "", time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected backward transition to fail, got %v", err)
	}
}

func TestCancelPendingOrder(t *testing.T) {
	o := pendingOrder()
	if err := o.Cancel("customer request", time.Now()); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if o.Status != OrderCancelled {
		t.Fatalf("expected CANCELLED, got %s", o.Status)
	}
	if o.PaymentStatus != PaymentCancelled {
		t.Fatalf("expected payment CANCELLED, got %s", o.PaymentStatus)
	}
	last := o.History[len(o.History)-1]
	if last.Status != OrderCancelled || last.Note != "customer request" {
		t.Fatalf("expected cancellation history entry, got %+v", last)
	}
}

func TestCancelDeliveredOrderFails(t *testing.T) {
	o := pendingOrder()
	for _, next := range []OrderStatus{OrderConfirmed, OrderProcessing, OrderShipped, OrderOutForDelivery, OrderDelivered} {
		if err := o.TransitionTo(next, "", time.Now()); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}
	if err := o.Cancel("", time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition cancelling delivered order, got %v", err)
	}
}

func TestReturnFromAnyNonTerminalState(t *testing.T) {
	o := pendingOrder()
	if err := o.TransitionTo(OrderConfirmed, "", time.Now()); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if err := o.TransitionTo(OrderReturned, "damaged", time.Now()); err != nil {
		t.Fatalf("return failed: %v", err)
	}
	// Terminal: nothing further
	if err := o.TransitionTo(OrderCancelled, "", time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected returned order to be immutable, got %v", err)
	}
}

func TestShippedDetection(t *testing.T) {
	o := pendingOrder()
	if o.Shipped() {
		t.Fatalf("fresh order must not report shipped")
	}
	for _, next := range []OrderStatus{OrderConfirmed, OrderProcessing, OrderShipped} {
		if err := o.TransitionTo(next, "", time.Now()); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}
	if !o.Shipped() {
		t.Fatalf("expected shipped order to report shipped")
	}
}
