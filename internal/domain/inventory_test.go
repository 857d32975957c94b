package domain

import (
	"errors"
	"testing"
	"time"
)

func record(current, reserved int, price float64) *InventoryRecord {
	return &InventoryRecord{
		ProductID:     "p1",
		OwnerID:       "r1",
		CurrentStock:  current,
		ReservedStock: reserved,
		SellingPrice:  price,
	}
}

func TestReserveChecksAvailability(t *testing.T) {
	r := record(10, 8, 100)
	if !r.Reserve(2) {
		t.Fatalf("expected reserve of 2 with 2 available to succeed")
	}
	if r.Reserve(1) {
		t.Fatalf("expected reserve beyond availability to fail")
	}
	if r.ReservedStock > r.CurrentStock {
		t.Fatalf("reservedStock %d exceeds currentStock %d", r.ReservedStock, r.CurrentStock)
	}
}

func TestReserveRejectsNonPositive(t *testing.T) {
	r := record(10, 0, 100)
	if r.Reserve(0) || r.Reserve(-3) {
		t.Fatalf("expected non-positive quantities to be rejected")
	}
}

func TestReserveThenReleaseRestoresCounter(t *testing.T) {
	r := record(10, 3, 100)
	if !r.Reserve(4) {
		t.Fatalf("reserve failed")
	}
	r.Release(4)
	if r.ReservedStock != 3 {
		t.Fatalf("expected reservedStock 3 after release, got %d", r.ReservedStock)
	}
}

func TestReleaseNeverGoesNegative(t *testing.T) {
	r := record(10, 2, 100)
	r.Release(5)
	if r.ReservedStock != 0 {
		t.Fatalf("expected reservedStock 0, got %d", r.ReservedStock)
	}
}

func TestConfirmDecrementsBothCounters(t *testing.T) {
	r := record(10, 4, 100)
	if err := r.Confirm(3); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if r.CurrentStock != 7 || r.ReservedStock != 1 {
		t.Fatalf("expected 7/1 after confirm, got %d/%d", r.CurrentStock, r.ReservedStock)
	}
}

func TestConfirmFailsWithoutReservation(t *testing.T) {
	r := record(10, 2, 100)
	if err := r.Confirm(3); !errors.Is(err, ErrInsufficientReservation) {
		t.Fatalf("expected ErrInsufficientReservation, got %v", err)
	}
	if r.CurrentStock != 10 || r.ReservedStock != 2 {
		t.Fatalf("counters must be untouched on failure, got %d/%d", r.CurrentStock, r.ReservedStock)
	}
}

func window(now time.Time) (time.Time, time.Time) {
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestPriceForPercentageDiscount(t *testing.T) {
	now := time.Now()
	from, until := window(now)
	r := record(100, 0, 100)
	r.Discounts = []Discount{{
		Type:        DiscountPercentage,
		Value:       10,
		MinPurchase: 150,
		ValidFrom:   from,
		ValidUntil:  until,
		IsActive:    true,
	}}

	// 100 * 2 = 200, 10% off = 180
	if got := r.PriceFor(2, now); got != 180 {
		t.Fatalf("expected 180, got %v", got)
	}
	// Subtotal 100 misses minPurchase 150
	if got := r.PriceFor(1, now); got != 100 {
		t.Fatalf("expected 100 without discount, got %v", got)
	}
}

func TestPriceForAppliesDiscountsInOrderWithCaps(t *testing.T) {
	now := time.Now()
	from, until := window(now)
	r := record(100, 0, 50)
	r.Discounts = []Discount{
		{Type: DiscountPercentage, Value: 20, MaxDiscount: 15, ValidFrom: from, ValidUntil: until, IsActive: true},
		{Type: DiscountFixedAmount, Value: 10, ValidFrom: from, ValidUntil: until, IsActive: true},
	}

	// 50*4 = 200; 20% = 40 capped at 15 -> 185; minus 10 -> 175
	if got := r.PriceFor(4, now); got != 175 {
		t.Fatalf("expected 175, got %v", got)
	}
}

func TestPriceForIgnoresInvalidAndUnpricedDiscounts(t *testing.T) {
	now := time.Now()
	from, until := window(now)
	r := record(100, 0, 100)
	r.Discounts = []Discount{
		{Type: DiscountPercentage, Value: 50, ValidFrom: from, ValidUntil: until, IsActive: false},
		{Type: DiscountPercentage, Value: 50, ValidFrom: now.Add(time.Hour), ValidUntil: now.Add(2 * time.Hour), IsActive: true},
		{Type: DiscountBuyOneGetOne, Value: 1, ValidFrom: from, ValidUntil: until, IsActive: true},
		{Type: DiscountFreeShipping, Value: 1, ValidFrom: from, ValidUntil: until, IsActive: true},
	}
	if got := r.PriceFor(1, now); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestPriceForValidUntilIsExclusive(t *testing.T) {
	now := time.Now()
	r := record(100, 0, 100)
	r.Discounts = []Discount{{
		Type:       DiscountFixedAmount,
		Value:      10,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now,
		IsActive:   true,
	}}
	if got := r.PriceFor(1, now); got != 100 {
		t.Fatalf("discount valid until now must not apply at now, got %v", got)
	}
}

func TestPriceForFlooredAtZero(t *testing.T) {
	now := time.Now()
	from, until := window(now)
	r := record(100, 0, 5)
	r.Discounts = []Discount{{
		Type:       DiscountFixedAmount,
		Value:      50,
		ValidFrom:  from,
		ValidUntil: until,
		IsActive:   true,
	}}
	if got := r.PriceFor(1, now); got != 0 {
		t.Fatalf("expected price floored at 0, got %v", got)
	}
}
