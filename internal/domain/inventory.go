package domain

import "time"

// DiscountType enumerates the supported discount kinds.
type DiscountType string

const (
	DiscountPercentage   DiscountType = "PERCENTAGE"
	DiscountFixedAmount  DiscountType = "FIXED_AMOUNT"
	DiscountBuyOneGetOne DiscountType = "BUY_ONE_GET_ONE"
	DiscountFreeShipping DiscountType = "FREE_SHIPPING"
)

// ValidDiscountType reports whether t is a known discount type.
func ValidDiscountType(t DiscountType) bool {
	switch t {
	case DiscountPercentage, DiscountFixedAmount, DiscountBuyOneGetOne, DiscountFreeShipping:
		return true
	}
	return false
}

// Discount is a time-bounded price adjustment attached to one inventory
// record. The validity window is [ValidFrom, ValidUntil).
type Discount struct {
	ID          string       `json:"id"`
	Type        DiscountType `json:"type"`
	Value       float64      `json:"value"`       // percent for PERCENTAGE, amount otherwise
	MinPurchase float64      `json:"minPurchase"` // applies when subtotal >= MinPurchase
	MaxDiscount float64      `json:"maxDiscount"` // 0 means uncapped
	ValidFrom   time.Time    `json:"validFrom"`
	ValidUntil  time.Time    `json:"validUntil"`
	IsActive    bool         `json:"isActive"`
}

// ValidAt reports whether the discount applies at the given instant.
func (d *Discount) ValidAt(now time.Time) bool {
	return d.IsActive && !now.Before(d.ValidFrom) && now.Before(d.ValidUntil)
}

// InventoryRecord is the per (product, owner) stock ledger. ReservedStock is
// stock held against in-progress orders and never exceeds CurrentStock.
type InventoryRecord struct {
	ID            string     `json:"id"`
	ProductID     string     `json:"productId"`
	OwnerID       string     `json:"ownerId"`
	CurrentStock  int        `json:"currentStock"`
	ReservedStock int        `json:"reservedStock"`
	ReorderLevel  int        `json:"reorderLevel"`
	SellingPrice  float64    `json:"sellingPrice"`
	Discounts     []Discount `json:"discounts"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Available returns the stock not yet held by reservations.
func (r *InventoryRecord) Available() int {
	return r.CurrentStock - r.ReservedStock
}

// Reserve holds qty units against an in-progress order. Returns false (no
// error) when availability is insufficient; the caller must reject the order
// line.
func (r *InventoryRecord) Reserve(qty int) bool {
	if qty <= 0 || r.Available() < qty {
		return false
	}
	r.ReservedStock += qty
	return true
}

// Release returns up to qty reserved units to availability. The counter never
// goes negative.
func (r *InventoryRecord) Release(qty int) {
	if qty <= 0 {
		return
	}
	if qty > r.ReservedStock {
		qty = r.ReservedStock
	}
	r.ReservedStock -= qty
}

// Confirm consumes qty previously reserved units. This is the only operation
// that decrements CurrentStock.
func (r *InventoryRecord) Confirm(qty int) error {
	if qty <= 0 || r.ReservedStock < qty {
		return ErrInsufficientReservation
	}
	r.ReservedStock -= qty
	r.CurrentStock -= qty
	return nil
}

// NeedsReorder reports whether on-hand stock has dropped to the reorder level.
func (r *InventoryRecord) NeedsReorder() bool {
	return r.CurrentStock <= r.ReorderLevel
}

// PriceFor computes the price of qty units at the given instant. Every
// currently-valid discount whose MinPurchase is met by the undiscounted
// subtotal applies in list order to the running total, each capped by its own
// MaxDiscount when set. The result is floored at 0.
//
// Only PERCENTAGE and FIXED_AMOUNT alter the price. BUY_ONE_GET_ONE and
// FREE_SHIPPING are recognized but not priced here; their semantics are an
// open product decision.
func (r *InventoryRecord) PriceFor(qty int, now time.Time) float64 {
	subtotal := r.SellingPrice * float64(qty)
	total := subtotal

	for i := range r.Discounts {
		d := &r.Discounts[i]
		if !d.ValidAt(now) || subtotal < d.MinPurchase {
			continue
		}

		var off float64
		switch d.Type {
		case DiscountPercentage:
			off = total * d.Value / 100
		case DiscountFixedAmount:
			off = d.Value
		default:
			continue
		}
		if d.MaxDiscount > 0 && off > d.MaxDiscount {
			off = d.MaxDiscount
		}
		total -= off
	}

	if total < 0 {
		total = 0
	}
	return total
}

// InventoryRepository defines data access for inventory records. The stock
// mutation methods are atomic at the row level: each executes as a single
// conditional UPDATE mirroring the corresponding InventoryRecord method, so
// concurrent attempts race safely at the database.
type InventoryRepository interface {
	Create(rec *InventoryRecord) error
	GetByID(id string) (*InventoryRecord, error)
	GetByProductOwner(productID, ownerID string) (*InventoryRecord, error)
	ListByOwner(ownerID string) ([]*InventoryRecord, error)
	ListBelowReorderLevel(ownerID string) ([]*InventoryRecord, error)

	// ReserveStock returns false when availability is insufficient.
	ReserveStock(id string, qty int) (bool, error)
	ReleaseStock(id string, qty int) error
	// ConfirmStock returns ErrInsufficientReservation when fewer than qty
	// units are reserved.
	ConfirmStock(id string, qty int) error
	AdjustStock(id string, delta int) error

	AddDiscount(id string, d Discount) error
	RemoveDiscount(id string, discountID string) error
	DeactivateExpiredDiscounts(now time.Time) (int, error)
}
