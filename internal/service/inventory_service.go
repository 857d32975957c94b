package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/observability/metrics"
	"github.com/yourorg/storefront/pkg/cache"
)

const quoteCacheTTL = 5 * time.Second

// InventoryService manages the per (product, owner) stock ledgers and their
// discounts. Price quotes are cached briefly since the status page polls
// them.
type InventoryService struct {
	repo   domain.InventoryRepository
	quotes *cache.Cache
	logger *slog.Logger
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(repo domain.InventoryRepository, logger *slog.Logger) *InventoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryService{
		repo:   repo,
		quotes: cache.New(),
		logger: logger,
	}
}

// CreateRecordInput carries the fields for listing a product.
type CreateRecordInput struct {
	ProductID    string
	OwnerID      string
	InitialStock int
	ReorderLevel int
	SellingPrice float64
}

// CreateRecord lists a product for a seller. The (product, owner) pair is
// unique.
func (s *InventoryService) CreateRecord(ctx context.Context, input CreateRecordInput) (*domain.InventoryRecord, error) {
	if input.ProductID == "" || input.OwnerID == "" {
		return nil, fmt.Errorf("%w: productId and ownerId are required", domain.ErrValidation)
	}
	if input.InitialStock < 0 || input.SellingPrice < 0 {
		return nil, fmt.Errorf("%w: stock and price must be non-negative", domain.ErrValidation)
	}

	rec := &domain.InventoryRecord{
		ID:           uuid.NewString(),
		ProductID:    input.ProductID,
		OwnerID:      input.OwnerID,
		CurrentStock: input.InitialStock,
		ReorderLevel: input.ReorderLevel,
		SellingPrice: input.SellingPrice,
		Discounts:    []domain.Discount{},
	}
	if err := s.repo.Create(rec); err != nil {
		return nil, err
	}

	s.logger.Info("inventory record created",
		slog.String("record_id", rec.ID),
		slog.String("product_id", rec.ProductID),
		slog.String("owner_id", rec.OwnerID),
	)
	return rec, nil
}

// Get loads one record.
func (s *InventoryService) Get(ctx context.Context, id string) (*domain.InventoryRecord, error) {
	return s.repo.GetByID(id)
}

// ListByOwner returns a seller's records.
func (s *InventoryService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.InventoryRecord, error) {
	return s.repo.ListByOwner(ownerID)
}

// ListLowStock returns records at or below their reorder level.
func (s *InventoryService) ListLowStock(ctx context.Context, ownerID string) ([]*domain.InventoryRecord, error) {
	return s.repo.ListBelowReorderLevel(ownerID)
}

// AdjustStock applies a restock or correction delta.
func (s *InventoryService) AdjustStock(ctx context.Context, id string, delta int) error {
	if err := s.repo.AdjustStock(id, delta); err != nil {
		return err
	}
	s.quotes.Invalidate("quote:" + id)
	s.logger.Info("stock adjusted", slog.String("record_id", id), slog.Int("delta", delta))
	return nil
}

// Reserve holds qty units for an in-progress order. A false return (without
// error) means availability was insufficient and the order line must be
// rejected.
func (s *InventoryService) Reserve(ctx context.Context, id string, qty int) (bool, error) {
	ok, err := s.repo.ReserveStock(id, qty)
	if err != nil {
		metrics.ObserveReservation("reserve", "error")
		return false, err
	}
	if ok {
		metrics.ObserveReservation("reserve", "success")
	} else {
		metrics.ObserveReservation("reserve", "insufficient")
	}
	return ok, nil
}

// Release returns reserved units to availability.
func (s *InventoryService) Release(ctx context.Context, id string, qty int) error {
	if err := s.repo.ReleaseStock(id, qty); err != nil {
		metrics.ObserveReservation("release", "error")
		return err
	}
	metrics.ObserveReservation("release", "success")
	return nil
}

// Confirm consumes reserved units; the only operation that decrements
// on-hand stock.
func (s *InventoryService) Confirm(ctx context.Context, id string, qty int) error {
	if err := s.repo.ConfirmStock(id, qty); err != nil {
		metrics.ObserveReservation("confirm", "rejected")
		return err
	}
	metrics.ObserveReservation("confirm", "success")
	s.quotes.Invalidate("quote:" + id)
	return nil
}

// AddDiscount validates and appends a discount to a record.
func (s *InventoryService) AddDiscount(ctx context.Context, id string, d domain.Discount) (*domain.Discount, error) {
	if !domain.ValidDiscountType(d.Type) {
		return nil, fmt.Errorf("%w: unknown discount type %q", domain.ErrValidation, d.Type)
	}
	if d.Value < 0 || (d.Type == domain.DiscountPercentage && d.Value > 100) {
		return nil, fmt.Errorf("%w: discount value out of range", domain.ErrValidation)
	}
	if !d.ValidUntil.After(d.ValidFrom) {
		return nil, fmt.Errorf("%w: validUntil must be after validFrom", domain.ErrValidation)
	}

	d.ID = uuid.NewString()
	if err := s.repo.AddDiscount(id, d); err != nil {
		return nil, err
	}
	s.quotes.Invalidate("quote:" + id)
	s.logger.Info("discount added",
		slog.String("record_id", id),
		slog.String("discount_id", d.ID),
		slog.String("type", string(d.Type)),
	)
	return &d, nil
}

// RemoveDiscount deletes a discount from a record.
func (s *InventoryService) RemoveDiscount(ctx context.Context, id, discountID string) error {
	if err := s.repo.RemoveDiscount(id, discountID); err != nil {
		return err
	}
	s.quotes.Invalidate("quote:" + id)
	return nil
}

// Quote prices qty units of a (product, owner) pair with current discounts
// applied. Results are cached for a few seconds.
func (s *InventoryService) Quote(ctx context.Context, productID, ownerID string, qty int) (float64, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}

	rec, err := s.repo.GetByProductOwner(productID, ownerID)
	if err != nil {
		return 0, err
	}

	key := fmt.Sprintf("quote:%s:%d", rec.ID, qty)
	if cached, ok := s.quotes.Get(key); ok {
		return cached.(float64), nil
	}

	price := rec.PriceFor(qty, time.Now())
	s.quotes.Set(key, price, quoteCacheTTL)
	return price, nil
}
