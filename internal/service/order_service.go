package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/events"
	"github.com/yourorg/storefront/internal/featureflags"
	"github.com/yourorg/storefront/internal/observability/metrics"
	"github.com/yourorg/storefront/internal/reliability/retry"
)

// OrderService drives the order aggregate through its state machine and keeps
// the inventory ledger in step: checkout reserves stock, shipping confirms
// it, cancellation before shipping releases it.
type OrderService struct {
	orderRepo domain.OrderRepository
	invRepo   domain.InventoryRepository
	publisher events.Publisher
	retryCfg  *retry.Config
	logger    *slog.Logger
}

// NewOrderService creates a new order service. publisher may be nil when
// event publishing is disabled.
func NewOrderService(
	orderRepo domain.OrderRepository,
	invRepo domain.InventoryRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		orderRepo: orderRepo,
		invRepo:   invRepo,
		publisher: publisher,
		retryCfg:  retry.DefaultConfig(),
		logger:    logger,
	}
}

// LineRequest is one requested order line.
type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type reservedLine struct {
	recordID string
	qty      int
}

// Checkout reserves stock for every line, snapshots discounted prices, and
// creates the order in PENDING/PENDING. A line that cannot be reserved
// releases all prior reservations and rejects the whole order.
func (s *OrderService) Checkout(ctx context.Context, customerID, retailerID string, lines []LineRequest) (*domain.Order, error) {
	start := time.Now()

	if customerID == "" || retailerID == "" {
		return nil, fmt.Errorf("%w: customerId and retailerId are required", domain.ErrValidation)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one line", domain.ErrValidation)
	}

	now := time.Now()
	var reserved []reservedLine
	var items []domain.OrderItem
	var total float64

	rollback := func() {
		for _, r := range reserved {
			if err := s.invRepo.ReleaseStock(r.recordID, r.qty); err != nil {
				s.logger.Error("failed to release reservation during rollback",
					slog.String("record_id", r.recordID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			rollback()
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
		}

		rec, err := s.invRepo.GetByProductOwner(line.ProductID, retailerID)
		if err != nil {
			rollback()
			return nil, err
		}

		ok, err := s.invRepo.ReserveStock(rec.ID, line.Quantity)
		if err != nil {
			rollback()
			return nil, err
		}
		if !ok {
			rollback()
			metrics.ObserveCheckout("insufficient_stock", time.Since(start))
			return nil, fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, line.ProductID)
		}
		reserved = append(reserved, reservedLine{recordID: rec.ID, qty: line.Quantity})

		// Immutable snapshot: discounted total and effective unit price at
		// order time.
		lineTotal := rec.PriceFor(line.Quantity, now)
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			OwnerID:   retailerID,
			Quantity:  line.Quantity,
			UnitPrice: rec.SellingPrice,
			LineTotal: lineTotal,
		})
		total += lineTotal
	}

	order := &domain.Order{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		RetailerID:    retailerID,
		Items:         items,
		Total:         total,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentPending,
		History:       []domain.StatusEntry{{Status: domain.OrderPending, Timestamp: now, Note: "order placed"}},
		CreatedAt:     now,
	}

	if err := s.orderRepo.Create(order); err != nil {
		rollback()
		metrics.ObserveCheckout("error", time.Since(start))
		return nil, err
	}

	metrics.ObserveCheckout("success", time.Since(start))
	metrics.IncrementOpenOrders()
	s.logger.Info("order placed",
		slog.String("order_id", order.ID),
		slog.String("customer_id", customerID),
		slog.Int("lines", len(items)),
		slog.Float64("total", total),
	)

	s.publish(ctx, "order.created", order)
	return order, nil
}

// Get loads an order.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orderRepo.GetByID(orderID)
}

// ListByCustomer returns a customer's orders.
func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return s.orderRepo.ListByCustomer(customerID)
}

// UpdateStatus advances the order one step. Shipping confirms the reserved
// stock, consuming it from the ledger.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus, note string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if err := order.TransitionTo(next, note, time.Now()); err != nil {
		return nil, err
	}

	if next == domain.OrderShipped {
		if err := s.confirmStock(order); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(order); err != nil {
		if next == domain.OrderShipped {
			// Stock is already consumed but the order never recorded SHIPPED;
			// the ledger and the order disagree until the update is retried.
			s.logger.Error("order save failed after stock confirmation",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}
	if next.Terminal() {
		metrics.DecrementOpenOrders()
	}

	s.logger.Info("order status updated",
		slog.String("order_id", order.ID),
		slog.String("status", string(next)),
	)
	s.publish(ctx, "order.status_changed", order)
	return order, nil
}

// Cancel moves the order to CANCELLED, cancels the payment and releases any
// reservations that have not been consumed yet. Stock confirmed at shipping
// is not returned here; returns are a separate flow.
func (s *OrderService) Cancel(ctx context.Context, orderID, note string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	shippedBefore := order.Shipped()

	if err := order.Cancel(note, time.Now()); err != nil {
		return nil, err
	}

	if !shippedBefore {
		s.releaseStock(order)
	}

	if err := s.orderRepo.Save(order); err != nil {
		return nil, err
	}
	metrics.DecrementOpenOrders()

	s.logger.Info("order cancelled", slog.String("order_id", order.ID))
	s.publish(ctx, "order.cancelled", order)
	return order, nil
}

// MarkPaid records a successful payment for a pending-payment order.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != domain.PaymentPending {
		return nil, domain.ErrInvalidTransition
	}
	order.PaymentStatus = domain.PaymentPaid
	if err := s.orderRepo.Save(order); err != nil {
		return nil, err
	}
	s.publish(ctx, "order.status_changed", order)
	return order, nil
}

func (s *OrderService) confirmStock(order *domain.Order) error {
	for _, item := range order.Items {
		rec, err := s.invRepo.GetByProductOwner(item.ProductID, item.OwnerID)
		if err != nil {
			return err
		}
		if err := s.invRepo.ConfirmStock(rec.ID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) releaseStock(order *domain.Order) {
	for _, item := range order.Items {
		rec, err := s.invRepo.GetByProductOwner(item.ProductID, item.OwnerID)
		if err != nil {
			s.logger.Error("failed to load record for release",
				slog.String("product_id", item.ProductID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := s.invRepo.ReleaseStock(rec.ID, item.Quantity); err != nil {
			s.logger.Error("failed to release reservation",
				slog.String("record_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// publish sends an order event with retry; publishing is best-effort and
// never fails the business operation.
func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order) {
	if s.publisher == nil || !featureflags.Enabled("order_events") {
		return
	}

	event := events.OrderEvent{
		EventType:  eventType,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		RetailerID: order.RetailerID,
		Status:     order.Status,
		Payment:    order.PaymentStatus,
		Total:      order.Total,
		OccurredAt: time.Now(),
	}

	_, err := retry.Do(ctx, s.retryCfg, s.logger, "publish_order_event", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.publisher.PublishOrderEvent(event)
	})
	if err != nil {
		metrics.ObserveOrderEvent(eventType, "error")
		s.logger.Error("failed to publish order event",
			slog.String("order_id", order.ID),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.ObserveOrderEvent(eventType, "success")
}
