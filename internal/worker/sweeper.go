package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/observability/metrics"
)

// Sweeper periodically deactivates expired discounts and cancels PENDING
// orders that were never paid, returning their reserved stock.
type Sweeper struct {
	orderRepo domain.OrderRepository
	invRepo   domain.InventoryRepository
	logger    *slog.Logger
	interval  time.Duration
	staleAge  time.Duration
}

// NewSweeper creates a sweeper. Interval and staleAge of zero fall back to one
// minute and thirty minutes.
func NewSweeper(
	orderRepo domain.OrderRepository,
	invRepo domain.InventoryRepository,
	logger *slog.Logger,
	interval time.Duration,
	staleAge time.Duration,
) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAge <= 0 {
		staleAge = 30 * time.Minute
	}
	return &Sweeper{
		orderRepo: orderRepo,
		invRepo:   invRepo,
		logger:    logger,
		interval:  interval,
		staleAge:  staleAge,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (w *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sweeper started",
		slog.Duration("interval", w.interval),
		slog.Duration("stale_age", w.staleAge),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			w.sweepDiscounts(time.Now())
			w.sweepStaleOrders(time.Now())
		}
	}
}

// sweepDiscounts flips IsActive off on discounts whose window has closed.
func (w *Sweeper) sweepDiscounts(now time.Time) {
	touched, err := w.invRepo.DeactivateExpiredDiscounts(now)
	if err != nil {
		metrics.ObserveSweep("discounts", "error")
		w.logger.Error("failed to deactivate expired discounts", slog.String("error", err.Error()))
		return
	}
	metrics.ObserveSweep("discounts", "success")
	if touched > 0 {
		w.logger.Info("expired discounts deactivated", slog.Int("records", touched))
	}
}

// sweepStaleOrders cancels PENDING orders older than staleAge and releases
// their reservations.
func (w *Sweeper) sweepStaleOrders(now time.Time) {
	stale, err := w.orderRepo.ListStalePending(now.Add(-w.staleAge))
	if err != nil {
		metrics.ObserveSweep("stale_orders", "error")
		w.logger.Error("failed to list stale orders", slog.String("error", err.Error()))
		return
	}

	for _, order := range stale {
		if err := order.Cancel("payment window expired", now); err != nil {
			// Raced with a concurrent transition; leave it alone.
			continue
		}
		w.releaseStock(order)
		if err := w.orderRepo.Save(order); err != nil {
			metrics.ObserveSweep("stale_orders", "error")
			w.logger.Error("failed to cancel stale order",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		metrics.ObserveSweep("stale_orders", "success")
		metrics.DecrementOpenOrders()
		w.logger.Info("stale order cancelled", slog.String("order_id", order.ID))
	}
}

func (w *Sweeper) releaseStock(order *domain.Order) {
	for _, item := range order.Items {
		rec, err := w.invRepo.GetByProductOwner(item.ProductID, item.OwnerID)
		if err != nil {
			w.logger.Error("failed to load record for release",
				slog.String("product_id", item.ProductID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := w.invRepo.ReleaseStock(rec.ID, item.Quantity); err != nil {
			w.logger.Error("failed to release reservation",
				slog.String("record_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
