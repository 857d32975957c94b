package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/storefront/internal/domain"
)

// PostgresOrderRepository implements domain.OrderRepository. Line items and
// the append-only status history are stored as JSONB alongside the order row;
// the whole aggregate persists in one round trip.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresOrderRepository creates a new order repository.
func NewPostgresOrderRepository(db *sql.DB, logger *slog.Logger) *PostgresOrderRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresOrderRepository{db: db, logger: logger}
}

const orderColumns = `id, customer_id, retailer_id, items, total, status, payment_status, history, created_at, updated_at`

// Create persists a new order aggregate.
func (r *PostgresOrderRepository) Create(order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	history, err := json.Marshal(order.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	query := `
		INSERT INTO orders (id, customer_id, retailer_id, items, total, status, payment_status, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(
		query,
		order.ID,
		order.CustomerID,
		order.RetailerID,
		items,
		order.Total,
		string(order.Status),
		string(order.PaymentStatus),
		history,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create order",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func scanOrder(scan func(dest ...interface{}) error) (*domain.Order, error) {
	order := &domain.Order{}
	var items, history []byte
	var status, payment string

	err := scan(
		&order.ID,
		&order.CustomerID,
		&order.RetailerID,
		&items,
		&order.Total,
		&status,
		&payment,
		&history,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order.Status = domain.OrderStatus(status)
	order.PaymentStatus = domain.PaymentStatus(payment)
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	if err := json.Unmarshal(history, &order.History); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return order, nil
}

// GetByID retrieves an order by ID.
func (r *PostgresOrderRepository) GetByID(id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.db.QueryRow(query, id).Scan)
}

// Save persists the aggregate's mutable state: status, payment status and any
// appended history entries. Items are an immutable snapshot and never updated.
func (r *PostgresOrderRepository) Save(order *domain.Order) error {
	history, err := json.Marshal(order.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	query := `
		UPDATE orders
		SET status = $1, payment_status = $2, history = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`

	err = r.db.QueryRow(
		query,
		string(order.Status),
		string(order.PaymentStatus),
		history,
		order.ID,
	).Scan(&order.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepository) list(query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// ListByCustomer returns a customer's orders, newest first.
func (r *PostgresOrderRepository) ListByCustomer(customerID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.list(query, customerID)
}

// ListByRetailer returns a retailer's orders, newest first.
func (r *PostgresOrderRepository) ListByRetailer(retailerID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE retailer_id = $1 ORDER BY created_at DESC`
	return r.list(query, retailerID)
}

// ListStalePending returns PENDING orders created before the cutoff; the
// sweeper cancels them and releases their reservations.
func (r *PostgresOrderRepository) ListStalePending(cutoff time.Time) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = 'PENDING' AND created_at < $1`
	return r.list(query, cutoff)
}
