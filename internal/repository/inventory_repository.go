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

// PostgresInventoryRepository implements domain.InventoryRepository. Every
// stock mutation executes as a single conditional UPDATE so that concurrent
// attempts on the same record race safely at the row level: the availability
// check and the counter increment happen in the same statement.
type PostgresInventoryRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresInventoryRepository creates a new inventory repository.
func NewPostgresInventoryRepository(db *sql.DB, logger *slog.Logger) *PostgresInventoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresInventoryRepository{db: db, logger: logger}
}

const inventoryColumns = `id, product_id, owner_id, current_stock, reserved_stock, reorder_level, selling_price, discounts, created_at, updated_at`

// Create persists a new record. The (product_id, owner_id) pair is unique.
func (r *PostgresInventoryRepository) Create(rec *domain.InventoryRecord) error {
	discounts, err := json.Marshal(rec.Discounts)
	if err != nil {
		return fmt.Errorf("failed to encode discounts: %w", err)
	}
	if rec.Discounts == nil {
		discounts = []byte("[]")
	}

	query := `
		INSERT INTO inventory (id, product_id, owner_id, current_stock, reserved_stock, reorder_level, selling_price, discounts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(
		query,
		rec.ID,
		rec.ProductID,
		rec.OwnerID,
		rec.CurrentStock,
		rec.ReservedStock,
		rec.ReorderLevel,
		rec.SellingPrice,
		discounts,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create inventory record",
			slog.String("product_id", rec.ProductID),
			slog.String("owner_id", rec.OwnerID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create inventory record: %w", err)
	}
	return nil
}

func (r *PostgresInventoryRepository) scanRecord(row *sql.Row) (*domain.InventoryRecord, error) {
	rec := &domain.InventoryRecord{}
	var discounts []byte

	err := row.Scan(
		&rec.ID,
		&rec.ProductID,
		&rec.OwnerID,
		&rec.CurrentStock,
		&rec.ReservedStock,
		&rec.ReorderLevel,
		&rec.SellingPrice,
		&discounts,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inventory record: %w", err)
	}

	if err := json.Unmarshal(discounts, &rec.Discounts); err != nil {
		return nil, fmt.Errorf("failed to decode discounts: %w", err)
	}
	return rec, nil
}

// GetByID retrieves a record by ID.
func (r *PostgresInventoryRepository) GetByID(id string) (*domain.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE id = $1`
	return r.scanRecord(r.db.QueryRow(query, id))
}

// GetByProductOwner retrieves the record for a (product, owner) pair.
func (r *PostgresInventoryRepository) GetByProductOwner(productID, ownerID string) (*domain.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE product_id = $1 AND owner_id = $2`
	return r.scanRecord(r.db.QueryRow(query, productID, ownerID))
}

func (r *PostgresInventoryRepository) list(query string, args ...interface{}) ([]*domain.InventoryRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var records []*domain.InventoryRecord
	for rows.Next() {
		rec := &domain.InventoryRecord{}
		var discounts []byte
		err := rows.Scan(
			&rec.ID,
			&rec.ProductID,
			&rec.OwnerID,
			&rec.CurrentStock,
			&rec.ReservedStock,
			&rec.ReorderLevel,
			&rec.SellingPrice,
			&discounts,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		if err := json.Unmarshal(discounts, &rec.Discounts); err != nil {
			return nil, fmt.Errorf("failed to decode discounts: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListByOwner returns all records owned by a seller.
func (r *PostgresInventoryRepository) ListByOwner(ownerID string) ([]*domain.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(query, ownerID)
}

// ListBelowReorderLevel returns records whose on-hand stock has dropped to
// the reorder level.
func (r *PostgresInventoryRepository) ListBelowReorderLevel(ownerID string) ([]*domain.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE owner_id = $1 AND current_stock <= reorder_level ORDER BY current_stock ASC`
	return r.list(query, ownerID)
}

// ReserveStock holds qty units iff availability suffices. The WHERE clause
// re-checks availability in the same statement as the increment, mirroring
// InventoryRecord.Reserve.
func (r *PostgresInventoryRepository) ReserveStock(id string, qty int) (bool, error) {
	if qty <= 0 {
		return false, nil
	}
	result, err := r.db.Exec(`
		UPDATE inventory
		SET reserved_stock = reserved_stock + $2, updated_at = now()
		WHERE id = $1 AND current_stock - reserved_stock >= $2
	`, id, qty)
	if err != nil {
		return false, fmt.Errorf("failed to reserve stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows == 1, nil
}

// ReleaseStock returns up to qty reserved units; the counter never goes
// negative (LEAST mirrors InventoryRecord.Release).
func (r *PostgresInventoryRepository) ReleaseStock(id string, qty int) error {
	if qty <= 0 {
		return nil
	}
	_, err := r.db.Exec(`
		UPDATE inventory
		SET reserved_stock = reserved_stock - LEAST($2, reserved_stock), updated_at = now()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return nil
}

// ConfirmStock consumes qty reserved units, decrementing both counters in one
// statement. Fails with domain.ErrInsufficientReservation when fewer than qty
// units are reserved.
func (r *PostgresInventoryRepository) ConfirmStock(id string, qty int) error {
	if qty <= 0 {
		return domain.ErrInsufficientReservation
	}
	result, err := r.db.Exec(`
		UPDATE inventory
		SET reserved_stock = reserved_stock - $2,
		    current_stock = current_stock - $2,
		    updated_at = now()
		WHERE id = $1 AND reserved_stock >= $2
	`, id, qty)
	if err != nil {
		return fmt.Errorf("failed to confirm stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInsufficientReservation
	}
	return nil
}

// AdjustStock applies a restock or correction delta, clamped so on-hand stock
// never drops below the reserved count.
func (r *PostgresInventoryRepository) AdjustStock(id string, delta int) error {
	result, err := r.db.Exec(`
		UPDATE inventory
		SET current_stock = current_stock + $2, updated_at = now()
		WHERE id = $1 AND current_stock + $2 >= reserved_stock
	`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// AddDiscount appends a discount to the record's list.
func (r *PostgresInventoryRepository) AddDiscount(id string, d domain.Discount) error {
	encoded, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode discount: %w", err)
	}
	result, err := r.db.Exec(`
		UPDATE inventory
		SET discounts = discounts || $2::jsonb, updated_at = now()
		WHERE id = $1
	`, id, encoded)
	if err != nil {
		return fmt.Errorf("failed to add discount: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveDiscount deletes a discount by its ID from the record's list.
func (r *PostgresInventoryRepository) RemoveDiscount(id string, discountID string) error {
	result, err := r.db.Exec(`
		UPDATE inventory
		SET discounts = COALESCE(
			(SELECT jsonb_agg(d) FROM jsonb_array_elements(discounts) d WHERE d->>'id' <> $2),
			'[]'::jsonb
		), updated_at = now()
		WHERE id = $1
	`, id, discountID)
	if err != nil {
		return fmt.Errorf("failed to remove discount: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeactivateExpiredDiscounts flips is_active on every discount whose window
// has closed. Returns the number of records touched.
func (r *PostgresInventoryRepository) DeactivateExpiredDiscounts(now time.Time) (int, error) {
	result, err := r.db.Exec(`
		UPDATE inventory
		SET discounts = (
			SELECT jsonb_agg(
				CASE WHEN (d->>'validUntil')::timestamptz <= $1
				     THEN jsonb_set(d, '{isActive}', 'false')
				     ELSE d END)
			FROM jsonb_array_elements(discounts) d
		), updated_at = now()
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(discounts) d
			WHERE (d->>'isActive')::boolean AND (d->>'validUntil')::timestamptz <= $1
		)
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired discounts: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return int(rows), nil
}
