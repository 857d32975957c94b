package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/yourorg/storefront/internal/domain"
)

// PostgresUserRepository implements domain.UserRepository using PostgreSQL.
// The role-specific profile variant is stored as a JSONB column discriminated
// by the role column.
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository.
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserRepository{db: db, logger: logger}
}

const userColumns = `id, email, phone, password_hash, role, profile, is_active, is_verified, last_login_at, created_at, updated_at`

// Create persists a new user. Unique violations on email/phone surface as
// domain.ErrDuplicateEmail / domain.ErrDuplicatePhone.
func (r *PostgresUserRepository) Create(user *domain.User) error {
	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	query := `
		INSERT INTO users (id, email, phone, password_hash, role, profile, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(
		query,
		user.ID,
		user.Email,
		user.Phone,
		user.PasswordHash,
		string(user.Role),
		profile,
		user.IsActive,
		user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_phone_key":
				return domain.ErrDuplicatePhone
			default:
				return domain.ErrDuplicateEmail
			}
		}
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var role string
	var profile []byte

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&role,
		&profile,
		&user.IsActive,
		&user.IsVerified,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = domain.Role(role)
	user.Profile, err = domain.UnmarshalProfile(user.Role, profile)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by ID, active or not.
func (r *PostgresUserRepository) GetByID(id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(query, id))
}

// GetByEmail retrieves a user by email, active or not; the service layer owns
// the deactivated-account decision.
func (r *PostgresUserRepository) GetByEmail(email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(query, email))
}

// GetByPhone retrieves a user by phone.
func (r *PostgresUserRepository) GetByPhone(phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return r.scanUser(r.db.QueryRow(query, phone))
}

// Update persists mutable user fields.
func (r *PostgresUserRepository) Update(user *domain.User) error {
	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	query := `
		UPDATE users
		SET email = $1, phone = $2, password_hash = $3, profile = $4,
		    is_active = $5, is_verified = $6, last_login_at = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at
	`

	err = r.db.QueryRow(
		query,
		user.Email,
		user.Phone,
		user.PasswordHash,
		profile,
		user.IsActive,
		user.IsVerified,
		user.LastLoginAt,
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// Deactivate soft-deletes a user; the record is never removed.
func (r *PostgresUserRepository) Deactivate(id string) error {
	result, err := r.db.Exec(`UPDATE users SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
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

// List returns all users, newest first.
func (r *PostgresUserRepository) List() ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		var role string
		var profile []byte
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Phone,
			&user.PasswordHash,
			&role,
			&profile,
			&user.IsActive,
			&user.IsVerified,
			&user.LastLoginAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Role = domain.Role(role)
		if user.Profile, err = domain.UnmarshalProfile(user.Role, profile); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
