package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/observability/metrics"
)

// AuthService orchestrates the account lifecycle: Unregistered -> Active <->
// Deactivated. Credential checks deliberately conflate "no such user" and
// "wrong password" to avoid user enumeration.
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *TokenService
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo domain.UserRepository, tokens *TokenService, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// RegisterInput carries registration data; Profile must match Role.
type RegisterInput struct {
	Email    string
	Phone    string
	Password string
	Role     domain.Role
	Profile  domain.Profile
}

// AuthResult pairs the persisted user with its issued tokens.
type AuthResult struct {
	User   *domain.User      `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

// Register creates a new active account and issues its first token pair.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Email == "" || input.Phone == "" {
		return nil, fmt.Errorf("%w: email and phone are required", domain.ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	if !domain.ValidRole(input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, input.Role)
	}
	if input.Profile == nil || input.Profile.Role() != input.Role {
		return nil, fmt.Errorf("%w: profile does not match role", domain.ErrValidation)
	}
	if err := input.Profile.Validate(); err != nil {
		metrics.ObserveAuth("register", "validation_error")
		return nil, err
	}

	// Pre-checks give friendly errors; the unique constraints remain the
	// authority under concurrent registration.
	if existing, err := s.userRepo.GetByEmail(input.Email); err == nil && existing != nil {
		metrics.ObserveAuth("register", "duplicate")
		return nil, domain.ErrDuplicateEmail
	}
	if existing, err := s.userRepo.GetByPhone(input.Phone); err == nil && existing != nil {
		metrics.ObserveAuth("register", "duplicate")
		return nil, domain.ErrDuplicatePhone
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		Role:         input.Role,
		Profile:      input.Profile,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrDuplicatePhone) {
			metrics.ObserveAuth("register", "duplicate")
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	pair, err := s.tokens.Issue(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	metrics.ObserveAuth("register", "success")
	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Login authenticates credentials and issues a fresh token pair. Unknown
// email and wrong password both surface ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		s.logger.Info("login attempt with unknown email", slog.String("email", email))
		metrics.ObserveAuth("login", "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		metrics.ObserveAuth("login", "deactivated")
		return nil, domain.ErrAccountDeactivated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		metrics.ObserveAuth("login", "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		s.logger.Warn("failed to update last login", slog.String("user_id", user.ID), slog.String("error", err.Error()))
	}

	pair, err := s.tokens.Issue(ctx, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	metrics.ObserveAuth("login", "success")
	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh rotates a refresh token. A token whose user no longer exists or is
// deactivated fails with ErrInvalidToken regardless of signature validity.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		metrics.ObserveAuth("refresh", "invalid_token")
		return nil, domain.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil || !user.IsActive {
		metrics.ObserveAuth("refresh", "invalid_token")
		return nil, domain.ErrInvalidToken
	}

	pair, _, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		metrics.ObserveAuth("refresh", "rejected")
		return nil, err
	}

	metrics.ObserveAuth("refresh", "success")
	return pair, nil
}

// Logout revokes the presented access token and the stored refresh token for
// this user.
func (s *AuthService) Logout(ctx context.Context, accessToken, userID string) error {
	if err := s.tokens.Revoke(ctx, accessToken); err != nil {
		return err
	}
	return s.tokens.RevokeAll(ctx, userID)
}

// LogoutAll deletes the stored refresh token, ending sessions on all devices.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.tokens.RevokeAll(ctx, userID)
}

// GetUser loads a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile replaces the role-specific profile after validating it
// against the user's role.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (*domain.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.Role() != user.Role {
		return nil, fmt.Errorf("%w: profile does not match role", domain.ErrValidation)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	user.Profile = profile
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate soft-deletes the account and ends all sessions. The record is
// kept; logging back in requires reactivation by an admin.
func (s *AuthService) Deactivate(ctx context.Context, userID string) error {
	if err := s.userRepo.Deactivate(userID); err != nil {
		return err
	}
	return s.tokens.RevokeAll(ctx, userID)
}
