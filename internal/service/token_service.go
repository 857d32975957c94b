package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/reliability/circuitbreaker"
	"github.com/yourorg/storefront/internal/security/auth"
)

// TokenService owns the token pair lifecycle: issuance, rotation and
// revocation. The token store is guarded by a circuit breaker so a Redis
// outage fails fast instead of piling up requests.
type TokenService struct {
	tokens  *auth.TokenManager
	store   domain.TokenStore
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewTokenService creates a new token service.
func NewTokenService(tokens *auth.TokenManager, store domain.TokenStore, logger *slog.Logger) *TokenService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenService{
		tokens: tokens,
		store:  store,
		breaker: circuitbreaker.New("token-store",
			circuitbreaker.DefaultFailureThreshold,
			circuitbreaker.DefaultSuccessThreshold,
			circuitbreaker.DefaultCooldown,
			logger,
		),
		logger: logger,
	}
}

var errStoreUnavailable = errors.New("token store unavailable")

// withStore runs a token store operation through the circuit breaker.
func (s *TokenService) withStore(op func() error) error {
	if !s.breaker.AllowRequest() {
		return errStoreUnavailable
	}
	err := op()
	if err != nil && !isDomainErr(err) {
		s.breaker.RecordFailure()
		return err
	}
	s.breaker.RecordSuccess()
	return err
}

func isDomainErr(err error) bool {
	return errors.Is(err, domain.ErrTokenMismatch) || errors.Is(err, domain.ErrInvalidToken)
}

// Issue signs a new pair for the user and persists the refresh token as the
// only one honored for rotation.
func (s *TokenService) Issue(ctx context.Context, userID string, email string, role domain.Role) (*domain.TokenPair, error) {
	pair, err := s.tokens.IssuePair(userID, email, role)
	if err != nil {
		s.logger.Error("failed to issue token pair", slog.String("user_id", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	err = s.withStore(func() error {
		return s.store.SaveRefreshToken(ctx, userID, pair.RefreshToken, s.tokens.RefreshTTL())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	return pair, nil
}

// Rotate verifies a refresh token, compares it against the stored copy to
// detect reuse or theft, and on success issues a replacement pair that
// overwrites the stored token. The previous refresh token is dead afterwards.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*domain.TokenPair, *auth.Claims, error) {
	claims, err := s.tokens.Validate(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return nil, nil, domain.ErrInvalidToken
	}

	var stored string
	err = s.withStore(func() error {
		var inner error
		stored, inner = s.store.GetRefreshToken(ctx, claims.UserID)
		return inner
	})
	if err != nil {
		if errors.Is(err, domain.ErrTokenMismatch) {
			return nil, nil, domain.ErrTokenMismatch
		}
		return nil, nil, fmt.Errorf("failed to load stored refresh token: %w", err)
	}
	if stored != refreshToken {
		s.logger.Warn("refresh token reuse detected", slog.String("user_id", claims.UserID))
		return nil, nil, domain.ErrTokenMismatch
	}

	pair, err := s.Issue(ctx, claims.UserID, claims.Email, claims.Role)
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}

// Verify parses a refresh token without rotating it.
func (s *TokenService) Verify(refreshToken string) (*auth.Claims, error) {
	return s.tokens.Validate(refreshToken, auth.TokenKindRefresh)
}

// VerifyAccess parses an access token and rejects blacklisted ones.
func (s *TokenService) VerifyAccess(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.tokens.Validate(accessToken, auth.TokenKindAccess)
	if err != nil {
		return nil, err
	}

	var revoked bool
	err = s.withStore(func() error {
		var inner error
		revoked, inner = s.store.IsAccessTokenBlacklisted(ctx, accessToken)
		return inner
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if revoked {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// Revoke blacklists an access token until its natural expiry.
func (s *TokenService) Revoke(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.Validate(accessToken, auth.TokenKindAccess)
	if err != nil {
		// Expired or malformed tokens need no blacklist entry.
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	return s.withStore(func() error {
		return s.store.BlacklistAccessToken(ctx, accessToken, ttl)
	})
}

// RevokeAll deletes the stored refresh token, forcing re-login on all
// devices.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.withStore(func() error {
		return s.store.DeleteRefreshToken(ctx, userID)
	})
}
