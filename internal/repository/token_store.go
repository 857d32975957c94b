package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/infrastructure/redis"
)

const (
	refreshKeyPrefix   = "refresh:"
	blacklistKeyPrefix = "blacklist:"
)

// RedisTokenStore implements domain.TokenStore. One current refresh token per
// user key; blacklist entries expire with the access tokens they revoke.
type RedisTokenStore struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisTokenStore creates a new token store.
func NewRedisTokenStore(redisClient *redis.Client, logger *slog.Logger) *RedisTokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisTokenStore{redis: redisClient, logger: logger}
}

// SaveRefreshToken overwrites the stored refresh token for the user. Rotation
// relies on this overwrite invalidating the previous token.
func (s *RedisTokenStore) SaveRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, refreshKeyPrefix+userID, token, ttl); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	s.logger.Debug("refresh token stored", slog.String("user_id", userID))
	return nil
}

// GetRefreshToken returns the stored refresh token, or domain.ErrTokenMismatch
// when none is stored (revoked or never issued).
func (s *RedisTokenStore) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	token, err := s.redis.Get(ctx, refreshKeyPrefix+userID)
	if err != nil {
		if redis.IsNotFound(err) {
			return "", domain.ErrTokenMismatch
		}
		return "", fmt.Errorf("failed to get refresh token: %w", err)
	}
	return token, nil
}

// DeleteRefreshToken removes the stored refresh token, forcing re-login on
// all devices.
func (s *RedisTokenStore) DeleteRefreshToken(ctx context.Context, userID string) error {
	if err := s.redis.Delete(ctx, refreshKeyPrefix+userID); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	s.logger.Debug("refresh token deleted", slog.String("user_id", userID))
	return nil
}

// BlacklistAccessToken records a revoked access token until its natural
// expiry.
func (s *RedisTokenStore) BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired; nothing to revoke.
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKeyPrefix+token, "1", ttl); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsAccessTokenBlacklisted reports whether the token has been revoked.
func (s *RedisTokenStore) IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	exists, err := s.redis.Exists(ctx, blacklistKeyPrefix+token)
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists, nil
}
