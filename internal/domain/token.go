package domain

import (
	"context"
	"time"
)

// TokenPair is an issued access/refresh credential pair. The server-side copy
// of the refresh token is the only one honored for rotation.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"` // access token lifetime, seconds
}

// TokenStore is the keyed store backing the session lifecycle: one current
// refresh token per user, plus a blacklist of revoked access tokens that
// expires with the tokens themselves.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	DeleteRefreshToken(ctx context.Context, userID string) error
	BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error)
}
