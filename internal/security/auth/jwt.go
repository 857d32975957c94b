package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/storefront/internal/domain"
)

const (
	// TokenKindAccess and TokenKindRefresh distinguish the two halves of a
	// pair; a refresh token is never accepted where an access token is
	// expected.
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// Claims bind a token to userId+email+role.
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Kind   string      `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies access/refresh token pairs.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a token manager. TTLs of zero fall back to 15
// minutes for access and 7 days for refresh tokens.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "storefront"
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the access token lifetime.
func (tm *TokenManager) AccessTTL() time.Duration { return tm.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (tm *TokenManager) RefreshTTL() time.Duration { return tm.refreshTTL }

// IssuePair signs a new access/refresh pair carrying {userId, email, role}.
func (tm *TokenManager) IssuePair(userID string, email string, role domain.Role) (*domain.TokenPair, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id required")
	}

	access, err := tm.sign(userID, email, role, TokenKindAccess, tm.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := tm.sign(userID, email, role, TokenKindRefresh, tm.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(tm.accessTTL.Seconds()),
	}, nil
}

func (tm *TokenManager) sign(userID string, email string, role domain.Role, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Validate verifies signature and expiry and checks the token is of the
// expected kind. Any failure surfaces as domain.ErrInvalidToken.
func (tm *TokenManager) Validate(tokenString, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: wrong token kind", domain.ErrInvalidToken)
	}
	return claims, nil
}

// ExtractToken pulls the bearer token out of an Authorization header.
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
