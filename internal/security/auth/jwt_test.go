package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/yourorg/storefront/internal/domain"
)

func TestIssuePairAndValidate(t *testing.T) {
	tm := NewTokenManager("secret", "storefront", time.Minute, time.Hour)

	pair, err := tm.IssuePair("u1", "alice@example.com", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
	if pair.ExpiresIn != 60 {
		t.Fatalf("expected expiresIn 60, got %d", pair.ExpiresIn)
	}

	claims, err := tm.Validate(pair.AccessToken, TokenKindAccess)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "alice@example.com" || claims.Role != domain.RoleCustomer {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	tm := NewTokenManager("secret", "", 0, 0)
	pair, err := tm.IssuePair("u1", "a@b.c", domain.RoleRetailer)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := tm.Validate(pair.RefreshToken, TokenKindAccess); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong kind, got %v", err)
	}
	if _, err := tm.Validate(pair.RefreshToken, TokenKindRefresh); err != nil {
		t.Fatalf("refresh token must validate as refresh: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager("secret", "", -time.Minute, time.Hour)
	// accessTTL <= 0 falls back to the default, so sign manually instead
	tok, err := tm.sign("u1", "a@b.c", domain.RoleCustomer, TokenKindAccess, -time.Minute)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := tm.Validate(tok, TokenKindAccess); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	tm := NewTokenManager("secret", "", time.Minute, time.Hour)
	other := NewTokenManager("other-secret", "", time.Minute, time.Hour)
	pair, err := other.IssuePair("u1", "a@b.c", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := tm.Validate(pair.AccessToken, TokenKindAccess); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestExtractToken(t *testing.T) {
	if _, err := ExtractToken("Basic abc"); err == nil {
		t.Fatalf("expected error for non-bearer header")
	}
	tok, err := ExtractToken("Bearer abc.def.ghi")
	if err != nil || tok != "abc.def.ghi" {
		t.Fatalf("unexpected result: %q %v", tok, err)
	}
}
