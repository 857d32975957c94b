package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/security/auth"
)

func newTestTokenService(store domain.TokenStore) *TokenService {
	tm := auth.NewTokenManager("test-secret", "storefront-test", time.Minute, time.Hour)
	return NewTokenService(tm, store, nil)
}

func TestIssuePersistsRefreshToken(t *testing.T) {
	store := newMemTokenStore()
	svc := newTestTokenService(store)

	pair, err := svc.Issue(context.Background(), "user-1", "a@example.com", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}

	stored, err := store.GetRefreshToken(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetRefreshToken failed: %v", err)
	}
	if stored != pair.RefreshToken {
		t.Error("stored refresh token does not match the issued one")
	}
}

func TestRotateInvalidatesPreviousToken(t *testing.T) {
	store := newMemTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "user-1", "a@example.com", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	second, claims, err := svc.Rotate(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("claims.UserID = %q, want user-1", claims.UserID)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("rotation returned the same refresh token")
	}

	// Reusing the consumed token must fail.
	if _, _, err := svc.Rotate(ctx, first.RefreshToken); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Errorf("reuse of rotated token: got %v, want ErrTokenMismatch", err)
	}

	// The replacement still rotates.
	if _, _, err := svc.Rotate(ctx, second.RefreshToken); err != nil {
		t.Errorf("rotating replacement token failed: %v", err)
	}
}

func TestRotateWithoutStoredToken(t *testing.T) {
	store := newMemTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, "user-1", "a@example.com", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := svc.RevokeAll(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeAll failed: %v", err)
	}

	if _, _, err := svc.Rotate(ctx, pair.RefreshToken); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Errorf("rotate after revoke-all: got %v, want ErrTokenMismatch", err)
	}
}

func TestRotateRejectsAccessToken(t *testing.T) {
	store := newMemTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, "user-1", "a@example.com", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, _, err := svc.Rotate(ctx, pair.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("rotate with access token: got %v, want ErrInvalidToken", err)
	}
}

func TestRevokeBlacklistsAccessToken(t *testing.T) {
	store := newMemTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, "user-1", "a@example.com", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.VerifyAccess(ctx, pair.AccessToken); err != nil {
		t.Fatalf("VerifyAccess before revoke failed: %v", err)
	}

	if err := svc.Revoke(ctx, pair.AccessToken); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	if _, err := svc.VerifyAccess(ctx, pair.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("VerifyAccess after revoke: got %v, want ErrInvalidToken", err)
	}
}

func TestRevokeIgnoresMalformedToken(t *testing.T) {
	store := newMemTokenStore()
	svc := newTestTokenService(store)

	if err := svc.Revoke(context.Background(), "not-a-jwt"); err != nil {
		t.Errorf("Revoke of malformed token should be a no-op, got %v", err)
	}
	if len(store.blacklist) != 0 {
		t.Error("malformed token should not be blacklisted")
	}
}

type failingTokenStore struct {
	memTokenStore
	err error
}

func (f *failingTokenStore) SaveRefreshToken(context.Context, string, string, time.Duration) error {
	return f.err
}

func TestStoreOutageTripsBreaker(t *testing.T) {
	store := &failingTokenStore{err: errors.New("connection refused")}
	store.refresh = map[string]string{}
	store.blacklist = map[string]time.Time{}
	svc := newTestTokenService(store)
	ctx := context.Background()

	// Five consecutive infrastructure failures open the breaker.
	for i := 0; i < 5; i++ {
		if _, err := svc.Issue(ctx, "user-1", "a@example.com", domain.RoleCustomer); err == nil {
			t.Fatal("expected store failure")
		}
	}

	_, err := svc.Issue(ctx, "user-1", "a@example.com", domain.RoleCustomer)
	if !errors.Is(err, errStoreUnavailable) {
		t.Errorf("after repeated failures: got %v, want errStoreUnavailable", err)
	}
}
