package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/security/auth"
)

func newTestAuthService() (*AuthService, *memUserRepo, *memTokenStore) {
	users := newMemUserRepo()
	store := newMemTokenStore()
	tm := auth.NewTokenManager("test-secret", "storefront-test", time.Minute, time.Hour)
	tokens := NewTokenService(tm, store, nil)
	return NewAuthService(users, tokens, nil), users, store
}

func customerInput(email, phone string) RegisterInput {
	return RegisterInput{
		Email:    email,
		Phone:    phone,
		Password: "s3cret-pass",
		Role:     domain.RoleCustomer,
		Profile:  &domain.CustomerProfile{FullName: "Asha Rao"},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	res, err := svc.Register(ctx, customerInput("asha@example.com", "9000000001"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !res.User.IsActive {
		t.Error("new account should be active")
	}
	if res.Tokens == nil || res.Tokens.AccessToken == "" {
		t.Fatal("registration should issue a token pair")
	}

	login, err := svc.Login(ctx, "asha@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.LastLoginAt == nil {
		t.Error("login should record LastLoginAt")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, customerInput("asha@example.com", "9000000001")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := svc.Register(ctx, customerInput("asha@example.com", "9000000002"))
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Errorf("duplicate email: got %v, want ErrDuplicateEmail", err)
	}

	_, err = svc.Register(ctx, customerInput("other@example.com", "9000000001"))
	if !errors.Is(err, domain.ErrDuplicatePhone) {
		t.Errorf("duplicate phone: got %v, want ErrDuplicatePhone", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	short := customerInput("a@example.com", "9000000001")
	short.Password = "short"
	if _, err := svc.Register(ctx, short); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("short password: got %v, want ErrValidation", err)
	}

	mismatch := customerInput("a@example.com", "9000000001")
	mismatch.Role = domain.RoleRetailer
	if _, err := svc.Register(ctx, mismatch); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("profile/role mismatch: got %v, want ErrValidation", err)
	}

	wholesaler := RegisterInput{
		Email:    "w@example.com",
		Phone:    "9000000003",
		Password: "s3cret-pass",
		Role:     domain.RoleWholesaler,
		Profile:  &domain.WholesalerProfile{BusinessName: "Acme Traders"},
	}
	if _, err := svc.Register(ctx, wholesaler); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("wholesaler without GSTIN: got %v, want ErrValidation", err)
	}
}

func TestLoginConflatesUnknownAndWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, customerInput("asha@example.com", "9000000001")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, unknownErr := svc.Login(ctx, "nobody@example.com", "whatever-pass")
	_, wrongErr := svc.Login(ctx, "asha@example.com", "wrong-password")

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Error("unknown email and wrong password must be indistinguishable")
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	res, err := svc.Register(ctx, customerInput("asha@example.com", "9000000001"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := svc.Deactivate(ctx, res.User.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	if _, err := svc.Login(ctx, "asha@example.com", "s3cret-pass"); !errors.Is(err, domain.ErrAccountDeactivated) {
		t.Errorf("login on deactivated account: got %v, want ErrAccountDeactivated", err)
	}
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	res, err := svc.Register(ctx, customerInput("asha@example.com", "9000000001"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.Refresh(ctx, res.Tokens.RefreshToken); err != nil {
		t.Fatalf("Refresh on active account failed: %v", err)
	}

	if err := users.Deactivate(res.User.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	// The second refresh rotated the token, so log in again is impossible;
	// reuse the original to prove the user check fires before rotation.
	if _, err := svc.Refresh(ctx, res.Tokens.RefreshToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("refresh for deactivated user: got %v, want ErrInvalidToken", err)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	res, err := svc.Register(ctx, customerInput("asha@example.com", "9000000001"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := svc.Logout(ctx, res.Tokens.AccessToken, res.User.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := svc.tokens.VerifyAccess(ctx, res.Tokens.AccessToken); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("access token after logout: got %v, want ErrInvalidToken", err)
	}
	if _, err := svc.Refresh(ctx, res.Tokens.RefreshToken); err == nil {
		t.Error("refresh token should be dead after logout")
	}
}

func TestUpdateProfileChecksRole(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	res, err := svc.Register(ctx, customerInput("asha@example.com", "9000000001"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err = svc.UpdateProfile(ctx, res.User.ID, &domain.RetailerProfile{BusinessName: "Shop"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("cross-role profile update: got %v, want ErrValidation", err)
	}

	updated, err := svc.UpdateProfile(ctx, res.User.ID, &domain.CustomerProfile{FullName: "Asha R", Address: "12 MG Road"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Profile.(*domain.CustomerProfile).Address != "12 MG Road" {
		t.Error("profile update not applied")
	}
}
