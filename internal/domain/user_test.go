package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRetailerProfileRequiresBusinessName(t *testing.T) {
	p := &RetailerProfile{}
	if err := p.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	p.BusinessName = "Acme Traders"
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWholesalerProfileRequiresGSTINAndBank(t *testing.T) {
	p := &WholesalerProfile{BusinessName: "Bulk Goods"}
	if err := p.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without gstin, got %v", err)
	}
	p.GSTIN = "22AAAAA0000A1Z5"
	if err := p.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without bank details, got %v", err)
	}
	p.Bank = BankDetails{AccountNumber: "1234567890", IFSC: "HDFC0000001", HolderName: "Bulk Goods"}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnmarshalProfileUsesRoleDiscriminator(t *testing.T) {
	raw, _ := json.Marshal(map[string]string{"businessName": "Acme"})

	p, err := UnmarshalProfile(RoleRetailer, raw)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	rp, ok := p.(*RetailerProfile)
	if !ok || rp.BusinessName != "Acme" {
		t.Fatalf("expected retailer profile, got %T %+v", p, p)
	}

	if _, err := UnmarshalProfile(Role("UNKNOWN"), raw); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown role, got %v", err)
	}
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.c", PasswordHash: "bcrypt-hash"}
	out, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) == "" || json.Valid(out) == false {
		t.Fatalf("bad json output")
	}
	var decoded map[string]any
	_ = json.Unmarshal(out, &decoded)
	for k := range decoded {
		if k == "passwordHash" || k == "PasswordHash" {
			t.Fatalf("password hash leaked into serialized user")
		}
	}
}
