package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role discriminates user subtypes sharing one base record.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleRetailer   Role = "RETAILER"
	RoleWholesaler Role = "WHOLESALER"
	RoleAdmin      Role = "ADMIN"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleRetailer, RoleWholesaler, RoleAdmin:
		return true
	}
	return false
}

// User represents a platform account. Accounts are soft-deactivated, never
// hard-deleted. PasswordHash is never serialized in API responses.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"` // globally unique
	Phone        string     `json:"phone"` // globally unique
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Profile      Profile    `json:"profile,omitempty"`
	IsActive     bool       `json:"isActive"`
	IsVerified   bool       `json:"isVerified"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Profile is the role-specific variant attached to a user. Each variant
// validates its own required fields.
type Profile interface {
	Role() Role
	Validate() error
}

// CustomerProfile holds customer-specific fields.
type CustomerProfile struct {
	FullName string `json:"fullName"`
	Address  string `json:"address,omitempty"`
}

func (p *CustomerProfile) Role() Role { return RoleCustomer }

func (p *CustomerProfile) Validate() error {
	if p.FullName == "" {
		return fmt.Errorf("%w: fullName is required", ErrValidation)
	}
	return nil
}

// RetailerProfile holds retailer-specific fields.
type RetailerProfile struct {
	BusinessName    string `json:"businessName"`
	BusinessAddress string `json:"businessAddress,omitempty"`
}

func (p *RetailerProfile) Role() Role { return RoleRetailer }

func (p *RetailerProfile) Validate() error {
	if p.BusinessName == "" {
		return fmt.Errorf("%w: businessName is required for retailers", ErrValidation)
	}
	return nil
}

// BankDetails identifies the settlement account for wholesalers.
type BankDetails struct {
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	HolderName    string `json:"holderName"`
}

// WholesalerProfile holds wholesaler-specific fields.
type WholesalerProfile struct {
	BusinessName string      `json:"businessName"`
	GSTIN        string      `json:"gstin"`
	Bank         BankDetails `json:"bank"`
}

func (p *WholesalerProfile) Role() Role { return RoleWholesaler }

func (p *WholesalerProfile) Validate() error {
	if p.BusinessName == "" {
		return fmt.Errorf("%w: businessName is required for wholesalers", ErrValidation)
	}
	if p.GSTIN == "" {
		return fmt.Errorf("%w: gstin is required for wholesalers", ErrValidation)
	}
	if p.Bank.AccountNumber == "" || p.Bank.IFSC == "" {
		return fmt.Errorf("%w: bank account details are required for wholesalers", ErrValidation)
	}
	return nil
}

// AdminProfile carries no extra fields; admins are provisioned operationally.
type AdminProfile struct{}

func (p *AdminProfile) Role() Role      { return RoleAdmin }
func (p *AdminProfile) Validate() error { return nil }

// UnmarshalProfile decodes the JSON profile column using the role as the
// variant discriminator.
func UnmarshalProfile(role Role, data []byte) (Profile, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	var p Profile
	switch role {
	case RoleCustomer:
		p = &CustomerProfile{}
	case RoleRetailer:
		p = &RetailerProfile{}
	case RoleWholesaler:
		p = &WholesalerProfile{}
	case RoleAdmin:
		p = &AdminProfile{}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to decode %s profile: %w", role, err)
	}
	return p, nil
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(user *User) error
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByPhone(phone string) (*User, error)
	Update(user *User) error
	Deactivate(id string) error
	List() ([]*User, error)
}
