package service

import (
	"context"
	"sync"
	"time"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/events"
)

type memUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	byPhone map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    map[string]*domain.User{},
		byEmail: map[string]*domain.User{},
		byPhone: map[string]*domain.User{},
	}
}

func (m *memUserRepo) Create(u *domain.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	if _, ok := m.byPhone[u.Phone]; ok {
		return domain.ErrDuplicatePhone
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	m.byPhone[u.Phone] = u
	return nil
}

func (m *memUserRepo) GetByID(id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByEmail(email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByPhone(phone string) (*domain.User, error) {
	if u, ok := m.byPhone[phone]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) Update(u *domain.User) error {
	u.UpdatedAt = time.Now()
	m.byID[u.ID] = u
	return nil
}

func (m *memUserRepo) Deactivate(id string) error {
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsActive = false
	return nil
}

func (m *memUserRepo) List() ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

type memTokenStore struct {
	mu        sync.Mutex
	refresh   map[string]string
	blacklist map[string]time.Time
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{refresh: map[string]string{}, blacklist: map[string]time.Time{}}
}

func (m *memTokenStore) SaveRefreshToken(_ context.Context, userID, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[userID] = token
	return nil
}

func (m *memTokenStore) GetRefreshToken(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.refresh[userID]
	if !ok {
		return "", domain.ErrTokenMismatch
	}
	return token, nil
}

func (m *memTokenStore) DeleteRefreshToken(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refresh, userID)
	return nil
}

func (m *memTokenStore) BlacklistAccessToken(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist[token] = time.Now().Add(ttl)
	return nil
}

func (m *memTokenStore) IsAccessTokenBlacklisted(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.blacklist[token]
	return ok && time.Now().Before(expiry), nil
}

type memInventoryRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.InventoryRecord
	byPair map[string]string // productID|ownerID -> id
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{byID: map[string]*domain.InventoryRecord{}, byPair: map[string]string{}}
}

func pairKey(productID, ownerID string) string { return productID + "|" + ownerID }

func (m *memInventoryRepo) Create(rec *domain.InventoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	m.byID[rec.ID] = rec
	m.byPair[pairKey(rec.ProductID, rec.OwnerID)] = rec.ID
	return nil
}

func (m *memInventoryRepo) GetByID(id string) (*domain.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.byID[id]; ok {
		return rec, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memInventoryRepo) GetByProductOwner(productID, ownerID string) (*domain.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byPair[pairKey(productID, ownerID)]; ok {
		return m.byID[id], nil
	}
	return nil, domain.ErrNotFound
}

func (m *memInventoryRepo) ListByOwner(ownerID string) ([]*domain.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.InventoryRecord{}
	for _, rec := range m.byID {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memInventoryRepo) ListBelowReorderLevel(ownerID string) ([]*domain.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.InventoryRecord{}
	for _, rec := range m.byID {
		if rec.OwnerID == ownerID && rec.NeedsReorder() {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memInventoryRepo) ReserveStock(id string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	return rec.Reserve(qty), nil
}

func (m *memInventoryRepo) ReleaseStock(id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Release(qty)
	return nil
}

func (m *memInventoryRepo) ConfirmStock(id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	return rec.Confirm(qty)
}

func (m *memInventoryRepo) AdjustStock(id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.CurrentStock+delta < rec.ReservedStock {
		return domain.ErrInsufficientStock
	}
	rec.CurrentStock += delta
	return nil
}

func (m *memInventoryRepo) AddDiscount(id string, d domain.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Discounts = append(rec.Discounts, d)
	return nil
}

func (m *memInventoryRepo) RemoveDiscount(id string, discountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	kept := rec.Discounts[:0]
	for _, d := range rec.Discounts {
		if d.ID != discountID {
			kept = append(kept, d)
		}
	}
	rec.Discounts = kept
	return nil
}

func (m *memInventoryRepo) DeactivateExpiredDiscounts(now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	touched := 0
	for _, rec := range m.byID {
		changed := false
		for i := range rec.Discounts {
			d := &rec.Discounts[i]
			if d.IsActive && !now.Before(d.ValidUntil) {
				d.IsActive = false
				changed = true
			}
		}
		if changed {
			touched++
		}
	}
	return touched, nil
}

type memOrderRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{byID: map[string]*domain.Order{}}
}

func (m *memOrderRepo) Create(o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[o.ID] = o
	return nil
}

func (m *memOrderRepo) GetByID(id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.byID[id]; ok {
		return o, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memOrderRepo) Save(o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[o.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[o.ID] = o
	return nil
}

func (m *memOrderRepo) ListByCustomer(customerID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Order{}
	for _, o := range m.byID {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) ListByRetailer(retailerID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Order{}
	for _, o := range m.byID {
		if o.RetailerID == retailerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) ListStalePending(cutoff time.Time) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Order{}
	for _, o := range m.byID {
		if o.Status == domain.OrderPending && o.CreatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out, nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (m *memPublisher) PublishOrderEvent(e events.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memPublisher) Close() error { return nil }
