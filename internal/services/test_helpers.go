package services

import (
	"context"
	"time"

	"github.com/lamarea/storefront/internal/cart"
	"github.com/lamarea/storefront/internal/models"
)

// MockUserRepository implements UserRepository with function fields
type MockUserRepository struct {
	GetByEmailFunc          func(ctx context.Context, email string) (*models.User, error)
	GetByIDFunc             func(ctx context.Context, id string) (*models.User, error)
	CreateFunc              func(ctx context.Context, user *models.User) (*models.User, error)
	RecordFailedAttemptFunc func(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (int, *time.Time, error)
	ResetThrottleFunc       func(ctx context.Context, id string) error
	ClearExpiredLockFunc    func(ctx context.Context, id string) error
	TouchLoginAttemptFunc   func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return user, nil
}

func (m *MockUserRepository) RecordFailedAttempt(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (int, *time.Time, error) {
	if m.RecordFailedAttemptFunc != nil {
		return m.RecordFailedAttemptFunc(ctx, id, maxAttempts, lockUntil)
	}
	return 1, nil, nil
}

func (m *MockUserRepository) ResetThrottle(ctx context.Context, id string) error {
	if m.ResetThrottleFunc != nil {
		return m.ResetThrottleFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) ClearExpiredLock(ctx context.Context, id string) error {
	if m.ClearExpiredLockFunc != nil {
		return m.ClearExpiredLockFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) TouchLoginAttempt(ctx context.Context, id string) error {
	if m.TouchLoginAttemptFunc != nil {
		return m.TouchLoginAttemptFunc(ctx, id)
	}
	return nil
}

// MockProductCatalog implements ProductCatalog with function fields
type MockProductCatalog struct {
	GetByIDFunc  func(ctx context.Context, id string) (*models.Product, error)
	GetByIDsFunc func(ctx context.Context, ids []string) (map[string]*models.Product, error)
}

func (m *MockProductCatalog) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockProductCatalog) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	if m.GetByIDsFunc != nil {
		return m.GetByIDsFunc(ctx, ids)
	}
	return map[string]*models.Product{}, nil
}

// MockCartStore implements cart.Store with function fields
type MockCartStore struct {
	ItemsFunc          func(ctx context.Context, cartID string) ([]models.CartItem, error)
	AddItemFunc        func(ctx context.Context, cartID, productID string, quantity int) error
	UpdateQuantityFunc func(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItemFunc     func(ctx context.Context, cartID, itemID string) (cart.RemoveResult, error)
	MergeFunc          func(ctx context.Context, dstID, srcID string) error
	ClearFunc          func(ctx context.Context, cartID string) error
	PruneIdleFunc      func(ctx context.Context, cutoff time.Time) (int, error)
}

func (m *MockCartStore) Items(ctx context.Context, cartID string) ([]models.CartItem, error) {
	if m.ItemsFunc != nil {
		return m.ItemsFunc(ctx, cartID)
	}
	return []models.CartItem{}, nil
}

func (m *MockCartStore) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	if m.AddItemFunc != nil {
		return m.AddItemFunc(ctx, cartID, productID, quantity)
	}
	return nil
}

func (m *MockCartStore) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if m.UpdateQuantityFunc != nil {
		return m.UpdateQuantityFunc(ctx, cartID, itemID, quantity)
	}
	return nil
}

func (m *MockCartStore) RemoveItem(ctx context.Context, cartID, itemID string) (cart.RemoveResult, error) {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, cartID, itemID)
	}
	return cart.RemoveResult{}, nil
}

func (m *MockCartStore) Merge(ctx context.Context, dstID, srcID string) error {
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, dstID, srcID)
	}
	return nil
}

func (m *MockCartStore) Clear(ctx context.Context, cartID string) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, cartID)
	}
	return nil
}

func (m *MockCartStore) PruneIdle(ctx context.Context, cutoff time.Time) (int, error) {
	if m.PruneIdleFunc != nil {
		return m.PruneIdleFunc(ctx, cutoff)
	}
	return 0, nil
}

// NewTestUser creates a verified test user
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:            id,
		Email:         email,
		Name:          name,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTestUserWithPassword creates a verified test user with the given hash
func NewTestUserWithPassword(id, email, name, passwordHash string) *models.User {
	user := NewTestUser(id, email, name)
	user.PasswordHash = passwordHash
	return user
}

// NewTestUserUnverified creates a user with unverified email
func NewTestUserUnverified(id, email, name string) *models.User {
	user := NewTestUser(id, email, name)
	user.EmailVerified = false
	return user
}

// NewTestProduct creates a catalog product for tests
func NewTestProduct(id, name string, priceCents int64) *models.Product {
	return &models.Product{
		ID:         id,
		Name:       name,
		Species:    "Thunnus albacares",
		Origin:     "Pacific",
		Unit:       "lb",
		PriceCents: priceCents,
		Available:  true,
	}
}
