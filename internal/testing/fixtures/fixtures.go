package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/model"
	"github.com/forgo/storefront-e2e/internal/repository"
)

// Factory creates ad-hoc records in a test database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ctx returns a context bounded by the test
func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email         string
	Password      string
	Role          model.UserRole
	EmailVerified bool
	SeedTag       string
}

// CreateUser creates a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Email:         fmt.Sprintf("user_%s@e2e.test", randomID()),
		Password:      "testpass123",
		Role:          model.UserRoleCustomer,
		EmailVerified: true,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	h := string(hash)

	user := &model.User{
		Email:         o.Email,
		Hash:          &h,
		Firstname:     "Test",
		Lastname:      "User",
		Role:          o.Role,
		EmailVerified: o.EmailVerified,
		SeedTag:       o.SeedTag,
	}
	if err := repository.NewUserRepository(f.db).Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	user.Hash = nil // Don't expose hash in fixture
	return user
}

// CreateAdmin creates an admin user
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRoleAdmin
	})
}

// ============================================================================
// Key Fixtures
// ============================================================================

// KeyOpts customizes key creation
type KeyOpts struct {
	Key       string
	ExpiresAt time.Time
}

// CreateAuthKey creates an unconsumed key for user
func (f *Factory) CreateAuthKey(t *testing.T, user *model.User, purpose model.KeyPurpose, opts ...func(*KeyOpts)) *model.AuthKey {
	t.Helper()

	o := &KeyOpts{
		Key:       fmt.Sprintf("key_%s", randomID()),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	for _, fn := range opts {
		fn(o)
	}

	key := &model.AuthKey{
		Key:       o.Key,
		Purpose:   purpose,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: o.ExpiresAt,
	}
	if err := repository.NewAuthKeyRepository(f.db).Create(ctx(t), key); err != nil {
		t.Fatalf("fixtures: failed to create key: %v", err)
	}
	return key
}

// CreateExpiredKey creates a key that expired an hour ago
func (f *Factory) CreateExpiredKey(t *testing.T, user *model.User, purpose model.KeyPurpose) *model.AuthKey {
	return f.CreateAuthKey(t, user, purpose, func(o *KeyOpts) {
		o.ExpiresAt = time.Now().Add(-time.Hour)
	})
}

// ============================================================================
// Catalog Fixtures
// ============================================================================

// CreateProduct creates a product with the given price and stock
func (f *Factory) CreateProduct(t *testing.T, price string, stock int) *model.Product {
	t.Helper()

	p := &model.Product{
		SKU:   fmt.Sprintf("SKU-%s", randomID()),
		Name:  "Test Product",
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	if err := repository.NewProductRepository(f.db).Create(ctx(t), p); err != nil {
		t.Fatalf("fixtures: failed to create product: %v", err)
	}
	return p
}
