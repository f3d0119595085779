package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/model"
)

// ============================================================================
// Mock Database
// ============================================================================

type mockDB struct {
	connectFunc func(ctx context.Context) error
	pingFunc    func(ctx context.Context) error
	executeFunc func(ctx context.Context, query string, vars map[string]interface{}) error
	closed      int
}

func (m *mockDB) Connect(ctx context.Context) error {
	if m.connectFunc != nil {
		return m.connectFunc(ctx)
	}
	return nil
}

func (m *mockDB) Close() error {
	m.closed++
	return nil
}

func (m *mockDB) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

func (m *mockDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	return nil, nil
}

func (m *mockDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	return nil, database.ErrNotFound
}

func (m *mockDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, query, vars)
	}
	return nil
}

func (m *mockDB) BeginTx(ctx context.Context) (database.Transaction, error) {
	return nil, database.ErrConnection
}

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	createFunc            func(ctx context.Context, user *model.User) error
	getByEmailFunc        func(ctx context.Context, email string) (*model.User, error)
	updateCredentialsFunc func(ctx context.Context, userID, hash string, verified bool) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateCredentials(ctx context.Context, userID, hash string, verified bool) error {
	if m.updateCredentialsFunc != nil {
		return m.updateCredentialsFunc(ctx, userID, hash, verified)
	}
	return nil
}

type mockKeyRepo struct {
	createFunc   func(ctx context.Context, key *model.AuthKey) error
	getByKeyFunc func(ctx context.Context, key string) (*model.AuthKey, error)
	rearmFunc    func(ctx context.Context, id, userID string, expiresAt time.Time) error
	consumeFunc  func(ctx context.Context, key string, purpose model.KeyPurpose, now time.Time) (*model.AuthKey, error)
}

func (m *mockKeyRepo) Create(ctx context.Context, key *model.AuthKey) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, key)
	}
	return nil
}

func (m *mockKeyRepo) GetByKey(ctx context.Context, key string) (*model.AuthKey, error) {
	if m.getByKeyFunc != nil {
		return m.getByKeyFunc(ctx, key)
	}
	return nil, nil
}

func (m *mockKeyRepo) Rearm(ctx context.Context, id, userID string, expiresAt time.Time) error {
	if m.rearmFunc != nil {
		return m.rearmFunc(ctx, id, userID, expiresAt)
	}
	return nil
}

func (m *mockKeyRepo) Consume(ctx context.Context, key string, purpose model.KeyPurpose, now time.Time) (*model.AuthKey, error) {
	if m.consumeFunc != nil {
		return m.consumeFunc(ctx, key, purpose, now)
	}
	return nil, nil
}

type mockProductRepo struct {
	createFunc   func(ctx context.Context, p *model.Product) error
	getBySKUFunc func(ctx context.Context, sku string) (*model.Product, error)
}

func (m *mockProductRepo) Create(ctx context.Context, p *model.Product) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	return nil
}

func (m *mockProductRepo) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	if m.getBySKUFunc != nil {
		return m.getBySKUFunc(ctx, sku)
	}
	return nil, nil
}

type mockCouponRepo struct {
	createFunc    func(ctx context.Context, c *model.Coupon) error
	getByCodeFunc func(ctx context.Context, code string) (*model.Coupon, error)
}

func (m *mockCouponRepo) Create(ctx context.Context, c *model.Coupon) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	return nil
}

func (m *mockCouponRepo) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	if m.getByCodeFunc != nil {
		return m.getByCodeFunc(ctx, code)
	}
	return nil, nil
}

type mockOrderRepo struct {
	createFunc      func(ctx context.Context, o *model.Order, ownerID string) error
	getByNumberFunc func(ctx context.Context, number string) (*model.Order, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, o *model.Order, ownerID string) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, o, ownerID)
	}
	return nil
}

func (m *mockOrderRepo) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	if m.getByNumberFunc != nil {
		return m.getByNumberFunc(ctx, number)
	}
	return nil, nil
}

type mockFixtureStore struct {
	recordRunFunc    func(ctx context.Context, run *model.SeedRun) error
	deleteTaggedFunc func(ctx context.Context, seedTag string) (map[string]int, error)
	truncateFunc     func(ctx context.Context) error
}

func (m *mockFixtureStore) RecordRun(ctx context.Context, run *model.SeedRun) error {
	if m.recordRunFunc != nil {
		return m.recordRunFunc(ctx, run)
	}
	return nil
}

func (m *mockFixtureStore) DeleteTagged(ctx context.Context, seedTag string) (map[string]int, error) {
	if m.deleteTaggedFunc != nil {
		return m.deleteTaggedFunc(ctx, seedTag)
	}
	return map[string]int{}, nil
}

func (m *mockFixtureStore) Truncate(ctx context.Context) error {
	if m.truncateFunc != nil {
		return m.truncateFunc(ctx)
	}
	return nil
}

// ============================================================================
// In-memory store wired through the mocks
// ============================================================================

// memStore keeps records in maps and enforces the unique keys the real
// schema does
type memStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*model.User
	keys     map[string]*model.AuthKey
	products map[string]*model.Product
	coupons  map[string]*model.Coupon
	orders   map[string]*model.Order
	owners   map[string]string
	runs     []*model.SeedRun

	userRepo    *mockUserRepo
	keyRepo     *mockKeyRepo
	productRepo *mockProductRepo
	couponRepo  *mockCouponRepo
	orderRepo   *mockOrderRepo
	fixtures    *mockFixtureStore
}

func newMemStore() *memStore {
	s := &memStore{
		users:    make(map[string]*model.User),
		keys:     make(map[string]*model.AuthKey),
		products: make(map[string]*model.Product),
		coupons:  make(map[string]*model.Coupon),
		orders:   make(map[string]*model.Order),
		owners:   make(map[string]string),
	}

	s.userRepo = &mockUserRepo{
		createFunc: func(_ context.Context, u *model.User) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			email := strings.ToLower(u.Email)
			if _, ok := s.users[email]; ok {
				return fmt.Errorf("%w: email %s already exists", database.ErrDuplicate, u.Email)
			}
			u.ID = s.nextID(database.TableUser)
			cp := *u
			s.users[email] = &cp
			return nil
		},
		getByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			u, ok := s.users[strings.ToLower(email)]
			if !ok {
				return nil, nil
			}
			cp := *u
			return &cp, nil
		},
		updateCredentialsFunc: func(_ context.Context, id, hash string, verified bool) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, u := range s.users {
				if u.ID == id {
					h := hash
					u.Hash = &h
					u.EmailVerified = verified
					return nil
				}
			}
			return database.ErrNotFound
		},
	}

	s.keyRepo = &mockKeyRepo{
		createFunc: func(_ context.Context, k *model.AuthKey) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.keys[k.Key]; ok {
				return fmt.Errorf("%w: key %s already exists", database.ErrDuplicate, k.Key)
			}
			k.ID = s.nextID(database.TableAuthKey)
			cp := *k
			s.keys[k.Key] = &cp
			return nil
		},
		getByKeyFunc: func(_ context.Context, key string) (*model.AuthKey, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			k, ok := s.keys[key]
			if !ok {
				return nil, nil
			}
			cp := *k
			return &cp, nil
		},
		rearmFunc: func(_ context.Context, id, userID string, expiresAt time.Time) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, k := range s.keys {
				if k.ID == id {
					k.ConsumedAt = nil
					k.UserID = userID
					k.ExpiresAt = expiresAt
					return nil
				}
			}
			return database.ErrNotFound
		},
		consumeFunc: func(_ context.Context, key string, purpose model.KeyPurpose, now time.Time) (*model.AuthKey, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			k, ok := s.keys[key]
			if !ok || k.StateAt(purpose, now) != model.KeyStateValid {
				return nil, nil
			}
			t := now
			k.ConsumedAt = &t
			cp := *k
			return &cp, nil
		},
	}

	s.productRepo = &mockProductRepo{
		createFunc: func(_ context.Context, p *model.Product) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.products[p.SKU]; ok {
				return fmt.Errorf("%w: product %s already exists", database.ErrDuplicate, p.SKU)
			}
			p.ID = s.nextID(database.TableProduct)
			cp := *p
			s.products[p.SKU] = &cp
			return nil
		},
		getBySKUFunc: func(_ context.Context, sku string) (*model.Product, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			p, ok := s.products[sku]
			if !ok {
				return nil, nil
			}
			cp := *p
			return &cp, nil
		},
	}

	s.couponRepo = &mockCouponRepo{
		createFunc: func(_ context.Context, c *model.Coupon) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.coupons[c.Code]; ok {
				return fmt.Errorf("%w: coupon %s already exists", database.ErrDuplicate, c.Code)
			}
			c.ID = s.nextID(database.TableCoupon)
			cp := *c
			s.coupons[c.Code] = &cp
			return nil
		},
		getByCodeFunc: func(_ context.Context, code string) (*model.Coupon, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			c, ok := s.coupons[code]
			if !ok {
				return nil, nil
			}
			cp := *c
			return &cp, nil
		},
	}

	s.orderRepo = &mockOrderRepo{
		createFunc: func(_ context.Context, o *model.Order, ownerID string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.orders[o.Number]; ok {
				return fmt.Errorf("%w: order %s already exists", database.ErrDuplicate, o.Number)
			}
			o.ID = s.nextID(database.TableOrder)
			cp := *o
			s.orders[o.Number] = &cp
			s.owners[o.Number] = ownerID
			return nil
		},
		getByNumberFunc: func(_ context.Context, number string) (*model.Order, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			o, ok := s.orders[number]
			if !ok {
				return nil, nil
			}
			cp := *o
			return &cp, nil
		},
	}

	s.fixtures = &mockFixtureStore{
		recordRunFunc: func(_ context.Context, run *model.SeedRun) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			run.ID = s.nextID(database.TableSeedRun)
			s.runs = append(s.runs, run)
			return nil
		},
	}
	return s
}

func (s *memStore) nextID(table string) string {
	s.seq++
	return fmt.Sprintf("%s:%d", table, s.seq)
}

func (s *memStore) seederConfig(db database.Database) SeederConfig {
	return SeederConfig{
		DB:       db,
		Users:    s.userRepo,
		Keys:     s.keyRepo,
		Products: s.productRepo,
		Coupons:  s.couponRepo,
		Orders:   s.orderRepo,
		Store:    s.fixtures,
	}
}
