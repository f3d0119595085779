package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/forgo/storefront-e2e/internal/isolation"
	"github.com/forgo/storefront-e2e/internal/model"
)

// UserKind selects a canonical account
type UserKind string

const (
	UserAdmin      UserKind = "admin"
	UserCustomer   UserKind = "customer"
	UserUnverified UserKind = "unverified"
)

// UserKinds lists the supported user kinds
var UserKinds = []UserKind{UserAdmin, UserCustomer, UserUnverified}

// CouponKind selects a canonical coupon
type CouponKind string

const (
	CouponPercentage CouponKind = "percentage"
	CouponFixed      CouponKind = "fixed"
	CouponExpired    CouponKind = "expired"
)

// CouponKinds lists the supported coupon kinds
var CouponKinds = []CouponKind{CouponPercentage, CouponFixed, CouponExpired}

// Spec is the raw content of a catalog
type Spec struct {
	Users          map[UserKind]model.UserFixture
	Products       []model.Product
	Coupons        map[CouponKind]model.Coupon
	ValidAddress   model.Address
	InvalidAddress model.Address
	Orders         []model.Order // owned by canonical users

	// Purposes registers the isolation purposes each namespace seeds up front
	Purposes map[isolation.Namespace][]string

	// LaneOrderPurpose names the account purpose whose per-lane user receives
	// a copy of every canonical order. Empty disables per-lane orders.
	LaneOrderPurpose string

	FillerCustomers int
	FakerSeed       int64
}

// Catalog is the immutable set of canonical test entities.
// Every accessor returns a copy; callers may modify results freely.
type Catalog struct {
	spec Spec
}

// New validates spec and returns a catalog holding a private copy of it
func New(spec Spec) (*Catalog, error) {
	if err := validateSpec(&spec); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &Catalog{spec: copySpec(spec)}, nil
}

// MustNew is like New but panics on an invalid spec
func MustNew(spec Spec) *Catalog {
	c, err := New(spec)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns a fresh catalog with the storefront's canonical fixtures
func Default() *Catalog {
	return MustNew(DefaultSpec())
}

// User returns the canonical account of the given kind
func (c *Catalog) User(kind UserKind) (model.UserFixture, error) {
	u, ok := c.spec.Users[kind]
	if !ok {
		return model.UserFixture{}, &model.DomainError{Kind: "user kind", Value: string(kind), Allowed: kindNames(UserKinds)}
	}
	return u, nil
}

// MustUser is like User but panics on an unknown kind
func (c *Catalog) MustUser(kind UserKind) model.UserFixture {
	return must(c.User(kind))
}

// Product returns the product at index
func (c *Catalog) Product(index int) (model.Product, error) {
	if index < 0 || index >= len(c.spec.Products) {
		allowed := make([]string, len(c.spec.Products))
		for i := range allowed {
			allowed[i] = strconv.Itoa(i)
		}
		return model.Product{}, &model.DomainError{Kind: "product index", Value: strconv.Itoa(index), Allowed: allowed}
	}
	return c.spec.Products[index], nil
}

// MustProduct is like Product but panics on an out-of-range index
func (c *Catalog) MustProduct(index int) model.Product {
	return must(c.Product(index))
}

// Products returns every product
func (c *Catalog) Products() []model.Product {
	out := make([]model.Product, len(c.spec.Products))
	copy(out, c.spec.Products)
	return out
}

// InStockProduct returns the first product with stock available
func (c *Catalog) InStockProduct() (model.Product, error) {
	return c.productByStock(true)
}

// MustInStockProduct is like InStockProduct but panics if none exists
func (c *Catalog) MustInStockProduct() model.Product {
	return must(c.InStockProduct())
}

// OutOfStockProduct returns the first product without stock
func (c *Catalog) OutOfStockProduct() (model.Product, error) {
	return c.productByStock(false)
}

// MustOutOfStockProduct is like OutOfStockProduct but panics if none exists
func (c *Catalog) MustOutOfStockProduct() model.Product {
	return must(c.OutOfStockProduct())
}

func (c *Catalog) productByStock(inStock bool) (model.Product, error) {
	present := map[bool]bool{}
	for _, p := range c.spec.Products {
		if p.InStock() == inStock {
			return p, nil
		}
		present[p.InStock()] = true
	}
	var allowed []string
	for _, v := range []bool{true, false} {
		if present[v] {
			allowed = append(allowed, stockState(v))
		}
	}
	return model.Product{}, &model.DomainError{Kind: "product stock", Value: stockState(inStock), Allowed: allowed}
}

func stockState(inStock bool) string {
	if inStock {
		return "in stock"
	}
	return "out of stock"
}

// Coupon returns the canonical coupon of the given kind
func (c *Catalog) Coupon(kind CouponKind) (model.Coupon, error) {
	cp, ok := c.spec.Coupons[kind]
	if !ok {
		return model.Coupon{}, &model.DomainError{Kind: "coupon kind", Value: string(kind), Allowed: kindNames(CouponKinds)}
	}
	return copyCoupon(cp), nil
}

// MustCoupon is like Coupon but panics on an unknown kind
func (c *Catalog) MustCoupon(kind CouponKind) model.Coupon {
	return must(c.Coupon(kind))
}

// ValidShippingAddress returns an address downstream verification accepts
func (c *Catalog) ValidShippingAddress() model.Address {
	return c.spec.ValidAddress
}

// InvalidShippingAddress returns an address downstream verification rejects
func (c *Catalog) InvalidShippingAddress() model.Address {
	return c.spec.InvalidAddress
}

// Orders returns the canonical orders
func (c *Catalog) Orders() []model.Order {
	out := make([]model.Order, len(c.spec.Orders))
	for i, o := range c.spec.Orders {
		out[i] = copyOrder(o)
	}
	return out
}

// Purposes returns the purposes registered for namespace ns
func (c *Catalog) Purposes(ns isolation.Namespace) ([]string, error) {
	p, ok := c.spec.Purposes[ns]
	if !ok {
		allowed := make([]string, 0, len(c.spec.Purposes))
		for k := range c.spec.Purposes {
			allowed = append(allowed, string(k))
		}
		sort.Strings(allowed)
		return nil, &model.DomainError{Kind: "namespace", Value: string(ns), Allowed: allowed}
	}
	out := make([]string, len(p))
	copy(out, p)
	return out, nil
}

func validateSpec(s *Spec) error {
	var errs []error

	for _, k := range UserKinds {
		u, ok := s.Users[k]
		if !ok {
			errs = append(errs, fmt.Errorf("missing %s user", k))
			continue
		}
		if err := u.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if u, ok := s.Users[UserAdmin]; ok && u.Role != model.UserRoleAdmin {
		errs = append(errs, fmt.Errorf("admin user %s must have role admin", u.Email))
	}
	if u, ok := s.Users[UserUnverified]; ok && u.Verified() {
		errs = append(errs, fmt.Errorf("unverified user %s must not be verified", u.Email))
	}

	var inStock, outOfStock bool
	for i := range s.Products {
		if err := s.Products[i].Validate(); err != nil {
			errs = append(errs, err)
		}
		if s.Products[i].InStock() {
			inStock = true
		} else {
			outOfStock = true
		}
	}
	if !inStock {
		errs = append(errs, errors.New("at least one in-stock product is required"))
	}
	if !outOfStock {
		errs = append(errs, errors.New("at least one out-of-stock product is required"))
	}

	for _, k := range CouponKinds {
		cp, ok := s.Coupons[k]
		if !ok {
			errs = append(errs, fmt.Errorf("missing %s coupon", k))
			continue
		}
		if err := cp.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if cp, ok := s.Coupons[CouponExpired]; ok && cp.ExpiresAt == nil {
		errs = append(errs, fmt.Errorf("expired coupon %s needs an expiry", cp.Code))
	}

	owners := make(map[string]bool, len(s.Users))
	for _, u := range s.Users {
		owners[u.Email] = true
	}
	for i := range s.Orders {
		if err := s.Orders[i].ValidateSeedable(); err != nil {
			errs = append(errs, err)
		}
		if !owners[s.Orders[i].OwnerEmail] {
			errs = append(errs, fmt.Errorf("order %s owned by unknown user %s", s.Orders[i].Number, s.Orders[i].OwnerEmail))
		}
	}

	for ns, purposes := range s.Purposes {
		for _, p := range purposes {
			if _, err := isolation.DeriveKey(p, isolation.LaneDefault); err != nil {
				errs = append(errs, fmt.Errorf("namespace %s: %w", ns, err))
			}
		}
	}
	if s.LaneOrderPurpose != "" && !contains(s.Purposes[isolation.NamespaceAccount], s.LaneOrderPurpose) {
		errs = append(errs, fmt.Errorf("lane order purpose %q is not a registered account purpose", s.LaneOrderPurpose))
	}
	if s.FillerCustomers < 0 {
		errs = append(errs, errors.New("filler customer count must not be negative"))
	}

	return errors.Join(errs...)
}

func copySpec(s Spec) Spec {
	out := s
	out.Users = make(map[UserKind]model.UserFixture, len(s.Users))
	for k, v := range s.Users {
		out.Users[k] = v
	}
	out.Products = make([]model.Product, len(s.Products))
	copy(out.Products, s.Products)
	out.Coupons = make(map[CouponKind]model.Coupon, len(s.Coupons))
	for k, v := range s.Coupons {
		out.Coupons[k] = copyCoupon(v)
	}
	out.Orders = make([]model.Order, len(s.Orders))
	for i, o := range s.Orders {
		out.Orders[i] = copyOrder(o)
	}
	out.Purposes = make(map[isolation.Namespace][]string, len(s.Purposes))
	for k, v := range s.Purposes {
		out.Purposes[k] = append([]string(nil), v...)
	}
	return out
}

func copyCoupon(c model.Coupon) model.Coupon {
	if c.MinOrderAmount != nil {
		v := *c.MinOrderAmount
		c.MinOrderAmount = &v
	}
	if c.ExpiresAt != nil {
		v := *c.ExpiresAt
		c.ExpiresAt = &v
	}
	return c
}

func copyOrder(o model.Order) model.Order {
	o.Items = append([]model.OrderItem(nil), o.Items...)
	o.History = append([]model.StatusChange(nil), o.History...)
	return o
}

func kindNames[K ~string](kinds []K) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
