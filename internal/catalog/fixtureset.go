package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/forgo/storefront-e2e/internal/isolation"
	"github.com/forgo/storefront-e2e/internal/model"
)

// FixtureSet is the complete seeding input for one run
type FixtureSet struct {
	Users    []model.UserFixture
	Products []model.Product
	Coupons  []model.Coupon
	Orders   []model.Order
	Lanes    []isolation.Lane

	// FillerCustomers counts the generated accounts at the end of Users
	FillerCustomers int
}

type buildOptions struct {
	filler    int
	fakerSeed int64
}

// BuildOption customises BuildFixtureSet
type BuildOption func(*buildOptions)

// WithFiller overrides the catalog's filler customer count and faker seed
func WithFiller(count int, seed int64) BuildOption {
	return func(o *buildOptions) {
		o.filler = count
		o.fakerSeed = seed
	}
}

// BuildFixtureSet expands the catalog over lanes: canonical records, one
// isolated account per registered (namespace, purpose, lane), per-lane copies
// of the canonical orders and deterministic filler customers.
// No lanes means a sequential run on the default lane.
func BuildFixtureSet(cat *Catalog, lanes []isolation.Lane, opts ...BuildOption) (*FixtureSet, error) {
	o := buildOptions{filler: cat.spec.FillerCustomers, fakerSeed: cat.spec.FakerSeed}
	for _, opt := range opts {
		opt(&o)
	}
	if o.filler < 0 {
		return nil, fmt.Errorf("filler customer count must not be negative, got %d", o.filler)
	}
	if len(lanes) == 0 {
		lanes = []isolation.Lane{isolation.LaneDefault}
	}

	set := &FixtureSet{
		Products:        cat.Products(),
		Orders:          cat.Orders(),
		Lanes:           append([]isolation.Lane(nil), lanes...),
		FillerCustomers: o.filler,
	}
	for _, k := range UserKinds {
		set.Users = append(set.Users, cat.MustUser(k))
	}
	for _, k := range CouponKinds {
		set.Coupons = append(set.Coupons, cat.MustCoupon(k))
	}

	for _, lane := range lanes {
		alloc := isolation.ForLane(lane)
		if alloc.Lane() != lane {
			return nil, fmt.Errorf("%w: %q", isolation.ErrUnknownLane, lane)
		}
		for _, ns := range isolation.Namespaces {
			for _, purpose := range cat.spec.Purposes[ns] {
				ref, err := alloc.User(ns, purpose)
				if err != nil {
					return nil, err
				}
				set.Users = append(set.Users, ref.Fixture())
			}
		}

		if cat.spec.LaneOrderPurpose == "" {
			continue
		}
		owner, err := alloc.AccountUser(cat.spec.LaneOrderPurpose)
		if err != nil {
			return nil, err
		}
		for i, ord := range cat.Orders() {
			ord.Number = alloc.OrderNumber(i + 1)
			ord.OwnerEmail = owner.Email
			if ord.TrackingNumber != "" {
				ord.TrackingNumber = fmt.Sprintf("%s-%02d", ord.TrackingNumber, lane.Index())
			}
			set.Orders = append(set.Orders, ord)
		}
	}

	set.Users = append(set.Users, FillerUsers(o.filler, o.fakerSeed)...)
	return set, nil
}

// FillerUsers generates n deterministic customer accounts.
// The same seed always yields the same accounts so reseeding stays idempotent.
func FillerUsers(n int, seed int64) []model.UserFixture {
	if n <= 0 {
		return nil
	}
	faker := gofakeit.New(seed)
	users := make([]model.UserFixture, n)
	for i := range users {
		first, last := faker.FirstName(), faker.LastName()
		users[i] = model.UserFixture{
			Email:        fmt.Sprintf("filler.%03d@%s", i+1, isolation.DefaultEmailDomain),
			Password:     isolation.DefaultPassword,
			Firstname:    first,
			Lastname:     last,
			Role:         model.UserRoleCustomer,
			Verification: model.Verified,
		}
	}
	return users
}

// Validate checks every record and rejects duplicate unique keys
func (s *FixtureSet) Validate() error {
	var errs []error

	emails := make(map[string]bool, len(s.Users))
	keys := make(map[string]string)
	checkKey := func(key, owner string) {
		if key == "" {
			return
		}
		if prev, dup := keys[key]; dup {
			errs = append(errs, fmt.Errorf("duplicate key %s (%s, %s)", key, prev, owner))
			return
		}
		keys[key] = owner
	}
	for _, u := range s.Users {
		if err := u.Validate(); err != nil {
			errs = append(errs, err)
		}
		email := strings.ToLower(u.Email)
		if emails[email] {
			errs = append(errs, fmt.Errorf("duplicate user email %s", u.Email))
		}
		emails[email] = true
		checkKey(u.ActivationKey, u.Email)
		checkKey(u.ResetKey, u.Email)
	}

	skus := make(map[string]bool, len(s.Products))
	for i := range s.Products {
		if err := s.Products[i].Validate(); err != nil {
			errs = append(errs, err)
		}
		if skus[s.Products[i].SKU] {
			errs = append(errs, fmt.Errorf("duplicate product sku %s", s.Products[i].SKU))
		}
		skus[s.Products[i].SKU] = true
	}

	codes := make(map[string]bool, len(s.Coupons))
	for i := range s.Coupons {
		if err := s.Coupons[i].Validate(); err != nil {
			errs = append(errs, err)
		}
		if codes[s.Coupons[i].Code] {
			errs = append(errs, fmt.Errorf("duplicate coupon code %s", s.Coupons[i].Code))
		}
		codes[s.Coupons[i].Code] = true
	}

	numbers := make(map[string]bool, len(s.Orders))
	for i := range s.Orders {
		o := &s.Orders[i]
		if err := o.ValidateSeedable(); err != nil {
			errs = append(errs, err)
		}
		if numbers[o.Number] {
			errs = append(errs, fmt.Errorf("duplicate order number %s", o.Number))
		}
		numbers[o.Number] = true
		if !emails[strings.ToLower(o.OwnerEmail)] {
			errs = append(errs, fmt.Errorf("order %s owned by unseeded user %s", o.Number, o.OwnerEmail))
		}
		for _, item := range o.Items {
			if !skus[item.SKU] {
				errs = append(errs, fmt.Errorf("order %s references unknown sku %s", o.Number, item.SKU))
			}
		}
	}

	return errors.Join(errs...)
}

// ExpectedTotal is the total the storefront should report for subtotal after
// applying coupon
func ExpectedTotal(subtotal decimal.Decimal, coupon model.Coupon) (decimal.Decimal, error) {
	return coupon.Apply(subtotal)
}

// WithinTolerance reports whether actual is within CouponTolerance of expected
func WithinTolerance(actual, expected decimal.Decimal) bool {
	return actual.Sub(expected).Abs().LessThanOrEqual(decimal.RequireFromString(CouponTolerance))
}
