package isolation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/forgo/storefront-e2e/internal/model"
)

// ErrInvalidPurpose is returned for a purpose outside ^[a-z][a-zA-Z0-9]*$
var ErrInvalidPurpose = errors.New("invalid isolation purpose")

// DefaultEmailDomain is the mail domain of derived accounts
const DefaultEmailDomain = "e2e.test"

// DefaultPassword is the login password of every derived account
const DefaultPassword = "E2e-Passw0rd!"

var purposePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

// Namespace separates suites so two suites using the same purpose name
// never share an account.
type Namespace string

const (
	NamespaceIsolated   Namespace = "isolated"
	NamespaceBitcoin    Namespace = "bitcoin"
	NamespaceCheckout   Namespace = "checkout"
	NamespaceAccount    Namespace = "account"
	NamespaceActivation Namespace = "activation" // unverified accounts awaiting activation
)

// Namespaces lists every namespace
var Namespaces = []Namespace{
	NamespaceIsolated,
	NamespaceBitcoin,
	NamespaceCheckout,
	NamespaceAccount,
	NamespaceActivation,
}

// DeriveKey returns the isolation key for (purpose, lane).
//
// The purpose is rendered in kebab case, which is injective for the accepted
// alphabet because '-' never occurs in a purpose, and joined to the lane with
// '.', which occurs in neither. Equal inputs therefore always give equal keys
// and different inputs always give different keys.
func DeriveKey(purpose string, lane Lane) (string, error) {
	if !purposePattern.MatchString(purpose) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPurpose, purpose)
	}
	if !lane.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLane, lane)
	}
	return kebab(purpose) + "." + string(lane), nil
}

func kebab(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UserRef identifies the account derived for one (namespace, purpose, lane)
type UserRef struct {
	Namespace     Namespace
	Purpose       string
	Lane          Lane
	Key           string
	Email         string
	Password      string
	Firstname     string
	Lastname      string
	Verification  model.Verification
	ActivationKey string
	ResetKey      string
}

// Fixture converts the reference into a seedable user fixture
func (r UserRef) Fixture() model.UserFixture {
	return model.UserFixture{
		Email:         r.Email,
		Password:      r.Password,
		Firstname:     r.Firstname,
		Lastname:      r.Lastname,
		Role:          model.UserRoleCustomer,
		Verification:  r.Verification,
		ActivationKey: r.ActivationKey,
		ResetKey:      r.ResetKey,
	}
}

// Provisioner materialises a user fixture in the backend.
// The seeder implements it; the allocator never talks to the backend itself.
type Provisioner interface {
	EnsureUser(ctx context.Context, fixture model.UserFixture) error
}

// Allocator derives isolated accounts for the lane it was created for
type Allocator struct {
	lane   Lane
	domain string
}

// NewAllocator creates an allocator for the named lane.
// An empty lane name means sequential execution and maps to LaneDefault.
func NewAllocator(laneName string) (*Allocator, error) {
	lane, err := ParseLane(laneName)
	if err != nil {
		return nil, err
	}
	return &Allocator{lane: lane, domain: DefaultEmailDomain}, nil
}

// ForLane creates an allocator for a known lane
func ForLane(lane Lane) *Allocator {
	if !lane.Valid() {
		lane = LaneDefault
	}
	return &Allocator{lane: lane, domain: DefaultEmailDomain}
}

// WithDomain returns a copy of the allocator deriving emails under domain
func (a *Allocator) WithDomain(domain string) *Allocator {
	cp := *a
	if domain != "" {
		cp.domain = domain
	}
	return &cp
}

// Lane returns the allocator's lane
func (a *Allocator) Lane() Lane {
	return a.lane
}

// User derives the account for purpose in namespace ns
func (a *Allocator) User(ns Namespace, purpose string) (UserRef, error) {
	key, err := DeriveKey(purpose, a.lane)
	if err != nil {
		return UserRef{}, err
	}
	flat := strings.ReplaceAll(key, ".", "_")

	verification := model.Verified
	if ns == NamespaceActivation {
		verification = model.Unverified
	}

	return UserRef{
		Namespace:     ns,
		Purpose:       purpose,
		Lane:          a.lane,
		Key:           key,
		Email:         fmt.Sprintf("%s.%s@%s", ns, key, a.domain),
		Password:      DefaultPassword,
		Firstname:     "E2E",
		Lastname:      fmt.Sprintf("%s %s", ns, a.lane),
		Verification:  verification,
		ActivationKey: fmt.Sprintf("act_%s_%s", ns, flat),
		ResetKey:      fmt.Sprintf("rst_%s_%s", ns, flat),
	}, nil
}

// IsolatedUser derives a general-purpose account for purpose
func (a *Allocator) IsolatedUser(purpose string) (UserRef, error) {
	return a.User(NamespaceIsolated, purpose)
}

// BitcoinUser derives an account for the Bitcoin payment flow
func (a *Allocator) BitcoinUser(purpose string) (UserRef, error) {
	return a.User(NamespaceBitcoin, purpose)
}

// CheckoutUser derives an account for checkout tests
func (a *Allocator) CheckoutUser(purpose string) (UserRef, error) {
	return a.User(NamespaceCheckout, purpose)
}

// AccountUser derives an account for account-management tests
func (a *Allocator) AccountUser(purpose string) (UserRef, error) {
	return a.User(NamespaceAccount, purpose)
}

// ActivationUser derives an unverified account holding an activation key
func (a *Allocator) ActivationUser(purpose string) (UserRef, error) {
	return a.User(NamespaceActivation, purpose)
}

// OrderNumber derives a human-readable order number unique to this lane
func (a *Allocator) OrderNumber(seq int) string {
	return fmt.Sprintf("E2E-%02d-%05d", a.lane.Index(), seq)
}

// Lookup ensures the account behind ref exists, provisioning it lazily.
// An existing account is left as it is.
func (a *Allocator) Lookup(ctx context.Context, ref UserRef, p Provisioner) (UserRef, error) {
	if ref.Lane != a.lane {
		return UserRef{}, fmt.Errorf("user %s belongs to lane %s, allocator serves %s", ref.Email, ref.Lane, a.lane)
	}
	if err := p.EnsureUser(ctx, ref.Fixture()); err != nil {
		return UserRef{}, fmt.Errorf("provisioning %s: %w", ref.Email, err)
	}
	return ref, nil
}
