package isolation

import (
	"context"
	"errors"
	"testing"

	"github.com/forgo/storefront-e2e/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	t.Parallel()

	k1, err := DeriveKey("authLogin", LaneChromium)
	require.NoError(t, err)
	k2, err := DeriveKey("authLogin", LaneChromium)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Equal(t, "auth-login.chromium", k1)
}

func TestDeriveKey_InjectiveOverPurposesAndLanes(t *testing.T) {
	t.Parallel()

	// Purposes chosen to collide under naive lower-casing or splitting
	purposes := []string{
		"authLogin", "authlogin", "auth", "authLoginX", "a", "aB", "ab",
		"test1Case", "test1case", "passwordReset", "password", "reset1",
	}

	seen := make(map[string]string)
	for _, p := range purposes {
		for _, l := range Lanes() {
			key, err := DeriveKey(p, l)
			require.NoError(t, err)
			input := p + "|" + string(l)
			if prev, dup := seen[key]; dup {
				t.Fatalf("key %q derived from both %s and %s", key, prev, input)
			}
			seen[key] = input
		}
	}
	assert.Len(t, seen, len(purposes)*len(Lanes()))
}

func TestDeriveKey_RejectsInvalidPurpose(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"", "AuthLogin", "auth-login", "auth.login", "auth login", "1auth"} {
		_, err := DeriveKey(p, LaneChromium)
		assert.ErrorIs(t, err, ErrInvalidPurpose, "purpose %q", p)
	}
}

func TestDeriveKey_RejectsUnknownLane(t *testing.T) {
	t.Parallel()

	_, err := DeriveKey("authLogin", Lane("opera"))
	assert.ErrorIs(t, err, ErrUnknownLane)
}

func TestParseLane(t *testing.T) {
	t.Parallel()

	lane, err := ParseLane("")
	require.NoError(t, err)
	assert.Equal(t, LaneDefault, lane, "missing lane should degrade to the default lane")

	lane, err = ParseLane(" Firefox ")
	require.NoError(t, err)
	assert.Equal(t, LaneFirefox, lane)

	_, err = ParseLane("opera")
	assert.ErrorIs(t, err, ErrUnknownLane)
}

func TestParseLanes_DedupesAndJoinsErrors(t *testing.T) {
	t.Parallel()

	lanes, err := ParseLanes([]string{"chromium", "firefox", "chromium"})
	require.NoError(t, err)
	assert.Equal(t, []Lane{LaneChromium, LaneFirefox}, lanes)

	_, err = ParseLanes([]string{"opera", "chromium", "edge"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownLane)
	assert.Contains(t, err.Error(), "opera")
	assert.Contains(t, err.Error(), "edge")
}

func TestAllocator_IsolatedUserDiffersPerLane(t *testing.T) {
	t.Parallel()

	chromium, err := NewAllocator("chromium")
	require.NoError(t, err)
	firefox, err := NewAllocator("firefox")
	require.NoError(t, err)

	a, err := chromium.IsolatedUser("authLogin")
	require.NoError(t, err)
	b, err := firefox.IsolatedUser("authLogin")
	require.NoError(t, err)

	assert.NotEqual(t, a.Email, b.Email)
	assert.NotEqual(t, a.ResetKey, b.ResetKey)
	assert.NotEqual(t, a.ActivationKey, b.ActivationKey)

	// Both must be independently valid for login
	assert.NoError(t, a.Fixture().Validate())
	assert.NoError(t, b.Fixture().Validate())
	assert.True(t, a.Fixture().Verified())
	assert.True(t, b.Fixture().Verified())
}

func TestAllocator_NamespacesDoNotCollide(t *testing.T) {
	t.Parallel()

	alloc := ForLane(LaneWebKit)
	seen := make(map[string]Namespace)
	for _, ns := range Namespaces {
		ref, err := alloc.User(ns, "profileUpdate")
		require.NoError(t, err)
		if prev, dup := seen[ref.Email]; dup {
			t.Fatalf("namespaces %s and %s share email %s", prev, ns, ref.Email)
		}
		seen[ref.Email] = ns
	}
}

func TestAllocator_Getters(t *testing.T) {
	t.Parallel()

	alloc := ForLane(LaneChromium)

	bitcoin, err := alloc.BitcoinUser("payInvoice")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin.pay-invoice.chromium@e2e.test", bitcoin.Email)

	checkout, err := alloc.CheckoutUser("applyCoupon")
	require.NoError(t, err)
	assert.Equal(t, NamespaceCheckout, checkout.Namespace)

	account, err := alloc.AccountUser("changeName")
	require.NoError(t, err)
	assert.Equal(t, model.Verified, account.Verification)

	activation, err := alloc.ActivationUser("activateAccount")
	require.NoError(t, err)
	assert.Equal(t, model.Unverified, activation.Verification)
	assert.Equal(t, "act_activation_activate-account_chromium", activation.ActivationKey)
	assert.NoError(t, activation.Fixture().Validate())
}

func TestAllocator_WithDomain(t *testing.T) {
	t.Parallel()

	alloc := ForLane(LaneFirefox).WithDomain("shop.example")
	ref, err := alloc.IsolatedUser("authLogin")
	require.NoError(t, err)
	assert.Equal(t, "isolated.auth-login.firefox@shop.example", ref.Email)
}

func TestAllocator_OrderNumberDistinctAcrossLanes(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, l := range Lanes() {
		num := ForLane(l).OrderNumber(1)
		assert.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
	}
	assert.Equal(t, "E2E-01-00042", ForLane(LaneChromium).OrderNumber(42))
}

type recordingProvisioner struct {
	fixtures []model.UserFixture
	err      error
}

func (p *recordingProvisioner) EnsureUser(ctx context.Context, f model.UserFixture) error {
	p.fixtures = append(p.fixtures, f)
	return p.err
}

func TestAllocator_LookupProvisionsLazily(t *testing.T) {
	t.Parallel()

	alloc := ForLane(LaneChromium)
	ref, err := alloc.CheckoutUser("guestCheckout")
	require.NoError(t, err)

	p := &recordingProvisioner{}
	got, err := alloc.Lookup(context.Background(), ref, p)
	require.NoError(t, err)
	assert.Equal(t, ref, got)
	require.Len(t, p.fixtures, 1)
	assert.Equal(t, ref.Email, p.fixtures[0].Email)
}

func TestAllocator_LookupRejectsForeignLane(t *testing.T) {
	t.Parallel()

	ref, err := ForLane(LaneFirefox).CheckoutUser("guestCheckout")
	require.NoError(t, err)

	p := &recordingProvisioner{}
	_, err = ForLane(LaneChromium).Lookup(context.Background(), ref, p)
	assert.Error(t, err)
	assert.Empty(t, p.fixtures)
}

func TestAllocator_LookupWrapsProvisionerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unreachable")
	alloc := ForLane(LaneDefault)
	ref, err := alloc.IsolatedUser("authLogin")
	require.NoError(t, err)

	_, err = alloc.Lookup(context.Background(), ref, &recordingProvisioner{err: boom})
	assert.ErrorIs(t, err, boom)
}
