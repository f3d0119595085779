//go:build e2e

package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/storefront-e2e/internal/apiclient"
	"github.com/forgo/storefront-e2e/internal/model"
)

func TestActivationKey_SingleUse(t *testing.T) {
	ctx := testContext(t)

	ref, err := alloc.ActivationUser("reuseActivation")
	require.NoError(t, err)
	// an earlier run may have spent the key
	require.NoError(t, suite.Seeder.RearmUser(ctx, ref.Fixture()))

	state, err := suite.Keys.State(ctx, ref.ActivationKey, model.KeyPurposeActivation)
	require.NoError(t, err)
	require.Equal(t, model.KeyStateValid, state)

	require.NoError(t, api.ActivateAccount(ctx, ref.ActivationKey))

	err = api.ActivateAccount(ctx, ref.ActivationKey)
	assert.ErrorIs(t, err, apiclient.ErrKeyRejected)

	state, err = suite.Keys.State(ctx, ref.ActivationKey, model.KeyPurposeActivation)
	require.NoError(t, err)
	assert.Equal(t, model.KeyStateConsumed, state)
}

func TestResetKey_SingleUse(t *testing.T) {
	ctx := testContext(t)

	ref, err := alloc.IsolatedUser("passwordReset")
	require.NoError(t, err)
	require.NoError(t, suite.Seeder.RearmUser(ctx, ref.Fixture()))

	require.NoError(t, api.ResetPassword(ctx, ref.ResetKey, "Fr3sh-Passw0rd!"))

	err = api.ResetPassword(ctx, ref.ResetKey, "An0ther-Passw0rd!")
	assert.ErrorIs(t, err, apiclient.ErrKeyRejected)

	_, err = api.Login(ctx, ref.Email, "Fr3sh-Passw0rd!")
	assert.NoError(t, err)
}
