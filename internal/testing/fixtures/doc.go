// Package fixtures provides ad-hoc record factories for integration tests.
//
// Canonical test data lives in the catalog package and is written by the
// seeder; these factories cover the one-off records a single test needs.
//
//	f := fixtures.New(tdb.DB)
//	user := f.CreateUser(t)
//	key := f.CreateAuthKey(t, user, model.KeyPurposePasswordReset)
package fixtures
