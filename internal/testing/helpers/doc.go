// Package helpers provides test utility functions for store-backed tests.
//
// # Assertion Helpers
//
//	helpers.AssertRecordExists(t, db, "user", user.ID)
//	helpers.AssertRecordNotExists(t, db, "auth_key", key.ID)
//	helpers.AssertCount(t, db, "user", "email = $email", vars, 1)
//
// # Value Helpers
//
//	helpers.AssertDecimal(t, "89.991", total)
//	min := helpers.DecimalPtr("50")
//	exp := helpers.TimePtr(time.Now())
package helpers
