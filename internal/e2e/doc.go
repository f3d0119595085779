// Package e2e holds the acceptance scenarios run against a live storefront.
//
// The tests are behind the e2e build tag and need the backend, its
// SurrealDB and a Playwright browser install:
//
//	E2E_LANE=chromium go test -tags e2e ./internal/e2e/...
//
// TestMain seeds the store before any test runs and aborts the run if
// seeding fails. Seeded data is removed afterwards only when E2E_CLEANUP=true.
package e2e
