// Package service implements seeding and single-use key handling for the
// storefront e2e suite.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Services define the repository interfaces they need, so tests use function-field mocks
//   - Errors are sentinel values from errors.go, wrapped with context
//   - Every store operation takes a context.Context
//
// # Seeding
//
// SeederService writes a catalog.FixtureSet into the store. A pass is
// idempotent: records that already exist are skipped, drifted credentials and
// consumed keys are restored ("rearmed"), and a record that disagrees with its
// fixture on identity fails the pass with ErrSeedConflict.
//
// EnsureUser, used by isolation.Allocator.Lookup, only creates what is
// missing and never rearms: a key consumed by one test stays consumed. Tests
// that spend a single-use key call RearmUser first.
//
//	seeder := service.NewSeederService(service.SeederConfig{
//	    DB:       db,
//	    Users:    repository.NewUserRepository(db),
//	    Keys:     repository.NewAuthKeyRepository(db),
//	    Products: repository.NewProductRepository(db),
//	    Coupons:  repository.NewCouponRepository(db),
//	    Orders:   repository.NewOrderRepository(db),
//	    Store:    repository.NewFixtureStoreRepository(db),
//	    Logger:   logger,
//	})
//	if err := seeder.Connect(ctx); err != nil {
//	    return err
//	}
//	defer seeder.Disconnect()
//	report, err := seeder.SeedAll(ctx, set)
//
// # Single-use Keys
//
// KeyService.Consume succeeds for exactly one caller per key. Every rejection
// matches ErrKeyInvalidOrExpired.
package service
