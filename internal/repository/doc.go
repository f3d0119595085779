// Package repository implements data access for the fixture tables.
//
// Each repository struct handles one SurrealDB table (user, auth_key,
// product, coupon, orders); FixtureStoreRepository covers run bookkeeping
// and bulk deletes across all of them.
//
// # Repository Pattern
//
//   - Constructor function (NewXxxRepository) accepts a database.Database
//   - Get methods return (nil, nil) for a missing record
//   - Create maps unique index violations to database.ErrDuplicate
//   - Parameterized queries with $variable syntax
//   - type::record() for record links, time::now() for timestamps
//
// # Money
//
// Money is written through <decimal> casts from decimal strings and read
// back projected through <string>, so no amount ever passes through a float.
//
// # Example Usage
//
//	repo := repository.NewUserRepository(db)
//	user, err := repo.GetByEmail(ctx, "customer@e2e.test")
//	if err != nil {
//	    return err
//	}
//	if user == nil {
//	    // not seeded yet
//	}
package repository
