// Package catalog is the single source of truth for canonical test entities.
//
// A Catalog is built once, validated, and passed explicitly to the seeder and
// to test setup:
//
//	cat := catalog.Default()
//	admin := cat.MustUser(catalog.UserAdmin)
//	coupon, err := cat.Coupon("bogus") // *model.DomainError naming the allowed kinds
//
// Accessors are total over a bounded domain. An unknown role, coupon kind or
// product index is an error, never a fallback fixture. Values are copies, so
// a test editing its fixture cannot leak into another test.
//
// BuildFixtureSet expands the catalog into the seeding input for a run,
// including one isolated account per registered purpose and lane.
package catalog
