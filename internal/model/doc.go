// Package model defines the storefront entities the e2e suite seeds and asserts against.
//
// The model package contains fixture definitions and their persisted forms for
// users, single-use account keys, orders, coupons, products and addresses.
// Models are shared by the catalog, the seeder and the repositories.
//
// # Domain Entities
//
//   - User / UserFixture: account with known plaintext password and verification state
//   - AuthKey: single-use activation or password-reset key
//   - Order: order in one of the backend's lifecycle states
//   - Coupon: percentage or fixed discount with optional minimum order amount
//   - Product, Address: catalog and shipping fixtures
//
// # Order Lifecycle
//
// The order state machine belongs to the storefront backend. It is mirrored
// here so seeded orders only use statuses the backend could have produced:
//
//	path, err := model.PathFrom(model.OrderStatusPending, model.OrderStatusShipped)
//	// PENDING -> CONFIRMED -> PROCESSING -> SHIPPED
//
// # Money
//
// Amounts use github.com/shopspring/decimal so coupon math is exact:
//
//	total, err := coupon.Apply(decimal.RequireFromString("99.99"))
//
// # Errors
//
// DomainError (unknown catalog input) and ValidationError (unseedable fixture)
// unwrap to ErrUnknownFixture and ErrInvalidFixture respectively.
package model
