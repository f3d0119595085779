package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownFixture is matched by every DomainError.
	ErrUnknownFixture = errors.New("unknown fixture")

	// ErrInvalidFixture is matched by every ValidationError.
	ErrInvalidFixture = errors.New("invalid fixture")

	// ErrCouponMinimumNotMet is returned when a coupon is applied below its minimum order amount.
	ErrCouponMinimumNotMet = errors.New("order does not meet coupon minimum")

	// ErrStatusUnreachable is returned for an order status the state machine cannot produce.
	ErrStatusUnreachable = errors.New("order status not reachable")
)

// DomainError reports a fixture lookup outside the catalog's bounded domain.
// Tests must never silently run against a default fixture, so every accessor
// returns one of these instead.
type DomainError struct {
	Kind    string   // "role", "coupon kind", "product index", ...
	Value   string   // the rejected input
	Allowed []string // the documented domain
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("unknown %s %q (allowed: %s)", e.Kind, e.Value, strings.Join(e.Allowed, ", "))
}

func (e *DomainError) Unwrap() error {
	return ErrUnknownFixture
}

// ValidationError reports a fixture that cannot be seeded as defined
type ValidationError struct {
	Field   string
	Message string
	Value   string // identifying value of the offending record, if any
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s %s", e.Value, e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidFixture
}
