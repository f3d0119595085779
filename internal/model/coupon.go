package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType is how a coupon reduces the subtotal
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Coupon is a coupon fixture and its persisted form
type Coupon struct {
	ID             string           `json:"id,omitempty"`
	Code           string           `json:"code"`
	Type           DiscountType     `json:"type"`
	Value          decimal.Decimal  `json:"discount_value"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount,omitempty"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	Active         bool             `json:"active"`
	SeedTag        string           `json:"seed_tag,omitempty"`
}

// Validate enforces the discount bounds
func (c *Coupon) Validate() error {
	fail := func(field, msg string) error {
		return &ValidationError{Field: field, Message: msg, Value: c.Code}
	}

	if c.Code == "" {
		return &ValidationError{Field: "code", Message: "is required"}
	}
	switch c.Type {
	case DiscountPercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(hundred) {
			return fail("discount_value", "must be in (0, 100] for percentage coupons")
		}
	case DiscountFixed:
		if !c.Value.IsPositive() {
			return fail("discount_value", "must be positive for fixed coupons")
		}
	default:
		return fail("type", "must be percentage or fixed")
	}
	if c.MinOrderAmount != nil && c.MinOrderAmount.IsNegative() {
		return fail("min_order_amount", "must not be negative")
	}
	return nil
}

// ExpiredAt reports whether the coupon is past its expiry at now
func (c *Coupon) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Apply returns the total after discount. The result is never negative.
func (c *Coupon) Apply(subtotal decimal.Decimal) (decimal.Decimal, error) {
	if c.MinOrderAmount != nil && subtotal.LessThan(*c.MinOrderAmount) {
		return subtotal, fmt.Errorf("%w: %s requires %s, got %s", ErrCouponMinimumNotMet, c.Code, c.MinOrderAmount, subtotal)
	}

	var total decimal.Decimal
	switch c.Type {
	case DiscountPercentage:
		total = subtotal.Mul(hundred.Sub(c.Value)).Div(hundred)
	case DiscountFixed:
		total = subtotal.Sub(c.Value)
	default:
		return subtotal, fmt.Errorf("%w: coupon %s has type %q", ErrInvalidFixture, c.Code, c.Type)
	}

	if total.IsNegative() {
		return decimal.Zero, nil
	}
	return total, nil
}
