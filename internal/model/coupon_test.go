package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCoupon_Validate_PercentageBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"0", true},
		{"-5", true},
		{"0.01", false},
		{"100", false},
		{"100.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c := &Coupon{Code: "PCT", Type: DiscountPercentage, Value: dec(tt.value)}
			err := c.Validate()
			if tt.wantErr != (err != nil) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCoupon_Validate_UnknownType(t *testing.T) {
	t.Parallel()

	c := &Coupon{Code: "BOGO", Type: "bogo", Value: dec("1")}
	if err := c.Validate(); !errors.Is(err, ErrInvalidFixture) {
		t.Errorf("expected ErrInvalidFixture, got %v", err)
	}
}

func TestCoupon_Apply_Percentage(t *testing.T) {
	t.Parallel()

	c := &Coupon{Code: "SAVE10", Type: DiscountPercentage, Value: dec("10")}
	total, err := c.Apply(dec("99.99"))
	if err != nil {
		t.Fatal(err)
	}
	if !total.Equal(dec("89.991")) {
		t.Errorf("expected 89.991, got %s", total)
	}
}

func TestCoupon_Apply_Fixed(t *testing.T) {
	t.Parallel()

	c := &Coupon{Code: "FLAT20", Type: DiscountFixed, Value: dec("20"), MinOrderAmount: decPtr("50")}
	total, err := c.Apply(dec("99.99"))
	if err != nil {
		t.Fatal(err)
	}
	if !total.Equal(dec("79.99")) {
		t.Errorf("expected 79.99, got %s", total)
	}
}

func TestCoupon_Apply_FixedNeverNegative(t *testing.T) {
	t.Parallel()

	c := &Coupon{Code: "FLAT20", Type: DiscountFixed, Value: dec("20")}
	total, err := c.Apply(dec("5"))
	if err != nil {
		t.Fatal(err)
	}
	if !total.IsZero() {
		t.Errorf("expected total clamped to zero, got %s", total)
	}
}

func TestCoupon_Apply_BelowMinimum(t *testing.T) {
	t.Parallel()

	c := &Coupon{Code: "FLAT20", Type: DiscountFixed, Value: dec("20"), MinOrderAmount: decPtr("50")}
	total, err := c.Apply(dec("49.99"))
	if !errors.Is(err, ErrCouponMinimumNotMet) {
		t.Errorf("expected ErrCouponMinimumNotMet, got %v", err)
	}
	if !total.Equal(dec("49.99")) {
		t.Errorf("expected subtotal returned unchanged, got %s", total)
	}
}

func TestCoupon_ExpiredAt(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Hour)
	c := &Coupon{Code: "OLD", ExpiresAt: &past}
	if !c.ExpiredAt(now) {
		t.Error("expected coupon to be expired")
	}

	c.ExpiresAt = nil
	if c.ExpiredAt(now) {
		t.Error("expected coupon without expiry to never expire")
	}
}
