package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/model"
)

// CouponRepository handles coupon data access
type CouponRepository struct {
	db database.Database
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db database.Database) *CouponRepository {
	return &CouponRepository{db: db}
}

// Create stores a new coupon
func (r *CouponRepository) Create(ctx context.Context, c *model.Coupon) error {
	query := `
		CREATE coupon CONTENT {
			code: $code,
			type: $type,
			discount_value: <decimal>$discount_value,
			min_order_amount: IF $min_order_amount IS NOT NULL THEN <decimal>$min_order_amount ELSE NONE END,
			expires_at: IF $expires_at IS NOT NULL THEN <datetime>$expires_at ELSE NONE END,
			active: $active,
			seed_tag: $seed_tag,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"code":             c.Code,
		"type":             c.Type,
		"discount_value":   c.Value.String(),
		"min_order_amount": decimalToNone(c.MinOrderAmount),
		"expires_at":       timeToNone(c.ExpiresAt),
		"active":           c.Active,
		"seed_tag":         c.SeedTag,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: coupon %s already exists", database.ErrDuplicate, c.Code)
		}
		return err
	}

	created, err := firstRecord(result)
	if err != nil {
		return err
	}
	c.ID = getString(created, "id")
	return nil
}

// GetByCode retrieves a coupon by code. A missing coupon is (nil, nil).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT *,
			<string>discount_value AS discount_value,
			IF min_order_amount != NONE THEN <string>min_order_amount ELSE NONE END AS min_order_amount
		FROM coupon WHERE code = $code LIMIT 1
	`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"code": code})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	data, err := unwrapResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &model.Coupon{
		ID:             getString(data, "id"),
		Code:           getString(data, "code"),
		Type:           model.DiscountType(getString(data, "type")),
		Value:          getDecimal(data, "discount_value"),
		MinOrderAmount: getDecimalPtr(data, "min_order_amount"),
		ExpiresAt:      getTime(data, "expires_at"),
		Active:         getBool(data, "active"),
		SeedTag:        getString(data, "seed_tag"),
	}, nil
}
