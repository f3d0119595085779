package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/model"
)

// OrderRepository handles order data access.
// The table is "orders" because ORDER is a SurrealQL keyword.
type OrderRepository struct {
	db database.Database
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db database.Database) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create stores a new order owned by ownerID ("user:xxx").
// Line prices and history timestamps are stored as strings inside their
// arrays; the order total is a native decimal.
func (r *OrderRepository) Create(ctx context.Context, o *model.Order, ownerID string) error {
	query := `
		CREATE orders CONTENT {
			number: $number,
			user: type::record($user),
			owner_email: $owner_email,
			status: $status,
			history: $history,
			payment_method: $payment_method,
			items: $items,
			total: <decimal>$total,
			tracking_number: IF $tracking_number != "" THEN $tracking_number ELSE NONE END,
			batch_id: IF $batch_id != "" THEN $batch_id ELSE NONE END,
			seed_tag: $seed_tag,
			created_on: time::now()
		}
	`

	items := make([]map[string]interface{}, len(o.Items))
	for i, item := range o.Items {
		items[i] = map[string]interface{}{
			"sku":        item.SKU,
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice.String(),
		}
	}
	history := make([]map[string]interface{}, len(o.History))
	for i, h := range o.History {
		history[i] = map[string]interface{}{
			"status": h.Status,
			"at":     h.At.UTC().Format(time.RFC3339Nano),
		}
	}

	vars := map[string]interface{}{
		"number":          o.Number,
		"user":            ownerID,
		"owner_email":     o.OwnerEmail,
		"status":          o.Status,
		"history":         history,
		"payment_method":  o.PaymentMethod,
		"items":           items,
		"total":           o.Total.String(),
		"tracking_number": o.TrackingNumber,
		"batch_id":        o.BatchID,
		"seed_tag":        o.SeedTag,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: order %s already exists", database.ErrDuplicate, o.Number)
		}
		return err
	}

	created, err := firstRecord(result)
	if err != nil {
		return err
	}
	o.ID = getString(created, "id")
	return nil
}

// GetByNumber retrieves an order by number. A missing order is (nil, nil).
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	query := `SELECT *, <string>total AS total FROM orders WHERE number = $number LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"number": number})
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
	return parseOrderRecord(data), nil
}

func parseOrderRecord(data map[string]interface{}) *model.Order {
	o := &model.Order{
		ID:             getString(data, "id"),
		Number:         getString(data, "number"),
		OwnerEmail:     getString(data, "owner_email"),
		Status:         model.OrderStatus(getString(data, "status")),
		PaymentMethod:  model.PaymentMethod(getString(data, "payment_method")),
		Total:          getDecimal(data, "total"),
		TrackingNumber: getString(data, "tracking_number"),
		BatchID:        getString(data, "batch_id"),
		SeedTag:        getString(data, "seed_tag"),
	}
	for _, item := range getMaps(data, "items") {
		o.Items = append(o.Items, model.OrderItem{
			SKU:       getString(item, "sku"),
			Quantity:  getInt(item, "quantity"),
			UnitPrice: getDecimal(item, "unit_price"),
		})
	}
	for _, h := range getMaps(data, "history") {
		o.History = append(o.History, model.StatusChange{
			Status: model.OrderStatus(getString(h, "status")),
			At:     getTimeValue(h, "at"),
		})
	}
	return o
}
