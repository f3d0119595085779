package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/model"
)

// ProductRepository handles catalog product data access
type ProductRepository struct {
	db database.Database
}

// NewProductRepository creates a new product repository
func NewProductRepository(db database.Database) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create stores a new product
func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		CREATE product CONTENT {
			sku: $sku,
			name: $name,
			price: <decimal>$price,
			stock: $stock,
			seed_tag: $seed_tag,
			created_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"sku":      p.SKU,
		"name":     p.Name,
		"price":    p.Price.String(),
		"stock":    p.Stock,
		"seed_tag": p.SeedTag,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: sku %s already exists", database.ErrDuplicate, p.SKU)
		}
		return err
	}

	created, err := firstRecord(result)
	if err != nil {
		return err
	}
	p.ID = getString(created, "id")
	return nil
}

// GetBySKU retrieves a product by SKU. A missing product is (nil, nil).
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	query := `SELECT *, <string>price AS price FROM product WHERE sku = $sku LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"sku": sku})
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
	return &model.Product{
		ID:      getString(data, "id"),
		SKU:     getString(data, "sku"),
		Name:    getString(data, "name"),
		Price:   getDecimal(data, "price"),
		Stock:   getInt(data, "stock"),
		SeedTag: getString(data, "seed_tag"),
	}, nil
}
