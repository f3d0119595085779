package database

import (
	"context"
	"fmt"
	"strings"
)

// Fixture tables
const (
	TableUser    = "user"
	TableAuthKey = "auth_key"
	TableOrder   = "orders"
	TableCoupon  = "coupon"
	TableProduct = "product"
	TableSeedRun = "seed_run"
)

// FixtureTables lists every table the seeder writes, in dependency order.
// Deletes should walk it backwards.
var FixtureTables = []string{
	TableProduct,
	TableUser,
	TableAuthKey,
	TableCoupon,
	TableOrder,
	TableSeedRun,
}

// uniqueIndexes are the natural keys a second seeding pass must not duplicate
var uniqueIndexes = []struct {
	table, name, column string
}{
	{TableUser, "user_email", "email"},
	{TableAuthKey, "auth_key_key", "key"},
	{TableOrder, "orders_number", "number"},
	{TableCoupon, "coupon_code", "code"},
	{TableProduct, "product_sku", "sku"},
}

// SchemaStatements returns the idempotent SurrealQL that defines the fixture schema
func SchemaStatements() []string {
	stmts := make([]string, 0, len(FixtureTables)+len(uniqueIndexes)+1)
	for _, t := range FixtureTables {
		stmts = append(stmts, fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", t))
	}
	for _, idx := range uniqueIndexes {
		stmts = append(stmts, fmt.Sprintf("DEFINE INDEX IF NOT EXISTS %s ON TABLE %s COLUMNS %s UNIQUE", idx.name, idx.table, idx.column))
	}
	stmts = append(stmts, fmt.Sprintf("DEFINE INDEX IF NOT EXISTS %s_seed_tag ON TABLE %s COLUMNS seed_tag", TableUser, TableUser))
	return stmts
}

// ApplySchema defines the fixture tables and unique indexes
func ApplySchema(ctx context.Context, db Database) error {
	query := strings.Join(SchemaStatements(), ";\n") + ";"
	if err := db.Execute(ctx, query, nil); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
