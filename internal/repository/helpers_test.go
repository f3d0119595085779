package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/model"
)

// cannedDB answers every query with the same SurrealDB-shaped response
type cannedDB struct {
	database.Database
	results []interface{}
	err     error
	queries []string
}

func (c *cannedDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	c.queries = append(c.queries, query)
	return c.results, c.err
}

func (c *cannedDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	c.queries = append(c.queries, query)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.results) == 0 {
		return nil, database.ErrNotFound
	}
	return c.results[0], nil
}

func (c *cannedDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	c.queries = append(c.queries, query)
	return c.err
}

func ok(records ...map[string]interface{}) []interface{} {
	rows := make([]interface{}, len(records))
	for i, r := range records {
		rows[i] = r
	}
	return []interface{}{map[string]interface{}{"status": "OK", "result": rows}}
}

func TestUnwrapResult(t *testing.T) {
	t.Parallel()

	rec, err := firstRecord(ok(map[string]interface{}{
		"id":    models.RecordID{Table: "user", ID: "abc"},
		"email": "a@e2e.test",
	}))
	if err != nil {
		t.Fatalf("firstRecord: %v", err)
	}
	if rec["id"] != "user:abc" {
		t.Errorf("id = %v, want user:abc", rec["id"])
	}

	if _, err := firstRecord(ok()); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("empty result: got %v, want ErrNotFound", err)
	}
	if _, err := firstRecord(nil); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("nil result: got %v, want ErrNotFound", err)
	}
}

func TestStatementRecords(t *testing.T) {
	t.Parallel()

	rows := statementRecords(ok(
		map[string]interface{}{"id": "orders:1"},
		map[string]interface{}{"id": map[string]interface{}{"tb": "orders", "id": "2"}},
	))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1]["id"] != "orders:2" {
		t.Errorf("id = %v, want orders:2", rows[1]["id"])
	}
}

func TestGetDecimal(t *testing.T) {
	t.Parallel()

	m := map[string]interface{}{"price": "99.99", "float": 12.5, "bad": "n/a"}
	if got := getDecimal(m, "price"); got.String() != "99.99" {
		t.Errorf("price = %s", got)
	}
	if got := getDecimal(m, "float"); got.String() != "12.5" {
		t.Errorf("float = %s", got)
	}
	if got := getDecimalPtr(m, "bad"); got != nil {
		t.Errorf("bad = %v, want nil", got)
	}
	if got := getDecimalPtr(m, "missing"); got != nil {
		t.Errorf("missing = %v, want nil", got)
	}
}

func TestIsUniqueConstraintError(t *testing.T) {
	t.Parallel()

	if !isUniqueConstraintError(fmt.Errorf("%w: boom", database.ErrDuplicate)) {
		t.Error("wrapped ErrDuplicate not detected")
	}
	if !isUniqueConstraintError(errors.New("Database index `coupon_code` already contains 'X'")) {
		t.Error("raw index message not detected")
	}
	if isUniqueConstraintError(errors.New("connection reset")) {
		t.Error("unrelated error detected as duplicate")
	}
	if isUniqueConstraintError(nil) {
		t.Error("nil detected as duplicate")
	}
}

func TestUserRepository_CreateMapsDuplicate(t *testing.T) {
	t.Parallel()

	db := &cannedDB{err: fmt.Errorf("%w: Database index `user_email` already contains", database.ErrQuery)}
	err := NewUserRepository(db).Create(context.Background(), &model.User{Email: "a@e2e.test"})
	if !errors.Is(err, database.ErrDuplicate) {
		t.Errorf("got %v, want ErrDuplicate", err)
	}
}

func TestUserRepository_GetByEmailMissing(t *testing.T) {
	t.Parallel()

	user, err := NewUserRepository(&cannedDB{}).GetByEmail(context.Background(), "nobody@e2e.test")
	if err != nil || user != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", user, err)
	}
}

func TestUserRepository_ParsesHash(t *testing.T) {
	t.Parallel()

	db := &cannedDB{results: ok(map[string]interface{}{
		"id":             "user:1",
		"email":          "a@e2e.test",
		"hash":           "$2a$04$abc",
		"role":           "admin",
		"email_verified": true,
	})}
	user, err := NewUserRepository(db).GetByEmail(context.Background(), "a@e2e.test")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if user.Hash == nil || *user.Hash != "$2a$04$abc" {
		t.Errorf("hash = %v", user.Hash)
	}
	if !user.IsAdmin() || !user.EmailVerified {
		t.Errorf("user = %+v", user)
	}
}

func TestAuthKeyRepository_ConsumeLosesRace(t *testing.T) {
	t.Parallel()

	// An UPDATE whose WHERE matched nothing returns an empty result
	db := &cannedDB{results: ok()}
	key, err := NewAuthKeyRepository(db).Consume(context.Background(), "rst_x", model.KeyPurposePasswordReset, time.Now())
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if key != nil {
		t.Errorf("got %+v, want nil", key)
	}
}

func TestAuthKeyRepository_ConsumeWins(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	db := &cannedDB{results: ok(map[string]interface{}{
		"id":          "auth_key:k1",
		"key":         "rst_x",
		"purpose":     "password_reset",
		"user":        models.RecordID{Table: "user", ID: "u1"},
		"expires_at":  now.Add(time.Hour).Format(time.RFC3339),
		"consumed_at": now.Format(time.RFC3339),
	})}
	key, err := NewAuthKeyRepository(db).Consume(context.Background(), "rst_x", model.KeyPurposePasswordReset, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if key == nil || key.ConsumedAt == nil {
		t.Fatalf("got %+v, want consumed key", key)
	}
	if key.UserID != "user:u1" {
		t.Errorf("user = %s", key.UserID)
	}
	if got := key.StateAt(model.KeyPurposePasswordReset, now); got != model.KeyStateConsumed {
		t.Errorf("state = %s", got)
	}
}

func TestOrderRepository_ParsesItemsAndHistory(t *testing.T) {
	t.Parallel()

	db := &cannedDB{results: ok(map[string]interface{}{
		"id":             "orders:1",
		"number":         "E2E-ORD-0001",
		"status":         "SHIPPED",
		"payment_method": "card",
		"total":          "49.98",
		"items": []interface{}{
			map[string]interface{}{"sku": "E2E-TSHIRT", "quantity": float64(2), "unit_price": "24.99"},
		},
		"history": []interface{}{
			map[string]interface{}{"status": "PENDING", "at": "2026-01-01T00:00:00Z"},
			map[string]interface{}{"status": "SHIPPED", "at": "2026-01-01T00:03:00Z"},
		},
	})}

	o, err := NewOrderRepository(db).GetByNumber(context.Background(), "E2E-ORD-0001")
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if len(o.Items) != 1 || o.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v", o.Items)
	}
	if !o.Total.Equal(o.ItemsTotal()) {
		t.Errorf("total %s != items %s", o.Total, o.ItemsTotal())
	}
	if len(o.History) != 2 || o.History[1].Status != model.OrderStatusShipped {
		t.Errorf("history = %+v", o.History)
	}
}

func TestFixtureStoreRepository_DeleteTaggedWalksTablesBackwards(t *testing.T) {
	t.Parallel()

	db := &cannedDB{results: ok(map[string]interface{}{"id": "x:1"})}
	deleted, err := NewFixtureStoreRepository(db).DeleteTagged(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("DeleteTagged: %v", err)
	}
	if len(db.queries) != len(database.FixtureTables) {
		t.Fatalf("got %d queries, want %d", len(db.queries), len(database.FixtureTables))
	}
	last := database.FixtureTables[len(database.FixtureTables)-1]
	if want := "DELETE " + last + " "; db.queries[0][:len(want)] != want {
		t.Errorf("first delete = %q, want table %s", db.queries[0], last)
	}
	for _, table := range database.FixtureTables {
		if deleted[table] != 1 {
			t.Errorf("deleted[%s] = %d", table, deleted[table])
		}
	}
}
