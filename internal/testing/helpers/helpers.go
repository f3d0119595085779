package helpers

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forgo/storefront-e2e/internal/database"
)

// ============================================================================
// Database Assertion Helpers
// ============================================================================

// AssertRecordExists checks that a record exists in the database
func AssertRecordExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()

	results, err := selectRecord(db, table, id)
	if err != nil {
		t.Fatalf("failed to query for record: %v", err)
	}
	if !hasResults(results) {
		t.Errorf("expected record %s:%s to exist, but it doesn't", table, recordPart(id))
	}
}

// AssertRecordNotExists checks that a record does not exist
func AssertRecordNotExists(t *testing.T, db database.Database, table, id string) {
	t.Helper()

	results, err := selectRecord(db, table, id)
	if err != nil {
		// Query error might mean not found, which is what we want
		return
	}
	if hasResults(results) {
		t.Errorf("expected record %s:%s to not exist, but it does", table, recordPart(id))
	}
}

// CountWhere counts the records of table matching a SurrealQL condition
func CountWhere(t *testing.T, db database.Database, table, cond string, vars map[string]interface{}) int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := fmt.Sprintf("SELECT count() FROM %s WHERE %s GROUP ALL", table, cond)
	results, err := db.Query(ctx, query, vars)
	if err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	if !hasResults(results) {
		return 0
	}

	resp := results[0].(map[string]interface{})
	rows, _ := resp["result"].([]interface{})
	if len(rows) == 0 {
		return 0
	}
	row, _ := rows[0].(map[string]interface{})
	switch c := row["count"].(type) {
	case float64:
		return int(c)
	case int64:
		return int(c)
	case uint64:
		return int(c)
	case int:
		return c
	}
	return 0
}

// AssertCount fails the test unless exactly want records of table match cond
func AssertCount(t *testing.T, db database.Database, table, cond string, vars map[string]interface{}, want int) {
	t.Helper()
	if got := CountWhere(t, db, table, cond, vars); got != want {
		t.Errorf("expected %d %s records where %s, got %d", want, table, cond, got)
	}
}

func selectRecord(db database.Database, table, id string) ([]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := "SELECT * FROM type::record($table, $id)"
	return db.Query(ctx, query, map[string]interface{}{
		"table": table,
		"id":    recordPart(id),
	})
}

// recordPart strips the table prefix from a full record ID
func recordPart(id string) string {
	if _, rest, ok := strings.Cut(id, ":"); ok {
		return rest
	}
	return id
}

// hasResults checks if SurrealDB query returned any results
func hasResults(results []interface{}) bool {
	if len(results) == 0 {
		return false
	}

	resp, ok := results[0].(map[string]interface{})
	if !ok {
		return false
	}

	result, ok := resp["result"]
	if !ok {
		return false
	}

	switch v := result.(type) {
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return true
	case nil:
		return false
	default:
		return true
	}
}

// ============================================================================
// Value Helpers
// ============================================================================

// AssertDecimal compares a money value against its string form
func AssertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !decimal.RequireFromString(want).Equal(got) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

// StringPtr returns a pointer to the string
func StringPtr(s string) *string {
	return &s
}

// TimePtr returns a pointer to the time
func TimePtr(t time.Time) *time.Time {
	return &t
}

// DecimalPtr parses s and returns a pointer to it
func DecimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// MustParseTime parses a time string or fails the test
func MustParseTime(t *testing.T, layout, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}
