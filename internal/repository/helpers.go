package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/storefront-e2e/internal/database"
)

// isUniqueConstraintError checks if an error is a unique constraint violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, database.ErrDuplicate) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "already contains") ||
		strings.Contains(errStr, "already exists")
}

// unwrapResult strips SurrealDB's {status, result} wrapper and returns the
// first record. A missing or empty result is database.ErrNotFound.
func unwrapResult(result interface{}) (map[string]interface{}, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	// Navigate through SurrealDB response structure
	if resp, ok := result.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			result = resp["result"]
		}
	}

	// Handle array wrapper
	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, database.ErrNotFound
		}
		result = arr[0]
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	if id, ok := data["id"]; ok {
		data["id"] = convertSurrealID(id)
	}
	return data, nil
}

// firstRecord returns the first record of the first statement of a Query result
func firstRecord(results []interface{}) (map[string]interface{}, error) {
	if len(results) == 0 {
		return nil, database.ErrNotFound
	}
	return unwrapResult(results[0])
}

// statementRecords returns every record of the first statement of a Query result
func statementRecords(results []interface{}) []map[string]interface{} {
	if len(results) == 0 {
		return nil
	}
	first := results[0]
	if resp, ok := first.(map[string]interface{}); ok {
		if _, wrapped := resp["status"]; wrapped {
			first = resp["result"]
		}
	}
	arr, ok := first.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			if id, ok := m["id"]; ok {
				m["id"] = convertSurrealID(id)
			}
			out = append(out, m)
		}
	}
	return out
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
	case map[string]interface{}:
		// Handle {"tb": "user", "id": "xxx"} format
		tb, _ := v["tb"].(string)
		if tb == "" {
			tb, _ = v["Table"].(string)
		}
		idPart := ""
		if idVal, ok := v["id"]; ok {
			idPart = extractIDValue(idVal)
		} else if idVal, ok := v["ID"]; ok {
			idPart = extractIDValue(idVal)
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		if idPart != "" {
			return idPart
		}
	}
	return fmt.Sprintf("%v", id)
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// extractCount extracts count from a `SELECT count() ... GROUP ALL` result
func extractCount(results []interface{}) int {
	rec, err := firstRecord(results)
	if err != nil {
		return 0
	}
	return getInt(rec, "count")
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

// getBool extracts a bool value from a map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	}
	return nil
}

// getTimeValue is getTime with the zero time for a missing field
func getTimeValue(m map[string]interface{}, key string) time.Time {
	if t := getTime(m, key); t != nil {
		return *t
	}
	return time.Time{}
}

// getDecimal extracts a money value. Reads project decimals with <string> so
// the value arrives exact; numeric fallbacks cover hand-written records.
func getDecimal(m map[string]interface{}, key string) decimal.Decimal {
	if d := getDecimalPtr(m, key); d != nil {
		return *d
	}
	return decimal.Zero
}

// getDecimalPtr is getDecimal for optional fields
func getDecimalPtr(m map[string]interface{}, key string) *decimal.Decimal {
	var d decimal.Decimal
	switch v := m[key].(type) {
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return nil
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(v)
	case int64:
		d = decimal.NewFromInt(v)
	case uint64:
		d = decimal.NewFromInt(int64(v))
	case int:
		d = decimal.NewFromInt(int64(v))
	default:
		return nil
	}
	return &d
}

// decimalToNone renders an optional money value for a <decimal> cast
func decimalToNone(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// timeToNone renders an optional time for a <datetime> cast
func timeToNone(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// getMaps extracts an array of objects from a map
func getMaps(m map[string]interface{}, key string) []map[string]interface{} {
	arr, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(arr))
	for _, item := range arr {
		if mm, ok := item.(map[string]interface{}); ok {
			out = append(out, mm)
		}
	}
	return out
}
