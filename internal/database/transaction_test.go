package database

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// recordingDB captures the queries sent through the Database interface
type recordingDB struct {
	queries []string
	vars    []map[string]interface{}
	err     error
}

func (r *recordingDB) Connect(ctx context.Context) error { return nil }
func (r *recordingDB) Close() error                      { return nil }
func (r *recordingDB) Ping(ctx context.Context) error    { return nil }

func (r *recordingDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	r.queries = append(r.queries, query)
	r.vars = append(r.vars, vars)
	return nil, r.err
}

func (r *recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	_, err := r.Query(ctx, query, vars)
	return nil, err
}

func (r *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := r.Query(ctx, query, vars)
	return err
}

func (r *recordingDB) BeginTx(ctx context.Context) (Transaction, error) {
	return nil, ErrConnection
}

func TestTxBuilder_NamespacesWholeVariableNames(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	mapping := tb.Add("UPDATE user SET email = $email, email_verified = $email_verified", map[string]interface{}{
		"email":          "a@e2e.test",
		"email_verified": true,
	})

	query, vars := tb.Build()

	emailVar := "$" + mapping["email"]
	verifiedVar := "$" + mapping["email_verified"]
	if !strings.Contains(query, "email = "+emailVar+",") {
		t.Errorf("query %q missing %s", query, emailVar)
	}
	if !strings.Contains(query, "email_verified = "+verifiedVar) {
		t.Errorf("query %q missing %s", query, verifiedVar)
	}
	if vars[mapping["email"]] != "a@e2e.test" {
		t.Errorf("email var = %v", vars[mapping["email"]])
	}
	if vars[mapping["email_verified"]] != true {
		t.Errorf("email_verified var = %v", vars[mapping["email_verified"]])
	}
}

func TestTxBuilder_SameVariableInTwoStatements(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	m1 := tb.Add("DELETE user WHERE seed_tag = $tag", map[string]interface{}{"tag": "run-1"})
	m2 := tb.Add("DELETE coupon WHERE seed_tag = $tag", map[string]interface{}{"tag": "run-2"})

	if m1["tag"] == m2["tag"] {
		t.Fatalf("expected distinct names, both got %s", m1["tag"])
	}

	query, vars := tb.Build()
	if !strings.HasPrefix(query, "BEGIN TRANSACTION;") || !strings.HasSuffix(query, "COMMIT TRANSACTION;") {
		t.Errorf("query not wrapped in a transaction: %q", query)
	}
	if vars[m1["tag"]] != "run-1" || vars[m2["tag"]] != "run-2" {
		t.Errorf("vars = %v", vars)
	}
}

func TestAtomicBatch_ExecutesOnce(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	batch := NewAtomicBatch().
		Add("DELETE orders WHERE seed_tag = $tag", map[string]interface{}{"tag": "x"}).
		Add("DELETE user WHERE seed_tag = $tag", map[string]interface{}{"tag": "x"})

	if batch.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", batch.Len())
	}
	if err := batch.Execute(context.Background(), db); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(db.queries) != 1 {
		t.Fatalf("expected one round trip, got %d", len(db.queries))
	}
}

func TestAtomicBatch_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	if err := NewAtomicBatch().Execute(context.Background(), db); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(db.queries) != 0 {
		t.Errorf("expected no queries, got %d", len(db.queries))
	}
}

func TestApplySchema_DefinesUniqueIndexes(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	if err := ApplySchema(context.Background(), db); err != nil {
		t.Fatalf("ApplySchema: %v", err)
	}
	if len(db.queries) != 1 {
		t.Fatalf("expected one query, got %d", len(db.queries))
	}

	q := db.queries[0]
	for _, want := range []string{
		"ON TABLE user COLUMNS email UNIQUE",
		"ON TABLE auth_key COLUMNS key UNIQUE",
		"ON TABLE orders COLUMNS number UNIQUE",
		"ON TABLE coupon COLUMNS code UNIQUE",
		"ON TABLE product COLUMNS sku UNIQUE",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want error
	}{
		{"Database index `user_email` already contains 'a@e2e.test', with record `user:abc`", ErrDuplicate},
		{"Parse error: unexpected token", ErrQuery},
	}
	for _, tt := range tests {
		if err := classifyError(tt.msg); !errors.Is(err, tt.want) {
			t.Errorf("classifyError(%q) = %v, want %v", tt.msg, err, tt.want)
		}
	}
}

func TestSurrealDB_CloseWithoutConnect(t *testing.T) {
	t.Parallel()

	db := NewSurrealDB(Config{Host: "localhost", Port: "8000"})
	if err := db.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := db.Ping(context.Background()); err == nil {
		t.Error("Ping() on a closed connection should fail")
	}
}
