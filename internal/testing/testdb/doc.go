// Package testdb provides isolated SurrealDB databases for integration tests.
//
// Each test gets its own namespace with the fixture schema (tables and unique
// indexes) applied, and the namespace is removed on cleanup:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t) // skipped when no SurrealDB is reachable
//	    repo := repository.NewUserRepository(tdb.DB)
//	    ...
//	}
//
// Connection settings come from TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER and
// TEST_DB_PASSWORD. Set TEST_DB_REQUIRED=true in CI to turn a missing
// database into a failure.
//
// For subtests that share schema:
//
//	shared := testdb.NewShared(t)
//	t.Run("create", func(t *testing.T) { tdb := shared.SetupSubtest(t); ... })
package testdb
