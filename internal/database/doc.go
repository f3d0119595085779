// Package database provides the document store layer used by the seeder.
//
// This package defines the Database interface that abstracts SurrealDB
// operations so the seeder and repositories can be tested against fakes.
//
// # Interface Design
//
// The Database interface provides three query methods:
//   - Query: Returns multiple results (for SELECT queries returning lists)
//   - QueryOne: Returns a single result (for SELECT by ID)
//   - Execute: No return value (for CREATE/UPDATE/DELETE mutations)
//
// Results keep SurrealDB's response wrapper, {status: "OK", result: [...]}.
//
// # Connection Management
//
// Connect retries with exponential backoff until Config.ConnectTimeout
// elapses. An authentication or namespace failure is not retried:
//
//	db := database.NewSurrealDB(database.Config{
//	    Host: "localhost", Port: "8000",
//	    User: "root", Password: "root",
//	    Namespace: "storefront", Database: "e2e",
//	    ConnectTimeout: 10 * time.Second,
//	})
//	if err := db.Connect(ctx); err != nil {
//	    // errors.Is(err, database.ErrConnection)
//	}
//	defer db.Close()
//
// # Schema
//
// ApplySchema defines the fixture tables and their unique indexes. It is
// idempotent and runs on every connect, so a second seeding pass hits the
// indexes instead of creating duplicates.
//
// # Transactions
//
// Transactions are BATCH-BASED, not connection-level. Queries accumulate in
// memory and run inside BEGIN TRANSACTION / COMMIT TRANSACTION at commit
// time. Prefer AtomicBatch; see transaction.go.
//
// # Error Types
//
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique index violation
//   - ErrConnection: Store unreachable or not connected
//   - ErrQuery: Query execution failed
package database
