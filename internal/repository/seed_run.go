package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/model"
)

// FixtureStoreRepository handles run bookkeeping and bulk deletes across the
// fixture tables
type FixtureStoreRepository struct {
	db database.Database
}

// NewFixtureStoreRepository creates a new fixture store repository
func NewFixtureStoreRepository(db database.Database) *FixtureStoreRepository {
	return &FixtureStoreRepository{db: db}
}

// RecordRun stores the audit record of a seeding pass
func (r *FixtureStoreRepository) RecordRun(ctx context.Context, run *model.SeedRun) error {
	query := `
		CREATE seed_run CONTENT {
			run_id: $run_id,
			seed_tag: $seed_tag,
			lanes: $lanes,
			created: $created,
			skipped: $skipped,
			rearmed: $rearmed,
			started_at: <datetime>$started_at,
			finished_at: <datetime>$finished_at
		}
	`
	vars := map[string]interface{}{
		"run_id":      run.RunID,
		"seed_tag":    run.SeedTag,
		"lanes":       run.Lanes,
		"created":     run.Created,
		"skipped":     run.Skipped,
		"rearmed":     run.Rearmed,
		"started_at":  run.StartedAt.UTC().Format(time.RFC3339Nano),
		"finished_at": run.FinishedAt.UTC().Format(time.RFC3339Nano),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	created, err := firstRecord(result)
	if err != nil {
		return err
	}
	run.ID = getString(created, "id")
	return nil
}

// DeleteTagged removes every record carrying seedTag from the fixture
// tables, dependents first, and returns how many were removed per table
func (r *FixtureStoreRepository) DeleteTagged(ctx context.Context, seedTag string) (map[string]int, error) {
	deleted := make(map[string]int, len(database.FixtureTables))
	for i := len(database.FixtureTables) - 1; i >= 0; i-- {
		table := database.FixtureTables[i]
		query := fmt.Sprintf("DELETE %s WHERE seed_tag = $tag RETURN BEFORE", table)
		result, err := r.db.Query(ctx, query, map[string]interface{}{"tag": seedTag})
		if err != nil {
			return deleted, fmt.Errorf("deleting tagged %s: %w", table, err)
		}
		deleted[table] = len(statementRecords(result))
	}
	return deleted, nil
}

// Truncate empties every fixture table in one transaction
func (r *FixtureStoreRepository) Truncate(ctx context.Context) error {
	batch := database.NewAtomicBatch()
	for i := len(database.FixtureTables) - 1; i >= 0; i-- {
		batch.Add(fmt.Sprintf("DELETE %s", database.FixtureTables[i]), nil)
	}
	return batch.Execute(ctx, r.db)
}

// CountTagged counts the records carrying seedTag in table
func (r *FixtureStoreRepository) CountTagged(ctx context.Context, table, seedTag string) (int, error) {
	query := fmt.Sprintf("SELECT count() FROM %s WHERE seed_tag = $tag GROUP ALL", table)
	result, err := r.db.Query(ctx, query, map[string]interface{}{"tag": seedTag})
	if err != nil {
		return 0, err
	}
	return extractCount(result), nil
}
