// Package harness wires the seeding stack from configuration.
//
// The seed-database command and the acceptance suite's TestMain share it so
// both seed exactly the same fixture set.
//
//	h := harness.New(cfg, logger)
//	report, err := h.Setup(ctx, harness.SeedOptions{})
//	if err != nil {
//	    // abort: no test may run against a partially seeded store
//	}
//	defer h.Teardown(ctx)
package harness
