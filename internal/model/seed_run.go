package model

import "time"

// SeedOutcome is what seeding did with one fixture record
type SeedOutcome string

const (
	SeedCreated SeedOutcome = "created"
	SeedSkipped SeedOutcome = "skipped" // already seeded with the same identity
	SeedRearmed SeedOutcome = "rearmed" // existed, state restored to the fixture definition
)

// SeedRun is the audit record written at the end of every seeding pass
type SeedRun struct {
	ID         string    `json:"id,omitempty"`
	RunID      string    `json:"run_id"`
	SeedTag    string    `json:"seed_tag"`
	Lanes      []string  `json:"lanes"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Rearmed    int       `json:"rearmed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
