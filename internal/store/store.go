// Package store persists run history and per-unit outcomes for audit.
package store

import (
	"context"
	"time"
)

// Unit statuses recorded in the audit store.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Run statuses.
const (
	RunRunning  = "running"
	RunComplete = "complete"
	RunFailed   = "failed"
)

// Run is one invocation of the batch pipeline.
type Run struct {
	ID         string
	Status     string
	ConfigJSON string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Unit is the recorded outcome of one (species, scenario, stage) work unit.
// Seed is the sampling seed used; zero for stages that do not sample.
type Unit struct {
	RunID     string
	Species   string
	Scenario  string
	Stage     string
	Status    string
	Detail    string
	Seed      int64
	CreatedAt time.Time
}

// Store records runs and unit outcomes.
type Store interface {
	Migrate(ctx context.Context) error
	CreateRun(ctx context.Context, configJSON string) (string, error)
	FinishRun(ctx context.Context, runID, status string) error
	RecordUnit(ctx context.Context, u Unit) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ListUnits(ctx context.Context, runID string) ([]Unit, error)
	Close() error
}
