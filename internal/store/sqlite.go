package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	config      TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS run_units (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	species    TEXT NOT NULL,
	scenario   TEXT NOT NULL DEFAULT '',
	stage      TEXT NOT NULL,
	status     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	seed       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_run_units_run_id ON run_units(run_id);
CREATE INDEX IF NOT EXISTS idx_run_units_species ON run_units(species);
`

// Migrate creates the audit tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// CreateRun inserts a new run row and returns its id.
func (s *SQLiteStore) CreateRun(ctx context.Context, configJSON string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, config) VALUES (?, ?, ?)`,
		id, RunRunning, configJSON,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: create run")
	}
	return id, nil
}

// FinishRun marks a run complete or failed.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = datetime('now') WHERE id = ?`,
		status, runID,
	)
	return eris.Wrapf(err, "sqlite: finish run %s", runID)
}

// RecordUnit appends one unit outcome.
func (s *SQLiteStore) RecordUnit(ctx context.Context, u Unit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_units (run_id, species, scenario, stage, status, detail, seed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.RunID, u.Species, u.Scenario, u.Stage, u.Status, u.Detail, u.Seed,
	)
	return eris.Wrap(err, "sqlite: record unit")
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, COALESCE(config, ''), started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Status, &r.ConfigJSON, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// ListUnits returns every unit outcome of a run in insertion order.
func (s *SQLiteStore) ListUnits(ctx context.Context, runID string) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, species, scenario, stage, status, detail, seed, created_at
		 FROM run_units WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list units for %s", runID)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.RunID, &u.Species, &u.Scenario, &u.Stage,
			&u.Status, &u.Detail, &u.Seed, &u.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan unit")
		}
		units = append(units, u)
	}
	return units, eris.Wrap(rows.Err(), "sqlite: iterate units")
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
