package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
)

// InitSchema creates the tables used by the run and instance repositories.
// Column types are valid on both SQLite and Postgres.
func InitSchema(db *sqlx.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createInstancesQuery := `
	CREATE TABLE IF NOT EXISTS instances (
		instance_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		stops_json TEXT NOT NULL
	);
	`

	createRunsQuery := `
	CREATE TABLE IF NOT EXISTS comparison_runs (
		run_id TEXT PRIMARY KEY,
		created_at_ms BIGINT NOT NULL,
		baseline TEXT NOT NULL,
		stops_json TEXT NOT NULL,
		policy_json TEXT NOT NULL
	);
	`

	createResultsQuery := `
	CREATE TABLE IF NOT EXISTS comparison_results (
		run_id TEXT NOT NULL REFERENCES comparison_runs(run_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		order_json TEXT NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		energy DOUBLE PRECISION,
		improvement_pct DOUBLE PRECISION,
		PRIMARY KEY (run_id, position)
	);
	`

	createFailuresQuery := `
	CREATE TABLE IF NOT EXISTS comparison_failures (
		run_id TEXT NOT NULL REFERENCES comparison_runs(run_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		reason TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_comparison_runs_created_at
	ON comparison_runs(created_at_ms);
	`

	statements := []string{
		createInstancesQuery,
		createRunsQuery,
		createResultsQuery,
		createFailuresQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type InstanceSeed struct {
	InstanceID int         `json:"instance_id"`
	Name       string      `json:"name"`
	Stops      []pointJSON `json:"stops"`
}

// SeedFromJSON loads stop-set instances from a JSON file, replacing existing ids.
func SeedFromJSON(db *sqlx.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed instances: read %q: %w", jsonPath, err)
	}

	var data []InstanceSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed instances: parse json: %w", err)
	}

	for i, item := range data {
		if item.InstanceID <= 0 {
			return fmt.Errorf("seed instances: invalid instance_id at index %d: %d", i+1, item.InstanceID)
		}
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("seed instances: item at index %d: name cannot be empty", i+1)
		}
		if len(item.Stops) == 0 {
			return fmt.Errorf("seed instances: item at index %d: stops cannot be empty", i+1)
		}
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("seed instances: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(`
	INSERT INTO instances (instance_id, name, stops_json)
	VALUES (?, ?, ?)
	ON CONFLICT (instance_id) DO UPDATE
	SET name = EXCLUDED.name,
		stops_json = EXCLUDED.stops_json;
	`)
	stmt, err := tx.Preparex(query)
	if err != nil {
		return fmt.Errorf("seed instances: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range data {
		stops, err := json.Marshal(item.Stops)
		if err != nil {
			return fmt.Errorf("seed instances: encode stops instance_id=%d: %w", item.InstanceID, err)
		}
		if _, err := stmt.Exec(item.InstanceID, strings.TrimSpace(item.Name), string(stops)); err != nil {
			return fmt.Errorf("seed instances: insert instance_id=%d: %w", item.InstanceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed instances: commit tx: %w", err)
	}

	return nil
}
