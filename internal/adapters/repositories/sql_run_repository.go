package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/platform/obs"
	"route-compare-service/internal/ports"
)

// SQLRunRepository persists comparison runs on SQLite or Postgres.
type SQLRunRepository struct {
	DB *sqlx.DB
}

func NewSQLRunRepository(db *sqlx.DB) *SQLRunRepository {
	return &SQLRunRepository{DB: db}
}

type runRow struct {
	RunID       string `db:"run_id"`
	CreatedAtMs int64  `db:"created_at_ms"`
	Baseline    string `db:"baseline"`
	StopsJSON   string `db:"stops_json"`
	PolicyJSON  string `db:"policy_json"`
}

type resultRow struct {
	Label          string   `db:"label"`
	OrderJSON      string   `db:"order_json"`
	DistanceKm     float64  `db:"distance_km"`
	Energy         *float64 `db:"energy"`
	ImprovementPct *float64 `db:"improvement_pct"`
}

type failureRow struct {
	Label  string `db:"label"`
	Reason string `db:"reason"`
}

// Store a run with its results and failures in a single transaction.
func (s *SQLRunRepository) SaveRun(ctx context.Context, run *domain.ComparisonRun) (err error) {
	defer obs.Time(ctx, "runs.SaveRun")(&err)

	if s.DB == nil {
		return errors.New("run repository: db is nil")
	}
	if run == nil || run.RunID == "" {
		return errors.New("save run: run id must not be empty")
	}

	stops, err := json.Marshal(toPointsJSON(run.Stops))
	if err != nil {
		return fmt.Errorf("save run: encode stops: %w", err)
	}
	policy, err := json.Marshal(toPolicyJSON(run.Policy))
	if err != nil {
		return fmt.Errorf("save run: encode policy: %w", err)
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
	INSERT INTO comparison_runs (run_id, created_at_ms, baseline, stops_json, policy_json)
	VALUES (?, ?, ?, ?, ?);
	`), run.RunID, run.CreatedAt.UnixMilli(), run.Baseline, string(stops), string(policy)); err != nil {
		return fmt.Errorf("save run: insert run %s: %w", run.RunID, err)
	}

	resultStmt, err := tx.PreparexContext(ctx, tx.Rebind(`
	INSERT INTO comparison_results (run_id, position, label, order_json, distance_km, energy, improvement_pct)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("save run: prepare results: %w", err)
	}
	defer resultStmt.Close()

	for i, r := range run.Results {
		order, err := json.Marshal(r.Order)
		if err != nil {
			return fmt.Errorf("save run: encode order label=%q: %w", r.Label, err)
		}
		if _, err := resultStmt.ExecContext(ctx, run.RunID, i, r.Label, string(order), r.DistanceKm, r.Energy, r.ImprovementPct); err != nil {
			return fmt.Errorf("save run: insert result label=%q: %w", r.Label, err)
		}
	}

	failureStmt, err := tx.PreparexContext(ctx, tx.Rebind(`
	INSERT INTO comparison_failures (run_id, position, label, reason)
	VALUES (?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("save run: prepare failures: %w", err)
	}
	defer failureStmt.Close()

	for i, f := range run.Failures {
		if _, err := failureStmt.ExecContext(ctx, run.RunID, i, f.Label, f.Reason); err != nil {
			return fmt.Errorf("save run: insert failure label=%q: %w", f.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run: commit: %w", err)
	}

	return nil
}

func (s *SQLRunRepository) GetRun(ctx context.Context, runID string) (_ *domain.ComparisonRun, err error) {
	defer obs.Time(ctx, "runs.GetRun")(&err)

	if s.DB == nil {
		return nil, errors.New("run repository: db is nil")
	}

	var row runRow
	if err := s.DB.GetContext(ctx, &row, s.DB.Rebind(`
	SELECT run_id, created_at_ms, baseline, stops_json, policy_json
	FROM comparison_runs
	WHERE run_id = ?;
	`), runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get run %s: %w", runID, ports.ErrRunNotFound)
		}
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	var stops []pointJSON
	if err := json.Unmarshal([]byte(row.StopsJSON), &stops); err != nil {
		return nil, fmt.Errorf("get run %s: decode stops: %w", runID, err)
	}
	var policy policyJSON
	if err := json.Unmarshal([]byte(row.PolicyJSON), &policy); err != nil {
		return nil, fmt.Errorf("get run %s: decode policy: %w", runID, err)
	}

	var results []resultRow
	if err := s.DB.SelectContext(ctx, &results, s.DB.Rebind(`
	SELECT label, order_json, distance_km, energy, improvement_pct
	FROM comparison_results
	WHERE run_id = ?
	ORDER BY position;
	`), runID); err != nil {
		return nil, fmt.Errorf("get run %s: query results: %w", runID, err)
	}

	var failures []failureRow
	if err := s.DB.SelectContext(ctx, &failures, s.DB.Rebind(`
	SELECT label, reason
	FROM comparison_failures
	WHERE run_id = ?
	ORDER BY position;
	`), runID); err != nil {
		return nil, fmt.Errorf("get run %s: query failures: %w", runID, err)
	}

	run := &domain.ComparisonRun{
		RunID:     row.RunID,
		CreatedAt: time.UnixMilli(row.CreatedAtMs).UTC(),
		Stops:     toStopSet(stops),
		Policy:    policy.toDomain(),
		Baseline:  row.Baseline,
		Results:   make([]domain.SolverResult, 0, len(results)),
		Failures:  make([]domain.SolverFailure, 0, len(failures)),
	}

	for _, r := range results {
		var order []int
		if err := json.Unmarshal([]byte(r.OrderJSON), &order); err != nil {
			return nil, fmt.Errorf("get run %s: decode order label=%q: %w", runID, r.Label, err)
		}
		run.Results = append(run.Results, domain.SolverResult{
			Label:          r.Label,
			Order:          order,
			DistanceKm:     r.DistanceKm,
			Energy:         r.Energy,
			ImprovementPct: r.ImprovementPct,
		})
	}
	for _, f := range failures {
		run.Failures = append(run.Failures, domain.SolverFailure{Label: f.Label, Reason: f.Reason})
	}

	return run, nil
}
