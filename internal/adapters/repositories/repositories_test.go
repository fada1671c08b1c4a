package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-compare-service/internal/domain"
	"route-compare-service/internal/platform/db"
	"route-compare-service/internal/ports"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, InitSchema(conn))
	// Idempotent.
	require.NoError(t, InitSchema(conn))
	return conn
}

func f64(v float64) *float64 { return &v }

func TestRunRepositoryRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	repo := NewSQLRunRepository(conn)
	ctx := context.Background()

	start := domain.Point{Lat: 52.5, Lng: 13.4}
	run := &domain.ComparisonRun{
		RunID:     "3f1c2a4e-0000-4000-8000-000000000001",
		CreatedAt: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		Stops:     domain.StopSet{{Lat: 52.52, Lng: 13.40}, {Lat: 52.50, Lng: 13.45}, {Lat: 52.48, Lng: 13.38}},
		Policy:    domain.DepotPolicy{Start: &start, RoundTrip: true},
		Baseline:  "greedy",
		Results: []domain.SolverResult{
			{Label: "greedy", Order: []int{0, 1, 2}, DistanceKm: 12.5, ImprovementPct: f64(0)},
			{Label: "annealing", Order: []int{2, 1, 0}, DistanceKm: 11.25, Energy: f64(-3.5), ImprovementPct: f64(10)},
		},
		Failures: []domain.SolverFailure{{Label: "remote", Reason: "solve \"remote\": timeout"}},
	}

	require.NoError(t, repo.SaveRun(ctx, run))

	got, err := repo.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestRunRepositoryEmptyCollections(t *testing.T) {
	conn := openTestDB(t)
	repo := NewSQLRunRepository(conn)
	ctx := context.Background()

	run := &domain.ComparisonRun{
		RunID:     "empty",
		CreatedAt: time.UnixMilli(1_700_000_000_000).UTC(),
		Stops:     domain.StopSet{{Lat: 1, Lng: 2}},
		Baseline:  "greedy",
	}
	require.NoError(t, repo.SaveRun(ctx, run))

	got, err := repo.GetRun(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got.Results)
	assert.Empty(t, got.Failures)
	assert.Nil(t, got.Policy.Start)
	assert.False(t, got.Policy.RoundTrip)
}

func TestRunRepositoryNotFoundAndDuplicate(t *testing.T) {
	conn := openTestDB(t)
	repo := NewSQLRunRepository(conn)
	ctx := context.Background()

	_, err := repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrRunNotFound)

	run := &domain.ComparisonRun{RunID: "dup", CreatedAt: time.Now(), Baseline: "greedy"}
	require.NoError(t, repo.SaveRun(ctx, run))
	assert.Error(t, repo.SaveRun(ctx, run))

	assert.Error(t, repo.SaveRun(ctx, &domain.ComparisonRun{}))
}

func TestSeedAndInstanceRepository(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	seed := filepath.Join(t.TempDir(), "instances.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[
		{"instance_id": 2, "name": "berlin", "stops": [{"lat": 52.52, "lng": 13.40}, {"lat": 52.50, "lng": 13.45}]},
		{"instance_id": 1, "name": "square", "stops": [{"lat": 0, "lng": 0}, {"lat": 0, "lng": 1}, {"lat": 1, "lng": 1}, {"lat": 1, "lng": 0}]}
	]`), 0o600))

	require.NoError(t, SeedFromJSON(conn, seed))
	// Re-seeding replaces rows instead of failing.
	require.NoError(t, SeedFromJSON(conn, seed))

	repo := NewSQLInstanceRepository(conn)
	list, err := repo.ListInstances(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].InstanceID)
	assert.Equal(t, "square", list[0].Name)
	assert.Len(t, list[0].Stops, 4)

	inst, err := repo.GetInstance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.StopSet{{Lat: 52.52, Lng: 13.40}, {Lat: 52.50, Lng: 13.45}}, inst.Stops)

	_, err = repo.GetInstance(ctx, 99)
	assert.ErrorIs(t, err, ports.ErrInstanceNotFound)
}

func TestSeedFromJSONRejectsInvalid(t *testing.T) {
	conn := openTestDB(t)
	dir := t.TempDir()

	cases := map[string]string{
		"bad id":     `[{"instance_id": 0, "name": "x", "stops": [{"lat": 0, "lng": 0}]}]`,
		"empty name": `[{"instance_id": 1, "name": " ", "stops": [{"lat": 0, "lng": 0}]}]`,
		"no stops":   `[{"instance_id": 1, "name": "x", "stops": []}]`,
		"not json":   `{`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		assert.Error(t, SeedFromJSON(conn, path), name)
	}

	assert.Error(t, SeedFromJSON(conn, filepath.Join(dir, "missing.json")))
}
