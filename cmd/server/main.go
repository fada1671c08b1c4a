package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"route-compare-service/internal/adapters/cache"
	"route-compare-service/internal/adapters/repositories"
	"route-compare-service/internal/adapters/solver"
	"route-compare-service/internal/api"
	"route-compare-service/internal/config"
	"route-compare-service/internal/platform/db"
	"route-compare-service/internal/ports"
	"route-compare-service/internal/qubo"
	"route-compare-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, solvers) behind ports and starts the HTTP server.
func main() {
	config.Load()

	port := config.Get("PORT", "8080")
	seedPath := config.Get("SEED_PATH", "data/seeds/instances.json")

	conn, err := openDB()
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	// Initialize schema and seed demo instances on startup for local runs.
	if err := initAndSeed(conn, seedPath); err != nil {
		log.Fatal(err)
	}

	annealDefaults := qubo.Params{
		Steps:     config.GetInt("ANNEAL_STEPS", 100_000),
		BatchSize: config.GetInt("ANNEAL_BATCH", 1_000),
		T0:        config.GetFloat("ANNEAL_T0", 0),
		T1:        config.GetFloat("ANNEAL_T1", 0),
	}

	solvers := []ports.RouteSolver{
		solver.NewGreedySolver(),
		solver.NewAnnealingSolver(annealDefaults.Steps, annealDefaults.BatchSize, annealDefaults.T0, annealDefaults.T1),
	}

	remote, closeCache, err := remoteSolvers()
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()
	solvers = append(solvers, remote...)

	runRepo := repositories.NewSQLRunRepository(conn)
	instanceRepo := repositories.NewSQLInstanceRepository(conn)

	svc := services.NewComparisonService(runRepo, solvers...)
	svc.MaxConcurrent = config.GetInt("MAX_CONCURRENT_SOLVERS", services.DefaultMaxConcurrent)
	svc.SolverTimeout = config.GetDuration("SOLVER_TIMEOUT", 90*time.Second)

	// The raw QUBO endpoint has no instance to derive temperatures from.
	if annealDefaults.T0 == 0 && annealDefaults.T1 == 0 {
		annealDefaults.T0, annealDefaults.T1 = 10, 0.01
	}
	router := api.NewRouter(svc, runRepo, instanceRepo, annealDefaults)

	labels := make([]string, 0, len(solvers))
	for _, s := range solvers {
		labels = append(labels, s.Label())
	}

	// Timeouts allow for slow remote solvers on large instances.
	log.Printf("Server listening addr=:%s solvers=%v", port, labels)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openDB() (*sqlx.DB, error) {
	driver := config.Get("DB_DRIVER", db.DriverSQLite)
	if driver == db.DriverPostgres {
		databaseURL := config.Get("DATABASE_URL", "")
		if databaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when DB_DRIVER=pgx")
		}
		return db.Open(driver, databaseURL)
	}
	return db.Open(driver, config.Get("DB_PATH", "data/app.db"))
}

func initAndSeed(conn *sqlx.DB, seedPath string) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); errors.Is(err, os.ErrNotExist) {
		log.Printf("No seed file found path=%s (skipping)", seedPath)
		return nil
	}
	if err := repositories.SeedFromJSON(conn, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

// remoteSolvers builds one HTTP solver per REMOTE_SOLVERS entry, sharing a
// Redis response cache when REDIS_ADDR is set.
func remoteSolvers() ([]ports.RouteSolver, func(), error) {
	endpoints := config.ParseSolverEndpoints(config.Get("REMOTE_SOLVERS", ""))
	if len(endpoints) == 0 {
		return nil, func() {}, nil
	}

	opts := []solver.HTTPOption{}
	if key := config.Get("REMOTE_SOLVER_API_KEY", ""); key != "" {
		opts = append(opts, solver.WithAPIKey(key))
	}

	closeFn := func() {}
	if addr := config.Get("REDIS_ADDR", ""); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ttl := config.GetDuration("SOLVER_CACHE_TTL", 24*time.Hour)
		opts = append(opts, solver.WithCache(cache.NewRedisSolverCache(client, ttl)))
		closeFn = func() { _ = client.Close() }
	}

	labels := make([]string, 0, len(endpoints))
	for label := range endpoints {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	out := make([]ports.RouteSolver, 0, len(labels))
	for _, label := range labels {
		if label == solver.GreedyLabel || label == solver.AnnealingLabel {
			closeFn()
			return nil, nil, fmt.Errorf("remote solver label %q collides with a local solver", label)
		}
		s, err := solver.NewHTTPRouteSolver(label, endpoints[label], opts...)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		out = append(out, s)
	}

	return out, closeFn, nil
}
