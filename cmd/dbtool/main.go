package main

import (
	"flag"
	"log"

	"github.com/jmoiron/sqlx"

	"route-compare-service/internal/adapters/repositories"
	"route-compare-service/internal/config"
	"route-compare-service/internal/platform/db"
)

func main() {
	config.Load()

	seed := flag.Bool("seed", true, "load seed instances after creating the schema")
	flag.Parse()

	driver := config.Get("DB_DRIVER", db.DriverSQLite)
	dsn := config.Get("DB_PATH", "data/app.db")
	if driver == db.DriverPostgres {
		dsn = config.Get("DATABASE_URL", "")
		if dsn == "" {
			log.Fatal("DATABASE_URL is required")
		}
	}

	conn, err := db.Open(driver, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/instances.json")
	initAndSeed(conn, seedPath, *seed)
}

func initAndSeed(conn *sqlx.DB, seedPath string, seed bool) {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if !seed {
		return
	}

	log.Println("Seeding database...")
	if err := repositories.SeedFromJSON(conn, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
