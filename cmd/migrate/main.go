package main

import (
	"context"
	"log"
	"os"
	"time"

	"sheetview/adapters/postgres"
	"sheetview/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate <database_url> (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	runner := migration.NewRunner()
	log.Printf("Applying schema %s", runner.Version())
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	records, err := postgres.NewLoadHistoryRepository(db).Recent(ctx, 1)
	if err != nil {
		log.Fatalf("Schema check failed: %v", err)
	}
	log.Printf("Migration complete: load_history readable (%d recent records)", len(records))
}
