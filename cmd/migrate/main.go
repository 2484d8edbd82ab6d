package main

import (
	"context"
	"flag"
	"log"
	"time"

	"school-directory/internal/config"
	"school-directory/pkg/database/postgres"
)

func main() {
	seed := flag.Bool("seed", false, "insert sample schools after migrating")
	flag.Parse()

	log.Println("Starting migration runner...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewClient(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	log.Println("Connected to database. Running migrations...")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if *seed {
		log.Println("Inserting sample data...")
		if err := postgres.SeedSampleData(ctx, pool); err != nil {
			log.Fatalf("Failed to seed sample data: %v", err)
		}
	}

	log.Println("Migration runner finished successfully.")
}
