package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/spark-dating/spark-core/internal/config"
	"github.com/spark-dating/spark-core/internal/db"
)

// Seeds the database with demo profiles, likes, matches and promocodes.
// Destructive: clears existing data first.
func main() {
	_ = godotenv.Load()

	cfg := config.New()
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Done.")
}
