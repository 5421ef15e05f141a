package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/quatton/libra/pkg/db"
)

// Usage: migrate [up|down]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ No .env file found")
	} else {
		log.Println("✓ Loaded .env file")
	}

	ctx := context.Background()

	var cfg db.Config
	if err := envconfig.Process("DB", &cfg); err != nil {
		log.Fatalf("failed to process env vars: %v", err)
	}

	database, err := db.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	var status string
	switch direction {
	case "up":
		log.Println("Running migrations...")
		status, err = db.Migrate(ctx, database)
	case "down":
		log.Println("Rolling back last migration group...")
		status, err = db.Rollback(ctx, database)
	default:
		log.Fatalf("unknown direction %q (want up or down)", direction)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Println(status)
}
