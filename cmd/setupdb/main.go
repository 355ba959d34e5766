package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/config"
	"github.com/MatthewTaormina/Gemini-Web-UI/internal/repository/postgres"
	"github.com/joho/godotenv"
)

const setupTimeout = time.Minute

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Println("=== Setting Up Database ===")
	fmt.Println()

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	fmt.Println("Applying schema...")
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("❌ Failed to apply schema: %v", err)
	}

	fmt.Println("✅ Schema applied successfully")
	fmt.Println()

	fmt.Println("=== Verifying Tables ===")
	missing, err := db.MissingTables(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to verify tables: %v", err)
	}

	absent := make(map[string]bool, len(missing))
	for _, table := range missing {
		absent[table] = true
	}
	for _, table := range postgres.Tables {
		if absent[table] {
			fmt.Printf("❌ Table '%s' NOT created\n", table)
		} else {
			fmt.Printf("✅ Table '%s' created\n", table)
		}
	}

	fmt.Println()
	if len(missing) > 0 {
		log.Fatalf("❌ %d table(s) missing", len(missing))
	}
	fmt.Println("=== Database Setup Complete ===")
	fmt.Println()
	fmt.Println("Next: Run 'go run ./cmd/server' to start the server")
}
