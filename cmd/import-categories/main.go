package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"backoffice-api/internal/config"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"
	"backoffice-api/internal/service"
	"backoffice-api/pkg/database"
)

// import-categories loads a JSON array of category trees into Postgres,
// the same payload POST /categories/bulk accepts.
func main() {
	file := flag.String("file", "", "path to a JSON array of categories")
	flag.Parse()
	if *file == "" {
		log.Fatal("-file is required")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	var specs []service.CategorySpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		log.Fatalf("Invalid JSON in %s: %v", *file, err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db, err := database.ConnectDB(database.PostgresConfig{
		DSN:      cfg.DatabaseURL,
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
	})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	categories := service.NewCategoryService(repository.NewStore(db), nil)
	result, err := categories.CreateBulk(context.Background(), specs, model.SystemActor)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	for _, e := range result.Errors {
		log.Printf("Skipped #%d %q: %s", e.Index, e.CategoryName, e.Error)
	}
	log.Printf("Imported %d of %d categories", len(result.Created), len(specs))
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
