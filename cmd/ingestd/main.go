// cmd/ingestd/main.go
//
// Standalone ingestion daemon: exposes the Google Drive endpoints for
// listing, downloading and ingesting sales exports, separate from the main
// analytics API.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/andresuchdata/salescast/backend-go/internal/drive"
	"github.com/andresuchdata/salescast/backend-go/internal/forecast"
	"github.com/andresuchdata/salescast/backend-go/internal/repository"
	"github.com/andresuchdata/salescast/backend-go/internal/repository/postgres"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize Google Drive service
	driveService, err := drive.NewService(os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"))
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive service: %v", err)
	}

	// Initialize sales storage
	var repo repository.SalesRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		salesRepo := postgres.NewSalesRepository(db)
		if err := salesRepo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to ensure database schema: %v", err)
		}
		repo = salesRepo
	} else {
		repo = repository.NewMemorySalesRepository()
	}

	// Initialize ingestion service. The model cache here is standalone; the
	// API server refits lazily when it sees new data after a restart.
	ingestService := drive.NewIngestService(driveService, repo, forecast.NewModelCache())

	// Create router and register routes
	r := mux.NewRouter()
	driveHandler := drive.NewHandler(driveService, ingestService, cfg.App.UploadDir)
	driveHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Ingest server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
