// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/api"
	"github.com/andresuchdata/salescast/backend-go/internal/cache"
	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/andresuchdata/salescast/backend-go/internal/forecast"
	"github.com/andresuchdata/salescast/backend-go/internal/repository"
	"github.com/andresuchdata/salescast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
	"github.com/andresuchdata/salescast/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize storage: Postgres when configured, in-memory otherwise
	var repo repository.SalesRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		salesRepo := postgres.NewSalesRepository(db)
		if err := salesRepo.EnsureSchema(context.Background()); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		repo = salesRepo
	} else {
		logger.Log.Info().Msg("Database disabled, using in-memory sales store")
		repo = repository.NewMemorySalesRepository()
	}

	// Initialize result cache (noop when Redis is not configured)
	analysisCache, err := cache.NewAnalysisCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to redis")
	}

	// Initialize forecaster and services
	forecaster := forecast.NewForecaster(forecast.Params{
		Estimators:   cfg.Forecast.Estimators,
		LearningRate: cfg.Forecast.LearningRate,
		MaxDepth:     cfg.Forecast.MaxDepth,
		Smoothing:    cfg.Forecast.Smoothing,
		HorizonDays:  cfg.Forecast.HorizonDays,
	}, forecast.NewModelCache())

	analysisService := service.NewAnalysisService(repo, analysisCache, forecaster)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{AnalysisService: analysisService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
