// cmd/analytics/main.go
//
// Command-line access to the sales analytics: seed the database from CSV
// exports, pull exports from object storage, and run forecasts, demand
// analyses and stockout assessments without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/andresuchdata/salescast/backend-go/internal/cache"
	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/andresuchdata/salescast/backend-go/internal/forecast"
	"github.com/andresuchdata/salescast/backend-go/internal/ingest"
	"github.com/andresuchdata/salescast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
	"github.com/andresuchdata/salescast/backend-go/internal/storage"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newSelectorFlags() []cli.Flag {
	return []cli.Flag{
		newDBURLFlag(),
		&cli.StringFlag{Name: "brand", Usage: "Product brand", Required: true},
		&cli.StringFlag{Name: "model", Usage: "Product model", Required: true},
	}
}

func buildService(c *cli.Context) (*service.AnalysisService, error) {
	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return nil, err
	}

	repo := postgres.NewSalesRepository(db)
	if err := repo.EnsureSchema(c.Context); err != nil {
		return nil, err
	}

	fcfg := config.Load().Forecast
	forecaster := forecast.NewForecaster(forecast.Params{
		Estimators:   fcfg.Estimators,
		LearningRate: fcfg.LearningRate,
		MaxDepth:     fcfg.MaxDepth,
		Smoothing:    fcfg.Smoothing,
		HorizonDays:  fcfg.HorizonDays,
	}, forecast.NewModelCache())

	return service.NewAnalysisService(repo, cache.NewNoopAnalysisCache(), forecaster), nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "analytics",
		Usage: "Sales forecasting and demand analytics",
		Commands: []*cli.Command{
			{
				Name:  "seed",
				Usage: "Load a sales CSV export into the database",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to the sales CSV file",
						Required: true,
					},
				},
				Action: runSeed,
			},
			{
				Name:  "pull",
				Usage: "Download sales exports from object storage and load them",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Object key prefix to pull",
						Value: "exports/",
					},
					&cli.StringFlag{
						Name:  "download-dir",
						Usage: "Local directory for downloaded files",
						Value: "./data/downloads",
					},
				},
				Action: runPull,
			},
			{
				Name:  "push",
				Usage: "Upload a local sales CSV export to object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to the sales CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "key",
						Usage: "Destination object key (defaults to exports/<filename>)",
					},
				},
				Action: runPush,
			},
			{
				Name:  "forecast",
				Usage: "Forecast daily sales for one product",
				Flags: append(newSelectorFlags(),
					&cli.IntFlag{Name: "horizon", Usage: "Days to forecast", Value: 14},
				),
				Action: runForecast,
			},
			{
				Name:   "demand",
				Usage:  "Compute demand statistics for one product",
				Flags:  newSelectorFlags(),
				Action: runDemand,
			},
			{
				Name:  "stockout",
				Usage: "Assess stockout risk for one product",
				Flags: append(newSelectorFlags(),
					&cli.IntFlag{Name: "stock", Usage: "Current stock on hand", Required: true},
					&cli.IntFlag{Name: "lead-time", Usage: "Supplier lead time in days", Value: 7},
				),
				Action: runStockout,
			},
			{
				Name:  "batch-forecast",
				Usage: "Forecast every product with stored sales data",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{Name: "horizon", Usage: "Days to forecast", Value: 14},
					&cli.IntFlag{Name: "concurrency", Usage: "Parallel forecasts", Value: 4},
				},
				Action: runBatchForecast,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSeed(c *cli.Context) error {
	svc, err := buildService(c)
	if err != nil {
		return err
	}

	file, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open sales file: %w", err)
	}
	defer file.Close()

	records, err := ingest.ReadSalesCSV(file)
	if err != nil {
		return fmt.Errorf("failed to parse sales file: %w", err)
	}

	count, err := svc.Ingest(c.Context, records)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d sales records", count)
	return nil
}

func runPull(c *cli.Context) error {
	svc, err := buildService(c)
	if err != nil {
		return err
	}

	cfg := config.Load().Storage
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return err
	}

	objects, err := client.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		log.Printf("No objects found under prefix %q", c.String("prefix"))
		return nil
	}

	total := 0
	for _, obj := range objects {
		localPath := fmt.Sprintf("%s/%s", c.String("download-dir"), obj.Key)
		if err := client.DownloadObject(c.Context, obj.Key, localPath); err != nil {
			return err
		}

		file, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("failed to open downloaded file: %w", err)
		}
		records, err := ingest.ReadSalesCSV(file)
		file.Close()
		if err != nil {
			log.Printf("Skipping %s: %v", obj.Key, err)
			continue
		}

		count, err := svc.Ingest(c.Context, records)
		if err != nil {
			return err
		}
		total += count
		log.Printf("Loaded %d records from %s", count, obj.Key)
	}

	log.Printf("Pull complete: %d records from %d objects", total, len(objects))
	return nil
}

func runPush(c *cli.Context) error {
	cfg := config.Load().Storage
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return err
	}

	path := c.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read sales file: %w", err)
	}

	key := c.String("key")
	if key == "" {
		key = "exports/" + filepath.Base(path)
	}
	if err := client.UploadObject(c.Context, key, data); err != nil {
		return err
	}
	log.Printf("Uploaded %s (%d bytes)", key, len(data))
	return nil
}

func runForecast(c *cli.Context) error {
	svc, err := buildService(c)
	if err != nil {
		return err
	}
	result, err := svc.Forecast(context.Background(), nil, c.String("brand"), c.String("model"), c.Int("horizon"))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runDemand(c *cli.Context) error {
	svc, err := buildService(c)
	if err != nil {
		return err
	}
	stats, err := svc.AnalyzeDemand(context.Background(), nil, c.String("brand"), c.String("model"))
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func runStockout(c *cli.Context) error {
	svc, err := buildService(c)
	if err != nil {
		return err
	}
	assessment, err := svc.AssessStockout(context.Background(), nil, c.String("brand"), c.String("model"), c.Int("stock"), c.Int("lead-time"))
	if err != nil {
		return err
	}
	return printJSON(assessment)
}

func runBatchForecast(c *cli.Context) error {
	svc, err := buildService(c)
	if err != nil {
		return err
	}
	items, err := svc.BatchForecast(context.Background(), c.Int("horizon"), c.Int("concurrency"))
	if err != nil {
		return err
	}
	return printJSON(items)
}
