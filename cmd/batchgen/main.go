// Command batchgen generates a batch of unique pending cards and writes the
// manufacturing manifest. It runs out-of-band from the server and shares
// only the database with it.
package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"papir/backend/internal/config"
	"papir/backend/internal/model"
	"papir/backend/internal/repository"
	"papir/backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	count := flag.Int("count", 0, "number of card ids to generate (default from config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
	}

	batchService := service.NewBatchService(
		repository.NewPGCardRepository(db),
		service.BatchConfig{
			IDLength:      cfg.App.IDLength,
			IDAlphabet:    cfg.App.IDAlphabet,
			ViewerBaseURL: cfg.App.ViewerBaseURL,
			ManifestDir:   cfg.Batch.ManifestDir,
			QRCodes:       cfg.Batch.QRCodes,
		},
		logger,
	)

	n := *count
	if n <= 0 {
		n = cfg.Batch.DefaultCount
	}

	result, err := batchService.Generate(context.Background(), n)
	if err != nil {
		logger.Fatal("batch generation failed", zap.Error(err))
	}

	logger.Info("batch complete",
		zap.Int("count", len(result.CardIDs)),
		zap.String("manifest", result.ManifestPath),
		zap.String("qr_dir", result.QRCodeDir))
}
