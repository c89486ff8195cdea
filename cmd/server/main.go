package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"papir/backend/internal/config"
	"papir/backend/internal/handler"
	"papir/backend/internal/model"
	"papir/backend/internal/payment"
	"papir/backend/internal/repository"
	"papir/backend/internal/service"
	"papir/backend/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Initialize card store (Postgres or in-memory)
	var cardRepo repository.CardRepository
	switch cfg.Store.Backend {
	case "postgres":
		db, err := config.NewPostgresDB(cfg.Database.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		if cfg.Database.Postgres.AutoMigrate {
			if err := model.AutoMigrate(db); err != nil {
				logger.Fatal("failed to auto-migrate", zap.Error(err))
			}
			logger.Info("database migration completed")
		}
		cardRepo = repository.NewPGCardRepository(db)
	case "memory":
		cardRepo = repository.NewMemoryCardRepository()
		logger.Warn("using in-memory card store, data will not survive restarts")
	default:
		logger.Fatal("unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	// 4. Initialize state store (Redis or in-memory)
	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		stateStore = repository.NewRedisStateStore(redisClient)
		logger.Info("using Redis state store")
	case "memory":
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}

	// 5. Initialize media store
	mediaStore := storage.NewLocalStore(cfg.Media.RootDir, cfg.Media.BaseURL)

	// 6. Initialize services
	cardService := service.NewCardService(
		cardRepo, mediaStore,
		service.CreationPolicy(cfg.App.CreationPolicy),
		logger,
	)
	mediaService := service.NewMediaService(mediaStore, cfg.Media.MaxSizeMB, logger)
	batchService := service.NewBatchService(cardRepo, service.BatchConfig{
		IDLength:      cfg.App.IDLength,
		IDAlphabet:    cfg.App.IDAlphabet,
		ViewerBaseURL: cfg.App.ViewerBaseURL,
		ManifestDir:   cfg.Batch.ManifestDir,
		QRCodes:       cfg.Batch.QRCodes,
	}, logger)

	var checkoutService service.CheckoutService
	if cfg.Checkout.Enabled {
		paymentClient := payment.NewClient(cfg.Checkout.BaseURL, cfg.Checkout.SecretKey)
		checkoutService = service.NewCheckoutService(paymentClient, stateStore, service.CheckoutConfig{
			Currency:   cfg.Checkout.Currency,
			SuccessURL: cfg.Checkout.SuccessURL,
			CancelURL:  cfg.Checkout.CancelURL,
			SessionTTL: cfg.Checkout.SessionTTL,
			Templates:  cfg.Checkout.Templates,
		}, logger)
		logger.Info("checkout enabled", zap.String("processor", cfg.Checkout.BaseURL))
	}

	// 7. Initialize handlers
	cardHandler := handler.NewCardHandler(cardService, cfg.App.ViewerBaseURL, cfg.App.APIBaseURL)
	mediaHandler := handler.NewMediaHandler(mediaService)
	var checkoutHandler *handler.CheckoutHandler
	if checkoutService != nil {
		checkoutHandler = handler.NewCheckoutHandler(checkoutService)
	}
	adminHandler := handler.NewAdminHandler(batchService, cfg.Batch.DefaultCount)

	// 8. Setup router
	router := handler.SetupRouter(cfg, logger, cardHandler, mediaHandler, checkoutHandler, adminHandler)

	// 9. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 10. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
