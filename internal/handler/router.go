package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"papir/backend/internal/config"
	"papir/backend/internal/handler/middleware"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	cardHandler *CardHandler,
	mediaHandler *MediaHandler,
	checkoutHandler *CheckoutHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	api := r.Group("/api")
	{
		api.GET("/health", cardHandler.Health)

		api.GET("/cards", cardHandler.List)
		api.POST("/cards", cardHandler.Save)
		api.GET("/cards/:card_id", cardHandler.Get)
		api.GET("/cards/:card_id/qr", cardHandler.QRCode)
		api.DELETE("/cards/:card_id", cardHandler.Delete)

		api.POST("/upload-media", mediaHandler.Upload)
		api.POST("/activate-card", cardHandler.Activate)
		api.POST("/increment-scan", cardHandler.IncrementScan)

		if checkoutHandler != nil {
			api.POST("/create-checkout", checkoutHandler.Create)
		}
	}

	// Admin routes are only mounted when an admin key is configured.
	if adminHandler != nil && cfg.Admin.KeyHash != "" {
		admin := r.Group("/api/admin")
		admin.Use(middleware.AdminKey(cfg.Admin.KeyHash))
		{
			admin.POST("/generate-batch", adminHandler.GenerateBatch)
		}
	}

	// Uploaded media is served straight from the local store.
	r.Static("/media", cfg.Media.RootDir)

	return r
}
