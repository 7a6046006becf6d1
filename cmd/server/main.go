package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hemanth1845/FullStackProject/internal/api"
	"github.com/Hemanth1845/FullStackProject/internal/config"
	"github.com/Hemanth1845/FullStackProject/internal/crypto"
	"github.com/Hemanth1845/FullStackProject/internal/db"
	"github.com/Hemanth1845/FullStackProject/internal/db/models"
	"github.com/Hemanth1845/FullStackProject/internal/services"
	"github.com/Hemanth1845/FullStackProject/internal/storage"
	"github.com/Hemanth1845/FullStackProject/pkg/logger"
	"github.com/Hemanth1845/FullStackProject/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	config.LogConfig(cfg, zapLogger)

	database, err := db.Initialize(cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	blobStore, err := storage.NewBlobStore(cfg.Storage)
	if err != nil {
		zapLogger.Fatal("Failed to initialize blob store", zap.Error(err))
	}

	if err := seedDatabase(database, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed database", zap.Error(err))
	}

	metricsCollector := metrics.NewMetricsCollector()
	metadataStore := storage.NewGormMetadataStore(database)
	sessions := services.NewSessionStore(cfg.Security.SessionTimeout, zapLogger)
	defer sessions.Close()
	vaultService := services.NewVaultService(metadataStore, blobStore, zapLogger, metricsCollector)

	router := api.NewRouter(cfg, zapLogger, metricsCollector, vaultService, sessions, database)
	router.SetupRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	zapLogger.Info("Server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		zapLogger.Error("Forced shutdown", zap.Error(err))
	}

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}
	zapLogger.Info("Server gracefully stopped")
}

// seedDatabase creates a demo admin account on first start so a fresh
// deployment is immediately usable.
func seedDatabase(database *gorm.DB, logger *zap.Logger) error {
	var count int64
	database.Model(&models.User{}).Count(&count)
	if count > 0 {
		logger.Info("Database already seeded, skipping")
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
		logger.Warn("ADMIN_PASSWORD not set, using default demo password")
	}
	passwordHash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: passwordHash,
		FirstName:    "Admin",
		LastName:     "User",
		ActiveStatus: true,
	}
	if err := database.Create(&admin).Error; err != nil {
		return err
	}

	logger.Info("Seeded initial admin user", zap.Uint("user_id", admin.ID))
	return nil
}
