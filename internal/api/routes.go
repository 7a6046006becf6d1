package api

import (
	"net/http"

	"github.com/Hemanth1845/FullStackProject/internal/api/handlers"
	"github.com/Hemanth1845/FullStackProject/internal/api/middleware"
	"github.com/Hemanth1845/FullStackProject/internal/config"
	"github.com/Hemanth1845/FullStackProject/internal/services"
	"github.com/Hemanth1845/FullStackProject/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	engine         *gin.Engine
	logger         *zap.Logger
	metrics        *metrics.MetricsCollector
	authHandler    *handlers.AuthHandler
	vaultHandler   *handlers.VaultHandler
	authMiddleware *middleware.AuthMiddleware
	reqMiddleware  *middleware.RequestMiddleware
}

func NewRouter(
	cfg *config.Configuration,
	logger *zap.Logger,
	metricsCollector *metrics.MetricsCollector,
	vaultService *services.VaultService,
	sessions *services.SessionStore,
	db *gorm.DB,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	tracker := middleware.NewIPAttemptTracker(cfg.Security.MaxFailedAttempts, cfg.Security.FailureWindow)
	reqMiddleware := middleware.NewRequestMiddleware(logger, tracker)
	authMiddleware := middleware.NewAuthMiddleware(sessions, db)

	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(reqMiddleware.RecoverPanic())

	authHandler := handlers.NewAuthHandler(sessions, tracker, db, logger)
	vaultHandler := handlers.NewVaultHandler(vaultService, tracker, logger,
		cfg.Vault.MaxUploadBytes, cfg.Vault.PinMinLength, cfg.Vault.PinMaxLength)

	return &Router{
		engine:         engine,
		logger:         logger,
		metrics:        metricsCollector,
		authHandler:    authHandler,
		vaultHandler:   vaultHandler,
		authMiddleware: authMiddleware,
		reqMiddleware:  reqMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "crm-backend"})
	})

	r.engine.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"counters":  r.metrics.GetCounters(),
			"latencies": r.metrics.GetLatencies(),
			"sizes":     r.metrics.GetSizes(),
		})
	})

	r.engine.POST("/register", r.authHandler.Register)
	r.engine.POST("/login", r.reqMiddleware.ThrottlePinAttempts(), r.authHandler.Login)
	r.engine.GET("/logout", r.authHandler.Logout)

	files := r.engine.Group("/api/files")
	files.Use(r.authMiddleware.RequireAuth())
	files.Use(r.reqMiddleware.ThrottlePinAttempts())
	{
		files.POST("/upload", r.vaultHandler.UploadFile)
		files.GET("", r.vaultHandler.ListFiles)
		files.POST("/download/:id", r.vaultHandler.DownloadFile)
		files.POST("/delete/:id", r.vaultHandler.DeleteFile)
		files.POST("/reset-pin", r.vaultHandler.ResetPin)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) Run(addr string) error {
	r.logger.Info("Starting HTTP server", zap.String("address", addr))
	return r.engine.Run(addr)
}
