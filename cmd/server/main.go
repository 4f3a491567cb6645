package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/gymsite/backend/docs"
	"github.com/gymsite/backend/internal/auth/middleware"
	"github.com/gymsite/backend/internal/auth/service"
	"github.com/gymsite/backend/internal/config"
	"github.com/gymsite/backend/internal/database"
	"github.com/gymsite/backend/internal/database/migrations"
	"github.com/gymsite/backend/internal/handlers"
	"github.com/gymsite/backend/internal/logger"
	loggerMiddleware "github.com/gymsite/backend/internal/logger/middleware"
	"github.com/gymsite/backend/internal/middlewares"
	"github.com/gymsite/backend/internal/models"
	"github.com/gymsite/backend/internal/repositories"
	"github.com/gymsite/backend/internal/roles"
	"github.com/gymsite/backend/internal/services"
	"github.com/gymsite/backend/internal/storage"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// maxJSONBodySize limits every non-multipart request body
const maxJSONBodySize = 1 << 20

// @title Gym Website API
// @version 1.0
// @description API for gym accounts, roles and the media gallery

// @host localhost:5000
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting gym website backend", zap.String("db_driver", cfg.Database.Driver), zap.String("storage", cfg.Storage.Type))

	policy, err := roles.ParsePromotionPolicy(cfg.PromotionPolicy)
	if err != nil {
		logger.Logger.Fatal("Invalid promotion policy", zap.Error(err))
	}

	// Connect to database
	db, err := database.Open(cfg.Database.Driver, cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := migrations.MigrateUp(db, cfg.Database.Driver); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize file storage
	fileStorage, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Initialize JWT token generator
	tokenGenerator := service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db, logger.Logger)
	galleryRepo := repositories.NewGalleryRepository(db, logger.Logger)

	// Initialize services
	authService := services.NewAuthService(accountRepo, services.NewBcryptHasher(0), tokenGenerator, logger.Logger)
	adminService := services.NewAdminService(accountRepo, roles.NewMachine(policy), logger.Logger)
	galleryService := services.NewGalleryService(galleryRepo, fileStorage, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.JWT.AccessTokenExpiry, logger.Logger)
	userHandler := handlers.NewUserHandler(adminService, logger.Logger)
	galleryHandler := handlers.NewGalleryHandler(galleryService, logger.Logger)

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(tokenGenerator)
	adminMiddleware := middleware.StoredRoleMiddleware(accountRepo, models.RoleAdmin)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimitPerMinute, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(maxJSONBodySize, cfg.Server.MaxUploadSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Uploaded files are served directly only by the local backend, S3 objects have their own URLs
	if local, ok := fileStorage.(*storage.LocalStorage); ok {
		files := http.FileServer(http.Dir(local.BasePath()))
		r.Handle("/images/*", files)
		r.Handle("/videos/*", files)
	}

	// Scope router to /api
	r.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r, authMiddleware)
		galleryHandler.RegisterRoutes(r, authMiddleware, adminMiddleware)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
