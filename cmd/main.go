package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/carvault/backend/internal/auth"
	"github.com/carvault/backend/internal/config"
	"github.com/carvault/backend/internal/handlers"
	"github.com/carvault/backend/internal/logger"
	"github.com/carvault/backend/internal/middleware"
	"github.com/carvault/backend/internal/repositories"
	"github.com/carvault/backend/internal/services"
	"github.com/carvault/backend/internal/storage"
	"github.com/carvault/backend/internal/vin"

	_ "github.com/carvault/backend/docs"
)

const maxRequestSize = 50 * 1024 * 1024 // 50MB for file uploads

// @title CarVault Inventory API
// @version 1.0
// @description API for managing salvage vehicle inventory, media and remarks

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for service-to-service authentication
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

	logger.Logger.Info("Starting CarVault Inventory Service")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize storage backend
	fileStorage, err := storage.New(context.Background(), storage.Config{
		Provider:      cfg.Storage.Provider,
		BasePath:      cfg.Storage.BasePath,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		S3Region:      cfg.Storage.S3Region,
		S3Bucket:      cfg.Storage.S3Bucket,
		PresignTTL:    cfg.Storage.PresignTTL,
	}, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage backend", zap.Error(err))
	}

	// Initialize JWT token generator (for auth middleware)
	tokenGenerator := auth.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize vehicle registry client
	vinClient := vin.NewClient(cfg.VIN.APIURL, cfg.VIN.Timeout, cfg.VIN.MaxElapsed, logger.Logger)

	// Initialize repositories
	carRepo := repositories.NewCarRepository(db)
	mediaRepo := repositories.NewMediaRepository(db)
	remarkRepo := repositories.NewRemarkRepository(db)

	// Initialize services
	carService := services.NewCarService(carRepo, vinClient, logger.Logger)
	mediaService := services.NewMediaService(mediaRepo, carRepo, fileStorage, logger.Logger)
	remarkService := services.NewRemarkService(remarkRepo, carRepo)

	// Initialize middleware
	authMw := middleware.AuthMiddleware(tokenGenerator)
	uploadGuardMw := func(next http.Handler) http.Handler { return next }
	if cfg.APIKey != "" {
		uploadGuardMw = middleware.APIKeyMiddleware(cfg.APIKey)
	}

	// Initialize handlers
	carHandler := handlers.NewCarHandler(carService, logger.Logger, authMw)
	mediaHandler := handlers.NewMediaHandler(mediaService, logger.Logger, authMw)
	remarkHandler := handlers.NewRemarkHandler(remarkService, logger.Logger, authMw)
	uploadHandler := handlers.NewUploadHandler(fileStorage, cfg.Storage.BasePath, logger.Logger, uploadGuardMw)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(maxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Health endpoint
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "ok"
		code := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Upload transfer channel for the local storage backend
	uploadHandler.RegisterRoutes(r)

	// Scope API routes to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		carHandler.RegisterRoutes(r)
		mediaHandler.RegisterRoutes(r)
		remarkHandler.RegisterRoutes(r)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second, // Longer timeout for file uploads
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "carvault_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
