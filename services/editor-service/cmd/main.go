package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hospitalcms/backend/internal/contentapi"
	authMiddleware "github.com/hospitalcms/backend/libs/auth/middleware"
	authService "github.com/hospitalcms/backend/libs/auth/service"
	"github.com/hospitalcms/backend/libs/config"
	"github.com/hospitalcms/backend/libs/logger"
	loggerMiddleware "github.com/hospitalcms/backend/libs/logger/middleware"
	sharedMiddleware "github.com/hospitalcms/backend/libs/middlewares"
	_ "github.com/hospitalcms/backend/services/editor-service/docs"
	"github.com/hospitalcms/backend/services/editor-service/internal/handlers"
	"github.com/hospitalcms/backend/services/editor-service/internal/repositories"
	"github.com/hospitalcms/backend/services/editor-service/internal/services"
	"github.com/hospitalcms/backend/services/editor-service/internal/store"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const (
	maxJSONRequestSize   = 1 * 1024 * 1024  // 1MB for edits
	maxUploadRequestSize = 50 * 1024 * 1024 // 50MB for media uploads
)

// @title Hospital CMS Section Editor API
// @version 1.0
// @description Editing sessions over the hospital website content API

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Operator access token with the Bearer prefix
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

	logger.Logger.Info("Starting Hospital CMS Editor Service")

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

	// Initialize JWT token generator (for auth middleware)
	tokenGenerator := authService.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Content API client
	contentClient := contentapi.NewClient(cfg.ContentAPI.BaseURL, cfg.ContentAPI.APIKey, cfg.ContentAPI.Timeout, logger.Logger)

	// Session store
	sessionStore, stopStore, err := newSessionStore(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize session store", zap.Error(err))
	}
	defer stopStore()

	// Initialize repositories
	historyRepo := repositories.NewSaveHistoryRepository(db)

	// Initialize services
	editorService := services.NewEditorService(contentClient, sessionStore, historyRepo, cfg.Sessions.SubmitEmptyChanges, logger.Logger)
	settingsService := services.NewSettingsService(contentClient, logger.Logger)

	// Initialize handlers
	editorHandler := handlers.NewEditorHandler(editorService, logger.Logger)
	settingsHandler := handlers.NewSettingsHandler(settingsService, logger.Logger)
	historyCleaningHandler := handlers.NewHistoryCleaningHandler(historyRepo, cfg.History.Retention, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(sharedMiddleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(sharedMiddleware.RecoveryMiddleware(logger.Logger))
	r.Use(sharedMiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(sharedMiddleware.RequestSizeLimitMiddleware(maxJSONRequestSize, maxUploadRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Scope router to /api/v1; every route needs an editor token
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.RoleMiddleware(tokenGenerator, authService.RoleEditor))
		editorHandler.RegisterRoutes(r)
		settingsHandler.RegisterRoutes(r)
	})

	// Service-to-service routes, only mounted when an API key is configured
	if cfg.APIKey != "" {
		r.Route("/internal/v1", func(r chi.Router) {
			r.Use(authMiddleware.APIKeyMiddleware(cfg.APIKey))
			editorHandler.RegisterInternalRoutes(r)
			historyCleaningHandler.RegisterRoutes(r)
		})
	}

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second, // Longer timeout for file uploads
		WriteTimeout: cfg.ContentAPI.Timeout + 15*time.Second,
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

// newSessionStore creates the configured session store and returns its stop function
func newSessionStore(cfg *config.Config) (services.SessionStore, func(), error) {
	if cfg.Sessions.Store == config.SessionStoreRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Logger.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr()))
		return store.NewRedisStore(client, cfg.Sessions.TTL), func() { client.Close() }, nil
	}

	memory := store.NewMemoryStore(cfg.Sessions.TTL, logger.Logger)
	if err := memory.Start(store.DefaultSweepSchedule); err != nil {
		return nil, nil, err
	}
	logger.Logger.Info("Using in-memory session store")
	return memory, memory.Stop, nil
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
	// Use service-specific migration table name to avoid conflicts with other services
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "editor_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
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
