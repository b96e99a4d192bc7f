package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vfs/internal/auth"
	"vfs/internal/config"
	"vfs/internal/handler"
	"vfs/internal/metrics"
	"vfs/internal/middleware"
	"vfs/internal/repository/postgres"
	"vfs/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := config.NewLogger(os.Stdout, cfg.Debug)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	// Bearer auth is optional; without a JWKS URL the API is open
	var verifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		v, err := auth.NewJWTVerifier(ctx, cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer v.Close()
		verifier = v
	} else {
		logger.Warn("JWKS_URL not set, API authentication disabled")
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database ready", "directories", tables.Directories, "files", tables.Files)

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	dirRepo := postgres.NewDirectoryRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	txManager := postgres.NewTransactionManager(repoConfig)

	// Services
	dirService := service.NewDirectoryService(dirRepo, txManager, logger)
	fileService := service.NewFileService(fileRepo, dirRepo, txManager, logger)

	// Handlers
	dirHandler := handler.NewDirectoryHandler(dirService, logger)
	fileHandler := handler.NewFileHandler(fileService, logger)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.Register(mux, dirHandler, fileHandler, handler.Health(pool), middleware.Auth(verifier, logger))
	mux.Handle("GET /metrics", metrics.Handler())

	// Metrics wrap the mux directly so r.Pattern is visible to them.
	// Order: CORS → Recovery → RequestID → Metrics → Routes (auth per route)
	var h http.Handler = metrics.Middleware(mux)
	h = middleware.RequestID(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - outermost to answer OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
