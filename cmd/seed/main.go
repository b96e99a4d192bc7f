package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"vfs/internal/client"
	"vfs/internal/config"
	"vfs/internal/domain/services"
	"vfs/internal/repository/postgres"
	"vfs/internal/seed"
	"vfs/internal/service"
	"vfs/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	fixturePath := flag.String("file", "seed.yaml", "YAML fixture describing the directory tree")
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	clearData := flag.Bool("clear-data", false, "Delete all directories and files, then exit")
	viaAPI := flag.Bool("api", false, "Seed through the REST API at API_URL instead of DATABASE_URL")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: --drop-tables and --clear-data are not allowed in production")
	}
	if *viaAPI && (*dropTables || *clearData) {
		log.Fatalf("--drop-tables and --clear-data need direct database access")
	}

	logger := config.NewLogger(os.Stdout, cfg.Debug)
	slog.SetDefault(logger)
	ctx := context.Background()

	var api services.HierarchyAPI
	if *viaAPI {
		api = client.New(client.Config{
			BaseURL:   cfg.APIURL,
			Timeout:   cfg.RequestTimeout,
			AuthToken: cfg.APIToken,
			Logger:    logger,
		})
		logger.Info("seeding through API", "url", cfg.APIURL)
	} else {
		hierarchy, closeDB := openDatabase(ctx, cfg, *dropTables, *clearData, logger)
		defer closeDB()
		if *clearData {
			return
		}
		api = hierarchy
	}

	fixture, err := seed.LoadFile(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to read fixture: %v", err)
	}

	s := session.New(session.Config{API: api, Logger: logger})
	res, err := seed.Apply(ctx, s, fixture, logger)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	logger.Info("seeding complete",
		"directories_created", res.DirectoriesCreated,
		"directories_existed", res.DirectoriesExisted,
		"files_created", res.FilesCreated,
		"files_existed", res.FilesExisted,
	)
}

// openDatabase prepares the schema and returns the in-process service stack.
func openDatabase(ctx context.Context, cfg *config.Config, drop, clear bool, logger *slog.Logger) (*service.Hierarchy, func()) {
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required (or pass -api)")
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	logger.Info("seeding database", "environment", cfg.Environment, "prefix", cfg.TablePrefix)

	if drop {
		if err := postgres.DropAll(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		logger.Info("tables dropped")
	}

	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	if clear {
		if err := postgres.ClearData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		logger.Info("data cleared")
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	dirRepo := postgres.NewDirectoryRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	txManager := postgres.NewTransactionManager(repoConfig)

	h := service.NewHierarchy(
		service.NewDirectoryService(dirRepo, txManager, logger),
		service.NewFileService(fileRepo, dirRepo, txManager, logger),
	)
	return h, pool.Close
}
