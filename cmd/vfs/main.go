package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"vfs/internal/client"
	"vfs/internal/config"
	"vfs/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	// The terminal belongs to the shell; logs go to a rotating file
	logFile, err := config.SetupLogFile(cfg.LogDir, "vfs", cfg.LogMaxFiles)
	if err != nil {
		log.Fatalf("Failed to set up log file: %v", err)
	}
	defer logFile.Close()
	logger := config.NewLogger(logFile, cfg.Debug)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(client.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.RequestTimeout,
		AuthToken: cfg.APIToken,
		Logger:    logger,
	})
	if err := api.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s is not reachable: %v\n", cfg.APIURL, err)
	}

	s := session.New(session.Config{
		API:            api,
		Logger:         logger,
		SerializeSaves: cfg.SerializeSaves,
	})

	logger.Info("shell started", "api_url", cfg.APIURL, "serialize_saves", cfg.SerializeSaves)
	sh := newShell(s, os.Stdin, os.Stdout)
	if err := sh.run(ctx); err != nil {
		log.Fatal(err)
	}
}
