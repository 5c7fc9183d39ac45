// File: cmd/server/main.go
package main

import (
	"context"
	"flag"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"

	"startdrive_backend/internal/car"
	"startdrive_backend/internal/config"
	"startdrive_backend/internal/jobs"
	"startdrive_backend/internal/platform/database"
	platformElasticsearch "startdrive_backend/internal/platform/elasticsearch"
	"startdrive_backend/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	syncCarsCmd := flag.NewFlagSet("sync-cars", flag.ExitOnError)
	batchSize := syncCarsCmd.Int("batch-size", jobs.DefaultSyncBatchSize, "Batch size for syncing car listings")
	esRefresh := syncCarsCmd.String("es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")

	if len(os.Args) > 1 && os.Args[1] == "sync-cars" {
		syncCarsCmd.Parse(os.Args[2:])
		runCarSync(*batchSize, *esRefresh)
		return
	}

	startServer()
}

// runCarSync performs a one-shot bulk reindex of all car listings into
// Elasticsearch, then exits.
func runCarSync(batchSize int, esRefresh string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for sync: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for sync: %v", err)
	}
	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for sync", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	esClient, err := platformElasticsearch.NewClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize Elasticsearch client for sync", zap.Error(err))
	}
	if esClient == nil {
		appLogger.Fatal("FATAL: Elasticsearch is not configured, ensure ELASTICSEARCH_URL is set.")
	}

	if err := platformElasticsearch.CreateCarsIndexIfNotExists(esClient, appLogger); err != nil {
		appLogger.Fatal("FATAL: Failed to create/verify Elasticsearch index before sync", zap.Error(err))
	}

	carRepo := car.NewGORMRepository(db)
	syncJob := jobs.NewCarSyncJob(carRepo, esClient, appLogger, cfg)

	synced, failed, err := syncJob.RunOnce(context.Background(), batchSize, esRefresh)
	if err != nil {
		appLogger.Fatal("FATAL: Car synchronization failed",
			zap.Int("synced", synced),
			zap.Int("failed", failed),
			zap.Error(err))
	}
	appLogger.Info("Car synchronization completed successfully.", zap.Int("synced", synced))
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	// Schema first, then the search index that mirrors it.
	if err := database.AutoMigrate(server.DB); err != nil {
		log.Fatalf("FATAL: Failed to run database migration: %v", err)
	}

	if server.ESClient != nil {
		if err := platformElasticsearch.CreateCarsIndexIfNotExists(server.ESClient, server.AppLogger); err != nil {
			server.AppLogger.Error("Failed to create Elasticsearch cars index.", zap.Error(err))
		}
	} else {
		server.AppLogger.Info("Elasticsearch client not initialized, skipping index creation.")
	}

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
