// File: cmd/server/providers.go
package main

import (
	"log"
	"time"

	"startdrive_backend/internal/auth"
	"startdrive_backend/internal/config"
	"startdrive_backend/internal/filestorage"
	"startdrive_backend/internal/platform/database"
	"startdrive_backend/internal/platform/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	appLogger, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := appLogger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}
	return appLogger, cleanup, nil
}

func provideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		database.CloseGORMDB(db)
	}
	return db, cleanup, nil
}

func provideFileStorage(cfg *config.Config, logger *zap.Logger) (*filestorage.FileStorageService, error) {
	return filestorage.NewFileStorageService(cfg.ImageStoragePath, cfg.ImagePublicBaseURL, logger)
}

func provideBlocklist() *auth.InMemoryBlocklistService {
	return auth.NewInMemoryBlocklistService(auth.InMemoryBlocklistConfig{
		DefaultExpiration: 24 * time.Hour,
		CleanupInterval:   time.Hour,
	})
}
