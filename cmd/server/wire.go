// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"startdrive_backend/internal/app"
	"startdrive_backend/internal/auth"
	"startdrive_backend/internal/car"
	"startdrive_backend/internal/chat"
	"startdrive_backend/internal/config"
	"startdrive_backend/internal/favorite"
	"startdrive_backend/internal/firebase"
	"startdrive_backend/internal/jobs"
	"startdrive_backend/internal/notification"
	"startdrive_backend/internal/platform/elasticsearch"
	"startdrive_backend/internal/shared"
	"startdrive_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		provideLogger,
		provideDatabase,
		elasticsearch.NewClient,
		provideFileStorage,

		// Firebase (optional; nil when not configured)
		firebase.NewFirebaseService,

		// Auth
		auth.NewJWTService,
		provideBlocklist,
		wire.Bind(new(auth.TokenBlocklistService), new(*auth.InMemoryBlocklistService)),
		auth.NewHandler,

		// Users
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(shared.Service), new(*user.ServiceImplementation)),
		user.NewHandler,

		// Notifications
		notification.NewGORMRepository,
		notification.NewService,
		notification.NewHandler,

		// Cars
		car.NewGORMRepository,
		car.NewService,
		car.NewHandler,

		// Favorites
		favorite.NewGORMRepository,
		favorite.NewService,
		favorite.NewHandler,

		// Chats
		chat.NewGORMRepository,
		chat.NewService,
		chat.NewHandler,

		// Jobs
		jobs.NewCarSyncJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
