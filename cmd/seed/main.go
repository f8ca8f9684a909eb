package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/icondo/parcel-service/internal/config"
	"github.com/icondo/parcel-service/internal/observability"
	"github.com/icondo/parcel-service/internal/persistence"
	"github.com/icondo/parcel-service/internal/repository"
	"github.com/icondo/parcel-service/internal/seed"
	"github.com/icondo/parcel-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Enabled() {
		logger.Fatal("seed requires POSTGRES_DSN; the in-memory store is seeded by the api on startup")
	}

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	parcelRepo := repository.NewParcelRepository(pool)

	err = seed.Demo(ctx, seed.Services{
		Auth:     service.NewAuthService(*cfg, userRepo),
		Users:    service.NewUserService(userRepo, cfg.Auth.BcryptCost),
		Parcels:  service.NewParcelService(service.ParcelDependencies{Parcels: parcelRepo, Users: userRepo, Logger: logger}),
		UserRepo: userRepo,
	}, logger)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}
