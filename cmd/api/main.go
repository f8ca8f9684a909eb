package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/icondo/parcel-service/internal/api/http"
	"github.com/icondo/parcel-service/internal/api/http/handlers"
	"github.com/icondo/parcel-service/internal/auth"
	"github.com/icondo/parcel-service/internal/config"
	"github.com/icondo/parcel-service/internal/events"
	"github.com/icondo/parcel-service/internal/notify"
	"github.com/icondo/parcel-service/internal/observability"
	"github.com/icondo/parcel-service/internal/persistence"
	"github.com/icondo/parcel-service/internal/pickup"
	"github.com/icondo/parcel-service/internal/repository"
	"github.com/icondo/parcel-service/internal/repository/memory"
	"github.com/icondo/parcel-service/internal/seed"
	"github.com/icondo/parcel-service/internal/service"
	"github.com/icondo/parcel-service/internal/storage"
	"github.com/icondo/parcel-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		userRepo   repository.UserRepository
		parcelRepo repository.ParcelRepository
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		userRepo = repository.NewUserRepository(pool)
		parcelRepo = repository.NewParcelRepository(pool)
	} else {
		store := memory.NewStore()
		userRepo = store.Users()
		parcelRepo = store.Parcels()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init photo storage", zap.Error(err))
	}

	metrics := observability.NewMetrics("icondo_parcel")
	dispatcher := events.NewInMemoryDispatcher()

	notificationWorker := worker.NewNotificationWorker(cfg.Notification.Workers, cfg.Notification.QueueSize, cfg.Notification.Timeout(), logger)
	notificationWorker.Start()

	notifiers, closeNotifiers := buildNotifiers(cfg.Notification, redis, logger)
	defer closeNotifiers()
	service.NewNotificationService(dispatcher, logger, notificationWorker, metrics, notifiers...).RegisterHandlers()

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost)
	photoService := service.NewPhotoService(blobs, cfg.Storage.MaxUploadBytes, logger)
	parcelService := service.NewParcelService(service.ParcelDependencies{
		Parcels:    parcelRepo,
		Users:      userRepo,
		Photos:     photoService,
		Codec:      pickup.NewCodec(cfg.Pickup.QRSizePixels),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	if !pg.Enabled() {
		err := seed.Demo(ctx, seed.Services{
			Auth:     authService,
			Users:    userService,
			Parcels:  parcelService,
			UserRepo: userRepo,
		}, logger)
		if err != nil {
			logger.Fatal("failed to seed in-memory store", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             cfg.App.BodyLimitBytes,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	checks := []handlers.DependencyCheck{
		{Name: "postgres"},
		{Name: "redis"},
		{Name: "storage", Ping: blobs.Ping},
	}
	if pg.Enabled() {
		checks[0].Ping = pg.Ping
	}
	if redis.Enabled() {
		checks[1].Ping = redis.Ping
	}

	uploadsDir := ""
	if cfg.Storage.Driver == config.StorageDriverLocal {
		uploadsDir = cfg.Storage.LocalDir
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks...),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Parcels:        handlers.NewParcelsHandler(parcelService, cfg.Storage.MaxUploadBytes),
		Uploads:        handlers.NewUploadsHandler(photoService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
		Metrics:        metrics,
		UploadsDir:     uploadsDir,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.Bool("in_memory_store", !pg.Enabled()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := notificationWorker.Stop(stopCtx); err != nil {
		logger.Warn("notification worker did not drain", zap.Error(err))
	}
}

// buildNotifiers enables every sink that has configuration. A sink that cannot
// start is skipped with a warning; the log sink is always on.
func buildNotifiers(cfg config.NotificationConfig, redis *persistence.Redis, logger *zap.Logger) ([]notify.Notifier, func()) {
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	var closers []func()

	if cfg.RedisChannel != "" {
		if redis.Enabled() {
			notifiers = append(notifiers, notify.NewRedisNotifier(redis.Client, cfg.RedisChannel))
		} else {
			logger.Warn("NOTIFY_REDIS_CHANNEL set but REDIS_ADDR is empty; redis notifications disabled")
		}
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.WebhookURL, cfg.Timeout()))
	}
	if cfg.MQTTBroker != "" {
		client, err := notify.DialMQTT(cfg)
		if err != nil {
			logger.Warn("mqtt notifications disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, notify.NewMQTTNotifier(client, cfg.MQTTTopicPrefix))
			closers = append(closers, func() { client.Disconnect(250) })
		}
	}

	names := make([]string, 0, len(notifiers))
	for _, n := range notifiers {
		names = append(names, n.Name())
	}
	logger.Info("notification sinks", zap.Strings("sinks", names))

	return notifiers, func() {
		for _, c := range closers {
			c()
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
