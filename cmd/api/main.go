package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/drive-service/internal/api/http"
	"github.com/spec-kit/drive-service/internal/api/http/handlers"
	"github.com/spec-kit/drive-service/internal/auth"
	"github.com/spec-kit/drive-service/internal/config"
	"github.com/spec-kit/drive-service/internal/events"
	"github.com/spec-kit/drive-service/internal/observability"
	"github.com/spec-kit/drive-service/internal/persistence"
	"github.com/spec-kit/drive-service/internal/repository"
	"github.com/spec-kit/drive-service/internal/service"
	"github.com/spec-kit/drive-service/internal/storage"
	"github.com/spec-kit/drive-service/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init object store", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx, cfg.Storage.Bucket); err != nil {
		logger.Warn("bucket not reachable at startup", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	fileRepo := repository.NewFileRepository(pool)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(*cfg, userRepo, dispatcher, logger)
	fileService := service.NewFileService(service.FileDependencies{
		FileRepo:   fileRepo,
		Store:      store,
		Bucket:     cfg.Storage.Bucket,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	usageService := service.NewUsageService(redis.Client, logger)
	worker.StartUsageWorker(usageService, dispatcher)

	if err := userService.EnsureBootstrapAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Warn("bootstrap admin setup failed", zap.Error(err))
	}

	sessionMiddleware := auth.NewSessionMiddleware(authService.TokenManager())

	app := fiber.New(fiber.Config{
		StreamRequestBody: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App, pg, redis, store, cfg.Storage.Bucket),
		Auth:    handlers.NewAuthHandler(authService, cfg.App.IsProduction()),
		Files:   handlers.NewFilesHandler(fileService, usageService),
		Users:   handlers.NewUsersHandler(userService),
		Session: sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
