package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school-directory/internal/config"
	"school-directory/internal/handler"
	"school-directory/internal/imagestore"
	"school-directory/internal/observability"
	"school-directory/internal/queue/rabbitmq"
	"school-directory/internal/service"
	minioclient "school-directory/internal/storage/minio"
	"school-directory/internal/store"
	"school-directory/pkg/database/postgres"
	redisclient "school-directory/pkg/database/redis"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := observability.InitLogger(cfg.DevMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Info("starting school directory API")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sugar.Info("connecting to PostgreSQL")
	pgPool, err := postgres.NewClient(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("failed to connect to PostgreSQL", "error", err)
	}
	defer pgPool.Close()

	if err := postgres.RunMigrations(ctx, pgPool); err != nil {
		sugar.Fatalw("failed to run migrations", "error", err)
	}

	sugar.Info("connecting to Minio")
	objectStore, err := minioclient.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		sugar.Fatalw("failed to connect to Minio", "error", err)
	}

	// The list cache and the task queue are optimizations; the API serves
	// without them.
	var cache handler.ListCache
	sugar.Info("connecting to Redis")
	redisClient, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		sugar.Warnw("redis unavailable, list caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cache = redisClient
	}

	var tasks service.TaskPublisher
	sugar.Info("connecting to RabbitMQ")
	rabbitClient, err := rabbitmq.NewClient(cfg.RabbitMQURL)
	if err != nil {
		sugar.Warnw("rabbitmq unavailable, thumbnail tasks disabled", "error", err)
	} else {
		defer rabbitClient.Close()
		tasks = rabbitClient
	}

	schools := store.NewSchoolStore(pgPool)
	images := imagestore.NewStore(objectStore, sugar)
	submit := service.NewSubmitService(schools, images, tasks, sugar)
	h := handler.NewHandler(submit, schools, images, cache, cfg.ListCacheTTL, cfg.RequestTimeout, sugar)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.NewRouter(h, sugar),
	}

	go func() {
		sugar.Infow("API listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	sugar.Info("shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("shutdown error", "error", err)
	}
}
