package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"school-directory/internal/config"
	"school-directory/internal/observability"
	"school-directory/internal/queue/rabbitmq"
	minioclient "school-directory/internal/storage/minio"
	"school-directory/internal/worker"
)

const WorkerPoolSize = 5

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

	sugar.Info("starting thumbnail worker")

	sugar.Info("connecting to Minio")
	objectStore, err := minioclient.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		sugar.Fatalw("failed to connect to Minio", "error", err)
	}

	sugar.Info("connecting to RabbitMQ")
	rabbitClient, err := rabbitmq.NewClient(cfg.RabbitMQURL)
	if err != nil {
		sugar.Fatalw("failed to connect to RabbitMQ", "error", err)
	}
	defer rabbitClient.Close()

	processor := worker.NewProcessor(objectStore, sugar)

	msgs, err := rabbitClient.Consume()
	if err != nil {
		sugar.Fatalw("failed to start consuming", "error", err)
	}

	var wg sync.WaitGroup
	taskChan := make(chan rabbitmq.ThumbnailTask, WorkerPoolSize)

	for i := 0; i < WorkerPoolSize; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			sugar.Infow("worker started", "worker", workerID)

			for task := range taskChan {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				err := processor.RenderThumbnail(ctx, task.ObjectKey)
				cancel()

				if err != nil {
					sugar.Errorw("failed to render thumbnail", "worker", workerID, "key", task.ObjectKey, "error", err)
				}
			}

			sugar.Infow("worker stopped", "worker", workerID)
		}(i + 1)
	}

	go func() {
		for msg := range msgs {
			var task rabbitmq.ThumbnailTask
			if err := json.Unmarshal(msg.Body, &task); err != nil {
				sugar.Errorw("failed to unmarshal task", "error", err)
				msg.Nack(false, false) // discard invalid message
				continue
			}

			taskChan <- task
			msg.Ack(false)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	sugar.Info("shutting down gracefully")
	close(taskChan)
	wg.Wait()
}
