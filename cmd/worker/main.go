package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/app"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/config"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/queue"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// The API and the worker only see the same tasks through a shared store
	if cfg.Store.Driver == "memory" {
		logger.Fatalf("The worker needs store.driver redis or postgres, got %q", cfg.Store.Driver)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize services: %v", err)
	}
	defer services.Close()

	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	if pending, err := q.Depth(); err == nil {
		logger.Infof("%d tasks waiting in queue", pending)
	}
	if dead, err := q.DLQDepth(); err != nil {
		logger.WithError(err).Warn("Failed to inspect dead letter queue")
	} else if dead > 0 {
		logger.Warnf("%d tasks are parked in the dead letter queue", dead)
	}

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.WithError(err).Error("Metrics server failed")
			}
		}()
		defer metricsServer.Shutdown(context.Background())
	}

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully...")
		cancel()
	}()

	// Task handler. Fetch and export failures are recorded on the task and
	// come back as a failed record, not an error.
	taskHandler := func(ctx context.Context, msg models.TaskMessage) error {
		t, err := services.Registry.Process(ctx, msg.TaskID)
		if err != nil {
			return err
		}
		logger.WithTaskID(t.ID).Infof("Task finished with status %s", t.Status)
		return nil
	}

	// Each consumer handles one delivery at a time
	for i := 0; i < cfg.Transcripts.WorkerCount; i++ {
		if err := q.ConsumeTasks(ctx, 1, taskHandler); err != nil {
			logger.Fatalf("Failed to consume tasks: %v", err)
		}
	}

	logger.Infof("Worker started with %d consumers, waiting for tasks...", cfg.Transcripts.WorkerCount)

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("Worker stopped")
}
