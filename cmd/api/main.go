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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/app"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/config"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/middleware"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/monitoring"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/queue"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/scheduler"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/task"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

// dispatchBacklog bounds how many async tasks may wait for an inline worker
const dispatchBacklog = 256

// TaskService creates, processes and looks up transcript tasks
type TaskService interface {
	Create(ctx context.Context, ref models.VideoReference, opts models.TaskOptions) (*models.Task, error)
	Process(ctx context.Context, id string) (*models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, limit int) ([]*models.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// TranscriptFetcher reads captions without creating a task
type TranscriptFetcher interface {
	Fetch(ctx context.Context, ref models.VideoReference, languages []string, preserveFormatting bool) (*models.Transcript, error)
	ListTracks(ctx context.Context, videoID string) ([]models.CaptionTrack, error)
}

// FileService manages files in the output directory
type FileService interface {
	List() ([]models.FileInfo, error)
	Get(filename string) (string, bool)
	Delete(path string) (bool, error)
	Cleanup(daysOld int) (int, error)
	Info(filename string) (*models.FileDetails, error)
	Stats() (*models.FileStats, error)
}

// HealthReporter reports host and dependency health
type HealthReporter interface {
	System(ctx context.Context) (*monitoring.SystemInfo, error)
	OutputDirectory() monitoring.DirectoryStatus
	Components(ctx context.Context) map[string]string
	Ready(ctx context.Context) (bool, map[string]bool)
}

// API holds the dependencies of the HTTP handlers
type API struct {
	config     *config.Config
	logger     *logging.Logger
	tasks      TaskService
	fetcher    TranscriptFetcher
	files      FileService
	health     HealthReporter
	dispatcher task.Dispatcher
	limiter    middleware.Limiter        // nil disables rate limiting
	auth       *middleware.Authenticator // nil disables authentication
}

func main() {
	// A missing .env file is fine; the environment may already be set
	_ = godotenv.Load()

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

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize services: %v", err)
	}
	defer services.Close()

	dispatcher, stopDispatcher, err := newDispatcher(ctx, services)
	if err != nil {
		logger.Fatalf("Failed to initialize dispatcher: %v", err)
	}

	// Tasks accepted before a restart are still pending in a shared store
	if cfg.Store.Driver != "memory" {
		if _, err := scheduler.ResumePending(ctx, services.Registry, dispatcher, logger); err != nil {
			logger.WithError(err).Warn("Failed to resume pending tasks")
		}
	}

	var janitor *scheduler.Janitor
	if cfg.Cleanup.Enabled {
		var opts []scheduler.JanitorOption
		if services.Cache != nil {
			opts = append(opts, scheduler.WithLocker(services.Cache))
		}
		janitor = scheduler.NewJanitor(services.Files, cfg.Cleanup.Interval, cfg.Cleanup.DaysOld, logger, opts...)
		if err := janitor.Start(ctx); err != nil {
			logger.Fatalf("Failed to start cleanup janitor: %v", err)
		}
	}

	api := &API{
		config:     cfg,
		logger:     logger,
		tasks:      services.Registry,
		fetcher:    services.YouTube,
		files:      services.Files,
		health:     services.Monitor,
		dispatcher: dispatcher,
		limiter:    newLimiter(ctx, cfg, services),
	}
	if cfg.Auth.Enabled {
		api.auth = middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.APIKeys)
		logger.Info("API authentication enabled")
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	router := setupRouter(api)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting %s %s on %s", cfg.App.Name, cfg.App.Version, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if janitor != nil {
		janitor.Stop()
	}
	if err := stopDispatcher(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Dispatcher did not stop cleanly")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Metrics server did not stop cleanly")
		}
	}
	cancel()

	logger.Info("Server stopped")
}

// newDispatcher returns where async tasks are sent and how to stop it.
// Inline dispatch runs tasks on an in-process pool; queue dispatch publishes
// them to RabbitMQ for cmd/worker.
func newDispatcher(ctx context.Context, services *app.Services) (task.Dispatcher, func(context.Context) error, error) {
	cfg := services.Config

	if cfg.Transcripts.Dispatch == "queue" {
		q, err := queue.New(cfg.Queue, services.Logger)
		if err != nil {
			return nil, nil, err
		}
		services.Monitor.AddCheck("queue", func(context.Context) error {
			if err := q.Ping(); err != nil {
				return err
			}
			_, err := q.Depth()
			return err
		})
		services.Logger.Info("Dispatching async tasks to RabbitMQ")
		return q, func(context.Context) error { return q.Close() }, nil
	}

	pool := task.NewPool(services.Registry, cfg.Transcripts.WorkerCount, dispatchBacklog, services.Logger)
	pool.Start(ctx)
	services.Logger.Infof("Dispatching async tasks to %d in-process workers", cfg.Transcripts.WorkerCount)
	return pool, pool.Shutdown, nil
}

func newLimiter(ctx context.Context, cfg *config.Config, services *app.Services) middleware.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	if cfg.RateLimit.Backend == "redis" {
		return middleware.NewCounterLimiter(services.Cache, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go limiter.RunCleanup(ctx, time.Minute)
	return limiter
}
