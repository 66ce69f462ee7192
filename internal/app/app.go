package app

import (
	"context"
	"fmt"
	"io"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/cache"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/config"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/database"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/export"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/monitoring"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/storage"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/task"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/tracing"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/youtube"
)

// Services holds the components shared by the API server and the worker
type Services struct {
	Config   *config.Config
	Logger   *logging.Logger
	Store    task.Store
	Registry *task.Registry
	YouTube  *youtube.Client
	Exporter *export.Exporter
	Files    *storage.FileStore
	Monitor  *monitoring.Monitor

	// Optional backends, nil when not configured
	Cache  *cache.Cache
	DB     *database.DB
	Mirror *storage.Mirror

	tracer io.Closer
}

// New connects every configured backend and builds the task registry
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Services, error) {
	s := &Services{Config: cfg, Logger: logger}

	tracer, err := tracing.Init(cfg.Tracing.Enabled, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.tracer = tracer

	if err := s.connect(ctx); err != nil {
		s.Close()
		return nil, err
	}

	files, err := storage.NewFileStore(cfg.Transcripts.OutputDir, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}
	s.Files = files

	exporter, err := export.New(export.Config{
		OutputDir:      cfg.Transcripts.OutputDir,
		MaxFileSize:    cfg.Transcripts.MaxFileSize,
		DownloadPrefix: cfg.Server.APIPrefix,
		PDF: export.PDFOptions{
			PageSize: cfg.PDF.PageSize,
			FontSize: cfg.PDF.FontSize,
			Margins:  cfg.PDF.Margins,
			FontPath: cfg.PDF.FontPath,
			Creator:  cfg.App.Name,
		},
	}, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}
	s.Exporter = exporter

	s.YouTube = youtube.NewClient(youtube.Config{
		DefaultLanguages:    cfg.Transcripts.DefaultLanguages,
		MaxTranscriptLength: cfg.Transcripts.MaxTranscriptLength,
		Timeout:             cfg.Transcripts.FetchTimeout,
	}, logger)

	opts := []task.Option{
		task.WithProcessTimeout(cfg.Transcripts.ProcessTimeout),
		task.WithDefaultLanguages(cfg.Transcripts.DefaultLanguages),
	}
	if s.Mirror != nil {
		opts = append(opts, task.WithArchiver(s.Mirror))
	}
	s.Registry = task.NewRegistry(s.Store, s.YouTube, s.Exporter, s.Files, logger, opts...)

	s.Monitor = monitoring.NewMonitor(cfg.Transcripts.OutputDir, logger)
	if s.Cache != nil {
		s.Monitor.AddCheck("redis", s.Cache.Ping)
	}
	if s.DB != nil {
		s.Monitor.AddCheck("database", s.DB.Health)
	}
	if s.Mirror != nil {
		s.Monitor.AddCheck("object_storage", s.Mirror.Ping)
	}

	return s, nil
}

func (s *Services) connect(ctx context.Context) error {
	cfg := s.Config

	needRedis := cfg.Store.Driver == "redis" ||
		(cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis")
	if needRedis {
		c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.Cache = c
		s.Logger.Infof("Connected to Redis at %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	}

	switch cfg.Store.Driver {
	case "redis":
		s.Store = s.Cache.NewTaskStore(cfg.Store.TaskTTL)
	case "postgres":
		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		s.DB = db
		store := database.NewTaskStore(db, s.Logger)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		s.Store = store
		s.Logger.Infof("Connected to PostgreSQL at %s:%d", cfg.Database.Host, cfg.Database.Port)
	default:
		s.Store = task.NewMemoryStore()
	}

	if cfg.Storage.Enabled {
		mirror, err := storage.NewMirror(ctx, cfg.Storage, s.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		s.Mirror = mirror
		s.Logger.Infof("Mirroring exports to bucket %s", cfg.Storage.BucketName)
	}
	return nil
}

// Close releases every backend connection
func (s *Services) Close() {
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			s.Logger.WithError(err).Warn("Failed to close redis connection")
		}
	}
	if s.DB != nil {
		s.DB.Close()
	}
	if s.tracer != nil {
		if err := s.tracer.Close(); err != nil {
			s.Logger.WithError(err).Warn("Failed to flush tracer")
		}
	}
}
