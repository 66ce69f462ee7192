package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App         AppConfig
	Server      ServerConfig
	Logging     LoggingConfig
	Transcripts TranscriptsConfig
	PDF         PDFConfig
	Cleanup     CleanupConfig
	RateLimit   RateLimitConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Queue       QueueConfig
	Storage     StorageConfig
	Auth        AuthConfig
	Tracing     TracingConfig
	Metrics     MetricsConfig
}

// AppConfig holds application identity settings
type AppConfig struct {
	Name    string
	Version string
	Debug   bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	APIPrefix       string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// TranscriptsConfig holds transcript fetching and export settings
type TranscriptsConfig struct {
	OutputDir           string
	DefaultLanguages    []string
	MaxFileSize         int64
	MaxTranscriptLength int
	FetchTimeout        time.Duration
	ProcessTimeout      time.Duration
	// Dispatch selects how async tasks run: "inline" (in-process pool) or "queue" (RabbitMQ)
	Dispatch    string
	WorkerCount int
}

// PDFConfig holds PDF layout settings
type PDFConfig struct {
	PageSize string
	FontSize float64
	Margins  float64
	FontPath string
}

// CleanupConfig holds settings for the periodic file janitor
type CleanupConfig struct {
	Enabled  bool
	Interval time.Duration
	DaysOld  int
}

// RateLimitConfig holds request quota settings
type RateLimitConfig struct {
	Enabled  bool
	Backend  string // memory, redis
	Requests int
	Window   time.Duration
}

// StoreConfig selects the task store backend
type StoreConfig struct {
	Driver string // memory, redis, postgres
	TaskTTL time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// StorageConfig holds object storage configuration for mirroring exported files
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
}

// AuthConfig holds API authentication settings
type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	APIKeys   []string
}

// TracingConfig holds distributed tracing settings
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// MetricsConfig holds the metrics server settings
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// Address returns the host:port the HTTP server listens on
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindLegacyEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks settings that would otherwise fail at runtime
func (c *Config) Validate() error {
	if c.Transcripts.OutputDir == "" {
		return fmt.Errorf("transcripts.outputDir is required")
	}
	if len(c.Transcripts.DefaultLanguages) == 0 {
		return fmt.Errorf("transcripts.defaultLanguages must not be empty")
	}
	switch c.Transcripts.Dispatch {
	case "inline", "queue":
	default:
		return fmt.Errorf("transcripts.dispatch must be inline or queue, got %q", c.Transcripts.Dispatch)
	}
	switch c.Store.Driver {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("store.driver must be memory, redis or postgres, got %q", c.Store.Driver)
	}
	// Queue workers run in another process and cannot see an in-memory store.
	if c.Transcripts.Dispatch == "queue" && c.Store.Driver == "memory" {
		return fmt.Errorf("transcripts.dispatch=queue requires a shared store (redis or postgres)")
	}
	if c.Transcripts.WorkerCount < 1 {
		return fmt.Errorf("transcripts.workerCount must be at least 1")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
			return fmt.Errorf("rateLimit.requests and rateLimit.window must be positive")
		}
		if c.RateLimit.Backend != "memory" && c.RateLimit.Backend != "redis" {
			return fmt.Errorf("rateLimit.backend must be memory or redis, got %q", c.RateLimit.Backend)
		}
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth.enabled requires auth.jwtSecret or auth.apiKeys")
	}
	return nil
}

// bindLegacyEnv keeps the short environment variable names working
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("app.debug", "DEBUG")
	_ = v.BindEnv("transcripts.outputDir", "OUTPUT_DIR")
	_ = v.BindEnv("transcripts.maxFileSize", "MAX_FILE_SIZE")
	_ = v.BindEnv("transcripts.maxTranscriptLength", "MAX_TRANSCRIPT_LENGTH")
	_ = v.BindEnv("auth.jwtSecret", "SECRET_KEY")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "YouTube Transcript API")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.apiPrefix", "/api/v1")
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "120s")
	v.SetDefault("server.shutdownTimeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Transcript defaults
	v.SetDefault("transcripts.outputDir", "./outputs")
	v.SetDefault("transcripts.defaultLanguages", []string{"en", "en-US", "en-GB"})
	v.SetDefault("transcripts.maxFileSize", 50*1024*1024) // 50MB
	v.SetDefault("transcripts.maxTranscriptLength", 1000000)
	v.SetDefault("transcripts.fetchTimeout", "30s")
	v.SetDefault("transcripts.processTimeout", "2m")
	v.SetDefault("transcripts.dispatch", "inline")
	v.SetDefault("transcripts.workerCount", 4)

	// PDF defaults
	v.SetDefault("pdf.pageSize", "A4")
	v.SetDefault("pdf.fontSize", 11)
	v.SetDefault("pdf.margins", 72) // points (1 inch)
	v.SetDefault("pdf.fontPath", "")

	// Cleanup defaults
	v.SetDefault("cleanup.enabled", false)
	v.SetDefault("cleanup.interval", "24h")
	v.SetDefault("cleanup.daysOld", 7)

	// Rate limit defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.backend", "memory")
	v.SetDefault("rateLimit.requests", 50)
	v.SetDefault("rateLimit.window", "1h")

	// Store defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.taskTTL", "0s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "transcripts")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.minConns", 2)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Queue defaults
	v.SetDefault("queue.host", "localhost")
	v.SetDefault("queue.port", 5672)
	v.SetDefault("queue.user", "guest")
	v.SetDefault("queue.password", "guest")
	v.SetDefault("queue.vhost", "/")

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.accessKeyID", "minioadmin")
	v.SetDefault("storage.secretAccessKey", "minioadmin")
	v.SetDefault("storage.bucketName", "transcripts")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useSSL", false)

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.apiKeys", []string{})

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "ytscribe")
	v.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
}
