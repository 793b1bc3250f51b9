package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Storage  StorageConfig
	AI       AIConfig
	Pipeline PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
	// AutoMigrate applies the sql-migrate migrations at startup.
	// Production deployments should run migrations out of band instead.
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// StorageConfig holds blob storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// AIConfig holds the external AI service configuration
type AIConfig struct {
	BaseURL          string `envconfig:"AI_BASE_URL" default:"http://localhost:8000"`
	TimeoutMs        int    `envconfig:"AI_TIMEOUT_MS" default:"300000"`
	ConnectTimeoutMs int    `envconfig:"AI_CONNECT_TIMEOUT_MS" default:"60000"`
}

// ReadTimeout returns the per-request read timeout.
func (c AIConfig) ReadTimeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ConnectTimeout returns the dial timeout.
func (c AIConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

// PipelineConfig holds meeting processing pipeline configuration
type PipelineConfig struct {
	MaxAudioBytes        int64  `envconfig:"MAX_AUDIO_BYTES" default:"524288000"` // 500 MiB
	TempUploadDir        string `envconfig:"TEMP_UPLOAD_DIR" default:"/tmp/meeting-audio"`
	MaxRetryAttempts     int    `envconfig:"MAX_RETRY_ATTEMPTS" default:"3"`
	InitialBackoffMs     int    `envconfig:"INITIAL_BACKOFF_MS" default:"1000"`
	ContextSiblingsLimit int    `envconfig:"CONTEXT_SIBLINGS_LIMIT" default:"3"`
	ProgressTopicPrefix  string `envconfig:"PROGRESS_TOPIC_PREFIX" default:"/topic/meetings/"`
	WorkerPoolSize       int    `envconfig:"PIPELINE_WORKERS" default:"4"`
	StaleAfterMin        int    `envconfig:"PIPELINE_STALE_AFTER_MIN" default:"30"`
	ReaperIntervalMin    int    `envconfig:"PIPELINE_REAPER_INTERVAL_MIN" default:"5"`
}

// InitialBackoff returns the first retry delay.
func (c PipelineConfig) InitialBackoff() time.Duration {
	return time.Duration(c.InitialBackoffMs) * time.Millisecond
}

// StaleAfter returns how long a PROCESSING meeting may go without
// updates before the reaper considers it abandoned.
func (c PipelineConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterMin) * time.Minute
}

// ReaperInterval returns how often the reaper scans.
func (c PipelineConfig) ReaperInterval() time.Duration {
	return time.Duration(c.ReaperIntervalMin) * time.Minute
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "meeting_minutes"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "your-access-secret-change-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "your-refresh-secret-change-in-production"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", "15m"),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", "168h"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "meeting-minutes"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
	}

	// AI and pipeline sections use struct tags for their larger surface
	if err := envconfig.Process("", &config.AI); err != nil {
		return nil, fmt.Errorf("failed to load AI config: %w", err)
	}
	if err := envconfig.Process("", &config.Pipeline); err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.AI.BaseURL == "" {
		return fmt.Errorf("AI_BASE_URL is required")
	}
	if c.Pipeline.MaxRetryAttempts < 1 {
		return fmt.Errorf("MAX_RETRY_ATTEMPTS must be at least 1")
	}
	if c.Pipeline.WorkerPoolSize < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
