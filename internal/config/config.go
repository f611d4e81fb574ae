package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/clonescope/internal/configs/env"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// Storage
	StoreDriver string
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisDB                 int
	RedisStreamKey          string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration
	StreamMaxRetries        int

	// GitHub
	GitHubToken      string
	GitHubPathPrefix string
	GitHubExtension  string
	GitHubBranch     string
	GitHubBaseURL    string

	// Fingerprint engine
	EngineBaseURL    string
	EngineAPIKey     string
	EngineKGramSize  int
	EngineWindowSize int
	EngineMinOverlap float64

	// JWT
	JWTSecret string
	JWTIssuer string

	// Rate Limiting
	RateLimitRPS float64

	// Concurrency
	MaxConcurrentCompute int

	// Computation
	ComparisonTimeout time.Duration
	GroupKeySalted    bool

	// Logging
	LogLevel  string
	LogFormat string

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Storage
	cfg.StoreDriver = env.GetEnv("STORE_DRIVER", StoreMongo)
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "clonescope")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = env.GetEnvInt("REDIS_DB", 0)
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "clonescope:groups")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "clonescope:workers")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "clonescope:groups:dlq")
	cfg.StreamRetentionDuration = env.GetEnvDuration("STREAM_RETENTION_DURATION", 24, time.Hour)
	cfg.StreamMaxRetries = env.GetEnvInt("STREAM_MAX_RETRIES", 3)

	// GitHub
	cfg.GitHubToken = env.GetEnv("GH_TOKEN", "")
	cfg.GitHubPathPrefix = env.GetEnv("GITHUB_PATH_PREFIX", "src/main/java/")
	cfg.GitHubExtension = env.GetEnv("GITHUB_EXTENSION", ".java")
	cfg.GitHubBranch = env.GetEnv("GITHUB_BRANCH", "")
	cfg.GitHubBaseURL = env.GetEnv("GITHUB_BASE_URL", "")

	// Fingerprint engine
	cfg.EngineBaseURL = env.GetEnv("ENGINE_BASE_URL", "")
	cfg.EngineAPIKey = env.GetEnv("ENGINE_API_KEY", "")
	cfg.EngineKGramSize = env.GetEnvInt("ENGINE_KGRAM_SIZE", 0)
	cfg.EngineWindowSize = env.GetEnvInt("ENGINE_WINDOW_SIZE", 0)
	cfg.EngineMinOverlap = env.GetEnvFloat("ENGINE_MIN_OVERLAP", -1)

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "clonescope")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Concurrency
	cfg.MaxConcurrentCompute = env.GetEnvInt("MAX_CONCURRENT_COMPUTE", 5)

	// Computation
	cfg.ComparisonTimeout = env.GetEnvDuration("COMPARISON_TIMEOUT_MINUTES", 10, time.Minute)
	cfg.GroupKeySalted = env.GetEnvBool("GROUP_KEY_SALTED", false)

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")
	cfg.LogFormat = env.GetEnv("LOG_FORMAT", "json")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
		if c.MongoDBName == "" {
			return fmt.Errorf("MONGO_DB_NAME is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreMongo, StoreMemory)
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.EngineBaseURL != "" && c.EngineAPIKey == "" {
		return fmt.Errorf("ENGINE_API_KEY is required with ENGINE_BASE_URL")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MaxConcurrentCompute <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_COMPUTE must be greater than 0")
	}
	if c.ComparisonTimeout <= 0 {
		return fmt.Errorf("COMPARISON_TIMEOUT_MINUTES must be greater than 0")
	}
	if c.StreamRetentionDuration <= 0 {
		return fmt.Errorf("STREAM_RETENTION_DURATION must be greater than 0")
	}
	return nil
}
