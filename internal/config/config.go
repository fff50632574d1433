package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Tracing    TracingConfig `mapstructure:"tracing"`
	Redis      RedisConfig
	Generation GenerationConfig `mapstructure:"generation"`
	Learning   LearningConfig   `mapstructure:"learning"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`

	// Runtime flags set from command line, not the config file.
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// GenerationConfig points at the external content generation service
// (an OpenAI-compatible chat completions endpoint).
type GenerationConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
}

// LearningConfig carries the weakness thresholds and score weights of the
// adaptive loop. The defaults mirror the values the platform has always
// used; they are configuration so deployments can tune them without a
// rebuild.
type LearningConfig struct {
	AccuracyWeakThreshold   float64 `mapstructure:"accuracy_weak_threshold"`   // percent
	AttemptsWeakThreshold   float64 `mapstructure:"attempts_weak_threshold"`   // average attempts
	CompletionWeakThreshold float64 `mapstructure:"completion_weak_threshold"` // percent
	SevereAccuracy          float64 `mapstructure:"severe_accuracy"`           // percent
	SevereCompletion        float64 `mapstructure:"severe_completion"`         // percent
	StrongAccuracy          float64 `mapstructure:"strong_accuracy"`           // percent

	QuizWeight       float64 `mapstructure:"quiz_weight"`
	CompletionWeight float64 `mapstructure:"completion_weight"`
	ActiveScore      float64 `mapstructure:"active_score"`
	RecentScore      float64 `mapstructure:"recent_score"`
	ActiveWindowDays int     `mapstructure:"active_window_days"`
	RecentWindowDays int     `mapstructure:"recent_window_days"`

	MaxPriorityAreas      int `mapstructure:"max_priority_areas"`
	ReportCacheTTLMinutes int `mapstructure:"report_cache_ttl_minutes"`

	IncreaseDifficultyAbove float64 `mapstructure:"increase_difficulty_above"` // overall score
	DecreaseDifficultyBelow float64 `mapstructure:"decrease_difficulty_below"` // overall score
	TypeIncreaseAbove       float64 `mapstructure:"type_increase_above"`       // per-type accuracy
	TypeDecreaseBelow       float64 `mapstructure:"type_decrease_below"`       // per-type accuracy
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	ServiceName       string  `mapstructure:"service_name"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SampleRatio       float64 `mapstructure:"sample_ratio"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func setLearningDefaults() {
	viper.SetDefault("learning.accuracy_weak_threshold", 70.0)
	viper.SetDefault("learning.attempts_weak_threshold", 2.0)
	viper.SetDefault("learning.completion_weak_threshold", 80.0)
	viper.SetDefault("learning.severe_accuracy", 50.0)
	viper.SetDefault("learning.severe_completion", 50.0)
	viper.SetDefault("learning.strong_accuracy", 80.0)
	viper.SetDefault("learning.quiz_weight", 40.0)
	viper.SetDefault("learning.completion_weight", 40.0)
	viper.SetDefault("learning.active_score", 20.0)
	viper.SetDefault("learning.recent_score", 10.0)
	viper.SetDefault("learning.active_window_days", 7)
	viper.SetDefault("learning.recent_window_days", 30)
	viper.SetDefault("learning.max_priority_areas", 5)
	viper.SetDefault("learning.report_cache_ttl_minutes", 10)
	viper.SetDefault("learning.increase_difficulty_above", 85.0)
	viper.SetDefault("learning.decrease_difficulty_below", 40.0)
	viper.SetDefault("learning.type_increase_above", 90.0)
	viper.SetDefault("learning.type_decrease_below", 60.0)
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("NIHONGO_EDU")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Content generation service
	viper.BindEnv("generation.base_url", "GENERATION_BASE_URL")
	viper.BindEnv("generation.api_key", "GENERATION_API_KEY")
	viper.BindEnv("generation.model", "GENERATION_MODEL")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	setLearningDefaults()
	viper.SetDefault("generation.timeout_seconds", 30)
	viper.SetDefault("tracing.service_name", "nihongo-edu")
	viper.SetDefault("tracing.sample_ratio", 1.0)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Generation.Timeout = time.Duration(cfg.Generation.TimeoutSeconds) * time.Second

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
