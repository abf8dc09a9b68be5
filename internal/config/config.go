package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings sourced from environment variables.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Render    RenderConfig    `mapstructure:"render"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Clamd     ClamdConfig     `mapstructure:"clamd"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// 存储驱动
const (
	StorageDriverMinIO = "minio"
	StorageDriverLocal = "local"
)

// StorageConfig selects the object store backend.
type StorageConfig struct {
	Driver        string        `mapstructure:"driver"`
	LocalRoot     string        `mapstructure:"local_root"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	PresignTTL    time.Duration `mapstructure:"presign_ttl"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// AuthConfig points at the RS256 key pair and token lifetimes.
type AuthConfig struct {
	PrivateKeyPath  string        `mapstructure:"private_key_path"`
	PublicKeyPath   string        `mapstructure:"public_key_path"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// 生成文件命名策略
const (
	FileNamingTimestamp = "timestamp"
	FileNamingOverwrite = "overwrite"
)

// RenderConfig controls document generation.
type RenderConfig struct {
	SanitizeHTML bool   `mapstructure:"sanitize_html"`
	FileNaming   string `mapstructure:"file_naming"`
	Previews     bool   `mapstructure:"previews"`
}

// UploadConfig limits registration and media uploads.
type UploadConfig struct {
	MaxFileBytes  int64 `mapstructure:"max_file_bytes"`
	MaxMediaFiles int   `mapstructure:"max_media_files"`
}

// ClamdConfig 为空地址时跳过病毒扫描。
type ClamdConfig struct {
	Address string `mapstructure:"address"`
}

// RateLimitConfig is a fixed window per client IP.
type RateLimitConfig struct {
	Window   time.Duration `mapstructure:"window"`
	Register int           `mapstructure:"register"`
	Login    int           `mapstructure:"login"`
	Generate int           `mapstructure:"generate"`
}

// WorkerConfig contains asynq server options.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxRetry    int `mapstructure:"max_retry"`
	// MetricsPort 为 0 时 worker 不暴露 /metrics。
	MetricsPort int `mapstructure:"metrics_port"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	cfg.Render.FileNaming = strings.ToLower(strings.TrimSpace(cfg.Render.FileNaming))

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "artfolio")
	v.SetDefault("database.user", "artfolio")
	v.SetDefault("database.password", "artfolio")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("storage.driver", StorageDriverMinIO)
	v.SetDefault("storage.local_root", "./data/objects")
	v.SetDefault("storage.public_base_url", "http://localhost:8080")
	v.SetDefault("storage.presign_ttl", 7*24*time.Hour)

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "portfolios")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)

	v.SetDefault("auth.private_key_path", "./keys/jwt_private.pem")
	v.SetDefault("auth.public_key_path", "./keys/jwt_public.pem")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)

	v.SetDefault("render.sanitize_html", false)
	v.SetDefault("render.file_naming", FileNamingTimestamp)
	v.SetDefault("render.previews", true)

	v.SetDefault("upload.max_file_bytes", 10<<20)
	v.SetDefault("upload.max_media_files", 10)

	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.register", 5)
	v.SetDefault("ratelimit.login", 10)
	v.SetDefault("ratelimit.generate", 20)

	v.SetDefault("worker.concurrency", 10)
	v.SetDefault("worker.max_retry", 3)
	v.SetDefault("worker.metrics_port", 9091)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                 "API_PORT",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.name":            "POSTGRES_DB",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"database.sslmode":         "DATABASE_SSLMODE",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"storage.driver":           "STORAGE_DRIVER",
		"storage.local_root":       "STORAGE_LOCAL_ROOT",
		"storage.public_base_url":  "STORAGE_PUBLIC_BASE_URL",
		"storage.presign_ttl":      "STORAGE_PRESIGN_TTL",
		"minio.endpoint":           "MINIO_ENDPOINT",
		"minio.public_endpoint":    "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":            "MINIO_USE_SSL",
		"minio.bucket":             "MINIO_BUCKET",
		"minio.region":             "MINIO_REGION",
		"minio.bucket_lookup":      "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
		"auth.private_key_path":    "JWT_PRIVATE_KEY_PATH",
		"auth.public_key_path":     "JWT_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":    "JWT_ACCESS_TOKEN_TTL",
		"auth.refresh_token_ttl":   "JWT_REFRESH_TOKEN_TTL",
		"render.sanitize_html":     "RENDER_SANITIZE_HTML",
		"render.file_naming":       "RENDER_FILE_NAMING",
		"render.previews":          "RENDER_PREVIEWS",
		"upload.max_file_bytes":    "UPLOAD_MAX_FILE_BYTES",
		"upload.max_media_files":   "UPLOAD_MAX_MEDIA_FILES",
		"clamd.address":            "CLAMD_ADDRESS",
		"ratelimit.window":         "RATE_LIMIT_WINDOW",
		"ratelimit.register":       "RATE_LIMIT_REGISTER",
		"ratelimit.login":          "RATE_LIMIT_LOGIN",
		"ratelimit.generate":       "RATE_LIMIT_GENERATE",
		"worker.concurrency":       "WORKER_CONCURRENCY",
		"worker.max_retry":         "WORKER_MAX_RETRY",
		"worker.metrics_port":      "WORKER_METRICS_PORT",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}

	switch cfg.Storage.Driver {
	case StorageDriverMinIO:
		if cfg.MinIO.Endpoint == "" {
			return errors.New("minio endpoint is required")
		}
		if cfg.MinIO.AccessKeyID == "" {
			return errors.New("minio access key id is required")
		}
		if cfg.MinIO.SecretAccessKey == "" {
			return errors.New("minio secret access key is required")
		}
		if cfg.MinIO.Bucket == "" {
			return errors.New("minio bucket is required")
		}
	case StorageDriverLocal:
		if strings.TrimSpace(cfg.Storage.LocalRoot) == "" {
			return errors.New("storage local root is required")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.PresignTTL <= 0 {
		return errors.New("storage presign ttl must be positive")
	}

	if cfg.Auth.AccessTokenTTL <= 0 || cfg.Auth.RefreshTokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}

	switch cfg.Render.FileNaming {
	case FileNamingTimestamp, FileNamingOverwrite:
	default:
		return fmt.Errorf("unknown render file naming %q", cfg.Render.FileNaming)
	}

	if cfg.Upload.MaxFileBytes <= 0 {
		return errors.New("upload max file bytes must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	return nil
}
