package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	LaTeX    LaTeXConfig    `mapstructure:"latex"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port                  int           `mapstructure:"port"`
	CookieDomain          string        `mapstructure:"cookie_domain"`
	AllowedOrigins        []string      `mapstructure:"allowed_origins"`
	LoginRateLimitPerHour int           `mapstructure:"login_rate_limit_per_hour"`
	LoginLockThreshold    int           `mapstructure:"login_lock_threshold"`
	LoginLockTTL          time.Duration `mapstructure:"login_lock_ttl"`
	MaxUploadMB           int64         `mapstructure:"max_upload_mb"`
	MaxResumes            int           `mapstructure:"max_resumes"`
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

// RedisConfig contains Redis connection options.
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the host:port address used by both go-redis and asynq.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
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

// AuthConfig contains JWT signing key locations and token lifetimes.
type AuthConfig struct {
	PrivateKeyPath  string        `mapstructure:"private_key_path"`
	PublicKeyPath   string        `mapstructure:"public_key_path"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// WorkerConfig contains asynq consumer settings and render concurrency limits.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	RenderSlots int `mapstructure:"render_slots"`
}

// LaTeXConfig contains the external tool chain used to build documents.
// TemplatePath may be empty, in which case the embedded default preamble is used.
type LaTeXConfig struct {
	TemplatePath   string        `mapstructure:"template_path"`
	CompilerBin    string        `mapstructure:"compiler_bin"`
	PdfinfoBin     string        `mapstructure:"pdfinfo_bin"`
	GhostscriptBin string        `mapstructure:"ghostscript_bin"`
	CompileTimeout time.Duration `mapstructure:"compile_timeout"`
	ThumbnailZoom  float64       `mapstructure:"thumbnail_zoom"`
}

// ClamdConfig contains the virus scanner endpoint for uploads.
type ClamdConfig struct {
	Address string `mapstructure:"address"`
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
	v.SetDefault("api.login_rate_limit_per_hour", 10)
	v.SetDefault("api.login_lock_threshold", 5)
	v.SetDefault("api.login_lock_ttl", "15m")
	v.SetDefault("api.max_upload_mb", 10)
	v.SetDefault("api.max_resumes", 50)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "resumeforge")
	v.SetDefault("database.user", "resumeforge")
	v.SetDefault("database.password", "resumeforge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resumes")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "720h")
	v.SetDefault("worker.concurrency", 10)
	v.SetDefault("worker.render_slots", 2)
	v.SetDefault("latex.compiler_bin", "pdflatex")
	v.SetDefault("latex.pdfinfo_bin", "pdfinfo")
	v.SetDefault("latex.ghostscript_bin", "gs")
	v.SetDefault("latex.compile_timeout", "90s")
	v.SetDefault("latex.thumbnail_zoom", 2.0)
	v.SetDefault("clamd.address", "tcp://localhost:3310")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                      "API_PORT",
		"api.cookie_domain":             "API_COOKIE_DOMAIN",
		"api.allowed_origins":           "API_ALLOWED_ORIGINS",
		"api.login_rate_limit_per_hour": "API_LOGIN_RATE_LIMIT_PER_HOUR",
		"api.login_lock_threshold":      "API_LOGIN_LOCK_THRESHOLD",
		"api.login_lock_ttl":            "API_LOGIN_LOCK_TTL",
		"api.max_upload_mb":             "API_MAX_UPLOAD_MB",
		"api.max_resumes":               "API_MAX_RESUMES",
		"database.host":                 "DATABASE_HOST",
		"database.port":                 "DATABASE_PORT",
		"database.name":                 "POSTGRES_DB",
		"database.user":                 "POSTGRES_USER",
		"database.password":             "POSTGRES_PASSWORD",
		"database.sslmode":              "DATABASE_SSLMODE",
		"redis.host":                    "REDIS_HOST",
		"redis.port":                    "REDIS_PORT",
		"minio.endpoint":                "MINIO_ENDPOINT",
		"minio.public_endpoint":         "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":           "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":       "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                 "MINIO_USE_SSL",
		"minio.bucket":                  "MINIO_BUCKET",
		"minio.region":                  "MINIO_REGION",
		"minio.bucket_lookup":           "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket":      "MINIO_AUTO_CREATE_BUCKET",
		"auth.private_key_path":         "AUTH_PRIVATE_KEY_PATH",
		"auth.public_key_path":          "AUTH_PUBLIC_KEY_PATH",
		"auth.access_token_ttl":         "AUTH_ACCESS_TOKEN_TTL",
		"auth.refresh_token_ttl":        "AUTH_REFRESH_TOKEN_TTL",
		"worker.concurrency":            "WORKER_CONCURRENCY",
		"worker.render_slots":           "WORKER_RENDER_SLOTS",
		"latex.template_path":           "LATEX_TEMPLATE_PATH",
		"latex.compiler_bin":            "LATEX_COMPILER_BIN",
		"latex.pdfinfo_bin":             "LATEX_PDFINFO_BIN",
		"latex.ghostscript_bin":         "LATEX_GHOSTSCRIPT_BIN",
		"latex.compile_timeout":         "LATEX_COMPILE_TIMEOUT",
		"latex.thumbnail_zoom":          "LATEX_THUMBNAIL_ZOOM",
		"clamd.address":                 "CLAMD_ADDRESS",
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
	if cfg.API.MaxUploadMB <= 0 {
		return errors.New("api max upload size must be positive")
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
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.PublicEndpoint == "" {
		return errors.New("minio public endpoint is required")
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
	if cfg.Auth.PrivateKeyPath == "" {
		return errors.New("auth private key path is required")
	}
	if cfg.Auth.PublicKeyPath == "" {
		return errors.New("auth public key path is required")
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		return errors.New("auth access token ttl must be positive")
	}
	if cfg.Auth.RefreshTokenTTL <= 0 {
		return errors.New("auth refresh token ttl must be positive")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	if cfg.Worker.RenderSlots <= 0 {
		return errors.New("worker render slots must be positive")
	}
	if cfg.LaTeX.CompilerBin == "" {
		return errors.New("latex compiler binary is required")
	}
	if cfg.LaTeX.PdfinfoBin == "" {
		return errors.New("latex pdfinfo binary is required")
	}
	if cfg.LaTeX.GhostscriptBin == "" {
		return errors.New("latex ghostscript binary is required")
	}
	if cfg.LaTeX.CompileTimeout <= 0 {
		return errors.New("latex compile timeout must be positive")
	}
	if cfg.LaTeX.ThumbnailZoom <= 0 {
		return errors.New("latex thumbnail zoom must be positive")
	}
	if cfg.Clamd.Address == "" {
		return errors.New("clamd address is required")
	}
	return nil
}
