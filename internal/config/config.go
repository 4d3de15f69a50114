// Package config loads the service configuration from the environment
// (optionally seeded from a .env file) through Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the fully resolved service configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Images   ImagesConfig
	Storage  StorageConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
}

// AppConfig holds the HTTP listener settings.
type AppConfig struct {
	Port string
	Env  string
}

// IsProduction reports whether the service runs with production defaults.
func (a AppConfig) IsProduction() bool {
	return strings.HasPrefix(strings.ToLower(a.Env), "prod")
}

type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

type AuthConfig struct {
	JWTSecret           string
	TokenTTL            time.Duration
	ConcealLoginFailure bool
	Hasher              string // "bcrypt" or "argon2id"
	BcryptCost          int
	HashWorkers         int
	AdminEmail          string
	AdminPassword       string
}

type ImagesConfig struct {
	PageSize int
	MaxBytes int64
	CacheTTL time.Duration
}

type StorageConfig struct {
	Driver        string // "s3" or "memory"
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	UsePathStyle  bool
}

// RabbitMQConfig is disabled when URL is empty.
type RabbitMQConfig struct {
	URL string
}

// RedisConfig is disabled when URL is empty.
type RedisConfig struct {
	URL string
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":3000")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:gallery.db?cache=shared")

	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("AUTH_CONCEAL_LOGIN_FAILURE", true)
	v.SetDefault("PASSWORD_HASHER", "bcrypt")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("HASH_WORKERS", runtime.NumCPU())

	v.SetDefault("IMAGE_PAGE_SIZE", 2)
	v.SetDefault("IMAGE_MAX_BYTES", 5*1024*1024)
	v.SetDefault("LIST_CACHE_TTL", "30s")

	v.SetDefault("STORAGE_DRIVER", "s3")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_BUCKET", "gallery")
	v.SetDefault("S3_USE_PATH_STYLE", true)
}

// LoadEnv reads an optional .env file into the process environment and
// resolves the configuration from it.
func LoadEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	return Load(v)
}

// Load resolves a Config from v, applying defaults first. Every missing or
// invalid setting is reported in the returned error.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Port: v.GetString("APP_PORT"),
			Env:  v.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: AuthConfig{
			JWTSecret:           v.GetString("JWT_SECRET_KEY"),
			TokenTTL:            v.GetDuration("ACCESS_TOKEN_TTL"),
			ConcealLoginFailure: v.GetBool("AUTH_CONCEAL_LOGIN_FAILURE"),
			Hasher:              strings.ToLower(v.GetString("PASSWORD_HASHER")),
			BcryptCost:          v.GetInt("BCRYPT_COST"),
			HashWorkers:         v.GetInt("HASH_WORKERS"),
			AdminEmail:          v.GetString("ADMIN_EMAIL"),
			AdminPassword:       v.GetString("ADMIN_PASSWORD"),
		},
		Images: ImagesConfig{
			PageSize: v.GetInt("IMAGE_PAGE_SIZE"),
			MaxBytes: v.GetInt64("IMAGE_MAX_BYTES"),
			CacheTTL: v.GetDuration("LIST_CACHE_TTL"),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Endpoint:      v.GetString("S3_ENDPOINT"),
			Region:        v.GetString("S3_REGION"),
			Bucket:        v.GetString("S3_BUCKET"),
			AccessKey:     v.GetString("S3_ACCESS_KEY"),
			SecretKey:     v.GetString("S3_SECRET_KEY"),
			PublicBaseURL: v.GetString("S3_PUBLIC_BASE_URL"),
			UsePathStyle:  v.GetBool("S3_USE_PATH_STYLE"),
		},
		RabbitMQ: RabbitMQConfig{URL: v.GetString("RABBITMQ_URL")},
		Redis:    RedisConfig{URL: v.GetString("REDIS_URL")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string

	if c.Auth.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET_KEY is required")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "ACCESS_TOKEN_TTL must be positive")
	}
	switch c.Auth.Hasher {
	case "bcrypt", "argon2id":
	default:
		problems = append(problems, fmt.Sprintf("PASSWORD_HASHER %q is not supported", c.Auth.Hasher))
	}
	if c.Auth.HashWorkers < 1 {
		problems = append(problems, "HASH_WORKERS must be at least 1")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("DATABASE_DRIVER %q is not supported", c.Database.Driver))
	}
	if c.Images.PageSize < 1 {
		problems = append(problems, "IMAGE_PAGE_SIZE must be at least 1")
	}
	if c.Images.MaxBytes < 1 {
		problems = append(problems, "IMAGE_MAX_BYTES must be positive")
	}
	switch c.Storage.Driver {
	case "memory":
	case "s3":
		if c.Storage.Bucket == "" {
			problems = append(problems, "S3_BUCKET is required for the s3 storage driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("STORAGE_DRIVER %q is not supported", c.Storage.Driver))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
