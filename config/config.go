package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort   string `mapstructure:"APP_PORT"`
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// Gin framework configuration
	GinMode string `mapstructure:"GIN_MODE"`
	GinPath string `mapstructure:"GIN_PATH"`
	// Database
	DBDriver    string `mapstructure:"DB_DRIVER"` // mysql, postgres or sqlite
	DatabaseURI string `mapstructure:"DATABASE_URI"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	// Redis for list caching and token revocation; empty host disables it
	RedisHost       string `mapstructure:"REDIS_HOST"`
	RedisPort       int    `mapstructure:"REDIS_PORT"`
	RedisDB         int    `mapstructure:"REDIS_DB"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	CacheTTLSeconds int    `mapstructure:"CACHE_TTL_SECONDS"`
	// HTTP surface
	RateLimitPerMinute int      `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	AllowedOrigins     []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	MaxBodyBytes       int64    `mapstructure:"MAX_BODY_BYTES"`
	// Logging configuration
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogPath       string `mapstructure:"LOG_PATH"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `mapstructure:"LOG_COMPRESS"`
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.Mutex
)

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in environment variables")

// Load reads configuration once during boot.
// Precedence: environment (including .env) -> config/config.json -> defaults.
func Load() (AppConfig, error) {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg, nil
	}

	// .env never overrides variables that are already exported
	_ = godotenv.Load()

	c, err := read(filepath.Join("config", "config.json"))
	if err != nil {
		return AppConfig{}, err
	}
	cfg = c
	loaded = true
	return cfg, nil
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.Lock()
	ok := loaded
	mu.Unlock()
	if ok {
		return cfg
	}
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Set replaces the cached configuration. Used by tests and embedding programs.
func Set(c AppConfig) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
	loaded = true
}

func read(path string) (AppConfig, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	// comma separated list in env, array in json
	if raw := v.GetString("CORS_ALLOWED_ORIGINS"); raw != "" {
		v.Set("CORS_ALLOWED_ORIGINS", splitAndTrim(raw))
	}

	var out AppConfig
	if err := v.Unmarshal(&out); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if out.JWTSecret == "" {
		return AppConfig{}, ErrMissingJWTSecret
	}
	return out, nil
}

// applyDefaults sets sane defaults; every key must be registered here so env
// overrides are picked up by Unmarshal.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "5000")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("GIN_PATH", "logs/go_gin.log")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DATABASE_URI", "")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "tnp_portal")
	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("CACHE_TTL_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("MAX_BODY_BYTES", 10<<20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PATH", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 7)
	v.SetDefault("LOG_COMPRESS", false)
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
