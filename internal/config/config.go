// internal/config/config.go
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Square   SquareConfig
	Forecast ForecastConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// SquareConfig holds everything the fetch client needs to talk to the
// commerce platform. AccessToken and LocationID have no defaults.
type SquareConfig struct {
	BaseURL            string
	AccessToken        string
	LocationID         string
	APIVersion         string
	Timeout            time.Duration
	RetryAttempts      int
	RetryWaitMin       time.Duration
	RetryWaitMax       time.Duration
	InventoryBatchSize int
	CatalogLimit       int
}

type ForecastConfig struct {
	BufferPct float64
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	CategoryTTLSeconds int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads the process configuration once. A .env file in the working
// directory is honoured when present.
func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		instance = FromViper(viper.GetViper())
	})

	return instance
}

// FromViper builds a Config from v after registering defaults and env binding.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	locationID := v.GetString("SQUARE_LOCATION_ID")
	if locationID == "" {
		locationID = v.GetString("LOCATION_ID")
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Square: SquareConfig{
			BaseURL:            strings.TrimRight(v.GetString("SQUARE_BASE_URL"), "/"),
			AccessToken:        strings.TrimSpace(v.GetString("SQUARE_ACCESS_TOKEN")),
			LocationID:         strings.TrimSpace(locationID),
			APIVersion:         v.GetString("SQUARE_API_VERSION"),
			Timeout:            time.Duration(v.GetInt("SQUARE_TIMEOUT_SECONDS")) * time.Second,
			RetryAttempts:      v.GetInt("SQUARE_RETRY_ATTEMPTS"),
			RetryWaitMin:       time.Duration(v.GetInt("SQUARE_RETRY_WAIT_MIN_MS")) * time.Millisecond,
			RetryWaitMax:       time.Duration(v.GetInt("SQUARE_RETRY_WAIT_MAX_MS")) * time.Millisecond,
			InventoryBatchSize: v.GetInt("SQUARE_INVENTORY_BATCH_SIZE"),
			CatalogLimit:       v.GetInt("SQUARE_CATALOG_LIMIT"),
		},
		Forecast: ForecastConfig{
			BufferPct: v.GetFloat64("FORECAST_BUFFER_PCT"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			CategoryTTLSeconds: v.GetInt("CACHE_CATEGORY_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 120)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 300)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("SQUARE_BASE_URL", "https://connect.squareup.com")
	v.SetDefault("SQUARE_API_VERSION", "2024-07-17")
	v.SetDefault("SQUARE_TIMEOUT_SECONDS", 30)
	v.SetDefault("SQUARE_RETRY_ATTEMPTS", 3)
	v.SetDefault("SQUARE_RETRY_WAIT_MIN_MS", 500)
	v.SetDefault("SQUARE_RETRY_WAIT_MAX_MS", 8000)
	v.SetDefault("SQUARE_INVENTORY_BATCH_SIZE", 100)
	v.SetDefault("SQUARE_CATALOG_LIMIT", 100)

	v.SetDefault("FORECAST_BUFFER_PCT", 0.15)

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "forecast")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_CATEGORY_TTL_SECONDS", 300)

	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PREFIX", "forecasts/")

	v.SetDefault("LOG_LEVEL", "info")
}
