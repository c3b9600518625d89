package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/spf13/viper"
)

// envNames maps each config key to the environment variables it is read from.
var envNames = map[string][]string{
	"db_driver":           {"DB_DRIVER"},
	"db_host":             {"DB_HOST", "MYSQL_HOST"},
	"db_port":             {"DB_PORT"},
	"db_user":             {"DB_USER", "MYSQL_USER"},
	"db_password":         {"DB_PASS", "MYSQL_PASS"},
	"db_name":             {"DB_NAME", "MYSQL_DB"},
	"db_sslmode":          {"DB_SSLMODE"},
	"data_dir":            {"DATA_DIR"},
	"omdb_api_key":        {"OMDB_API_KEY"},
	"omdb_api_url":        {"OMDB_API_URL"},
	"omdb_sleep":          {"OMDB_SLEEP"},
	"omdb_daily_limit":    {"OMDB_DAILY_LIMIT"},
	"omdb_timeout":        {"OMDB_TIMEOUT"},
	"chunk_size":          {"RATINGS_CHUNK_SIZE"},
	"discord_webhook_url": {"DISCORD_WEBHOOK_URL"},
	"log_level":           {"LOG_LEVEL"},
}

// SetDefaults registers defaults and environment bindings on the global viper instance.
func SetDefaults() {
	viper.SetDefault("db_driver", string(domain.DriverSQLite))
	viper.SetDefault("db_host", "127.0.0.1")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_user", "root")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "movie_db")
	viper.SetDefault("db_sslmode", "disable")
	viper.SetDefault("data_dir", ".")
	viper.SetDefault("omdb_api_url", "http://www.omdbapi.com/")
	viper.SetDefault("omdb_sleep", 0.25)
	viper.SetDefault("omdb_daily_limit", 1000)
	viper.SetDefault("omdb_timeout", 6)
	viper.SetDefault("chunk_size", 250000)
	viper.SetDefault("log_level", "info")

	for key, names := range envNames {
		args := append([]string{key}, names...)
		_ = viper.BindEnv(args...)
	}
}

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (optionally seeded from .env)
func Load() (*domain.Config, error) {
	SetDefaults()

	cfg := &domain.Config{
		DBDriver:          domain.Driver(strings.ToLower(viper.GetString("db_driver"))),
		DBHost:            viper.GetString("db_host"),
		DBPort:            viper.GetInt("db_port"),
		DBUser:            viper.GetString("db_user"),
		DBPassword:        viper.GetString("db_password"),
		DBName:            viper.GetString("db_name"),
		DBSSLMode:         viper.GetString("db_sslmode"),
		DataDir:           viper.GetString("data_dir"),
		OMDbAPIKey:        strings.TrimSpace(viper.GetString("omdb_api_key")),
		OMDbAPIURL:        viper.GetString("omdb_api_url"),
		OMDbSleep:         seconds(viper.GetFloat64("omdb_sleep")),
		OMDbDailyLimit:    viper.GetInt("omdb_daily_limit"),
		OMDbTimeout:       seconds(viper.GetFloat64("omdb_timeout")),
		ChunkSize:         viper.GetInt("chunk_size"),
		DiscordWebhookURL: viper.GetString("discord_webhook_url"),
		LogLevel:          viper.GetString("log_level"),
	}

	if cfg.DBDriver != domain.DriverSQLite && cfg.DBDriver != domain.DriverPostgres {
		return nil, fmt.Errorf("invalid db_driver: %s (must be 'sqlite' or 'postgres')", cfg.DBDriver)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("db_name is required (set via config.yaml or DB_NAME environment variable)")
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.OMDbDailyLimit <= 0 {
		return nil, fmt.Errorf("omdb_daily_limit must be positive, got %d", cfg.OMDbDailyLimit)
	}
	if cfg.OMDbTimeout <= 0 {
		return nil, fmt.Errorf("omdb_timeout must be positive")
	}
	if cfg.OMDbSleep < 0 {
		return nil, fmt.Errorf("omdb_sleep must not be negative")
	}

	return cfg, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
