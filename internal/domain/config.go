package domain

import "time"

// Driver names the database/sql driver backing the relational store.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type Config struct {
	DBDriver   Driver `mapstructure:"db_driver"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_sslmode"`

	DataDir string `mapstructure:"data_dir"`

	OMDbAPIKey     string        `mapstructure:"omdb_api_key"`
	OMDbAPIURL     string        `mapstructure:"omdb_api_url"`
	OMDbSleep      time.Duration `mapstructure:"-"`
	OMDbDailyLimit int           `mapstructure:"omdb_daily_limit"`
	OMDbTimeout    time.Duration `mapstructure:"-"`

	ChunkSize int `mapstructure:"chunk_size"`

	DiscordWebhookURL string `mapstructure:"discord_webhook_url"`
	LogLevel          string `mapstructure:"log_level"`
}
