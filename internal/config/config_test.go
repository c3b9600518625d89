package config

import (
	"testing"
	"time"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "127.0.0.1", cfg.DBHost)
	assert.Equal(t, "movie_db", cfg.DBName)
	assert.Equal(t, "http://www.omdbapi.com/", cfg.OMDbAPIURL)
	assert.Equal(t, 250*time.Millisecond, cfg.OMDbSleep)
	assert.Equal(t, 6*time.Second, cfg.OMDbTimeout)
	assert.Equal(t, 1000, cfg.OMDbDailyLimit)
	assert.Equal(t, 250000, cfg.ChunkSize)
	assert.Empty(t, cfg.OMDbAPIKey)
}

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("DB_NAME", "ratings")
	t.Setenv("OMDB_API_KEY", " abc123 ")
	t.Setenv("OMDB_SLEEP", "0.5")
	t.Setenv("RATINGS_CHUNK_SIZE", "1000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "ratings", cfg.DBName)
	assert.Equal(t, "abc123", cfg.OMDbAPIKey)
	assert.Equal(t, 500*time.Millisecond, cfg.OMDbSleep)
	assert.Equal(t, 1000, cfg.ChunkSize)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]struct {
		key   string
		value string
	}{
		"driver":     {"DB_DRIVER", "mysql"},
		"chunk size": {"RATINGS_CHUNK_SIZE", "0"},
		"limit":      {"OMDB_DAILY_LIMIT", "-1"},
		"sleep":      {"OMDB_SLEEP", "-0.1"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
