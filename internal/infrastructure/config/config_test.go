package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/todos?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 100, cfg.DefaultPageSize)
	assert.Equal(t, 1000, cfg.MaxPageSize)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_MemoryStorageNeedsNoDatabase(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("SEED_DATA", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.True(t, cfg.SeedData)
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:     "development",
			Port:            8080,
			MetricsPort:     9090,
			Storage:         StorageMemory,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			DefaultPageSize: 100,
			MaxPageSize:     1000,
			LogLevel:        "info",
			LogFormat:       "json",
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Storage = StoragePostgres
	assert.Error(t, cfg.Validate(), "postgres storage requires DATABASE_URL")

	cfg = base()
	cfg.Storage = "redis"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate(), "production requires credentials")
	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MaxIdleConns = 50
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MaxPageSize = 10
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())
}
