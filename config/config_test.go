package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-imagelite/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file:imagelite.db?cache=shared", cfg.DBDSN)
	assert.False(t, cfg.DBDebug)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10<<20, cfg.MaxUploadBytes)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IMAGELITE_HTTP_ADDR", ":9090")
	t.Setenv("IMAGELITE_DB_DRIVER", "postgres")
	t.Setenv("IMAGELITE_DB_DSN", "postgres://u:p@localhost:5432/imagelite?sslmode=disable")
	t.Setenv("IMAGELITE_DB_DEBUG", "true")
	t.Setenv("IMAGELITE_BCRYPT_COST", "10")
	t.Setenv("IMAGELITE_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("IMAGELITE_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.True(t, cfg.DBDebug)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"driver", "IMAGELITE_DB_DRIVER", "mysql", "DB_DRIVER"},
		{"cost too low", "IMAGELITE_BCRYPT_COST", "2", "BCRYPT_COST"},
		{"cost too high", "IMAGELITE_BCRYPT_COST", "40", "BCRYPT_COST"},
		{"upload limit", "IMAGELITE_MAX_UPLOAD_BYTES", "0", "MAX_UPLOAD_BYTES"},
		{"log format", "IMAGELITE_LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"shutdown timeout", "IMAGELITE_SHUTDOWN_TIMEOUT", "0s", "SHUTDOWN_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("IMAGELITE_BCRYPT_COST", "twelve")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cfg.DBDSN = "  "
	assert.ErrorContains(t, cfg.Validate(), "DB_DSN")
}
