package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("API_PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("LOGIN_RATE_WINDOW", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "sehaty", cfg.MongoDatabase)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.LoginRateWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("API_PORT", "9000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOGIN_RATE_WINDOW", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.APIPort)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.LoginRateWindow)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
