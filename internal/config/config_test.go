package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.True(t, cfg.Server.RateLimit.Enabled)
		assert.Equal(t, 10.0, cfg.Server.RateLimit.RPS)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
		assert.False(t, cfg.RabbitMQ.Enabled)
		assert.Equal(t, "json", cfg.Logger.Encoding)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
		assert.Equal(t, "USD", cfg.Currency.Base)
		assert.Equal(t, "0 3 * * *", cfg.Batch.CacheRefreshSchedule)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		dir := t.TempDir()
		content := `
server:
  port: 9090
  auth:
    enabled: false
redis:
  enabled: true
  addr: redis:6379
  ttl: 1h
currency:
  base: EUR
  rates:
    USD: "1.09"
    IDR: "17650.25"
batch:
  cacheRefreshSchedule: "*/30 * * * *"
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o600))

		cfg, err := LoadConfig(dir)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.False(t, cfg.Server.Auth.Enabled)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "redis:6379", cfg.Redis.Addr)
		assert.Equal(t, time.Hour, cfg.Redis.TTL)
		assert.Equal(t, "EUR", cfg.Currency.Base)
		assert.Equal(t, "1.09", cfg.Currency.Rates["usd"])
		assert.Equal(t, "*/30 * * * *", cfg.Batch.CacheRefreshSchedule)

		// Untouched sections keep their defaults.
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, "json", cfg.Logger.Encoding)
	})
}
