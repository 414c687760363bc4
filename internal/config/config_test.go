package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BULK_MAX_CONCURRENCY", "")
	t.Setenv("REALTIME_SNAPSHOT_LIMIT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Bulk.MaxConcurrency)
	assert.Equal(t, 500, cfg.Bulk.MaxItems)
	assert.Equal(t, 50, cfg.Realtime.SnapshotLimit)
	assert.Equal(t, "notify", cfg.Realtime.ChannelPrefix)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BULK_MAX_CONCURRENCY", "3")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Bulk.MaxConcurrency)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	assert.Error(t, err)
}

func TestDurations(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
	assert.Equal(t, 5*time.Second, AppConfig{RequestTimeoutSeconds: 5}.RequestTimeout())
	assert.Equal(t, 15*time.Minute, MinIOConfig{}.URLExpiry())
	assert.Equal(t, 10*time.Second, NotificationConfig{}.HandlerTimeout())
	assert.Equal(t, 3*time.Second, NotificationConfig{HandlerTimeoutSeconds: 3}.HandlerTimeout())
}

func TestLoadNotificationHandlerTimeout(t *testing.T) {
	t.Setenv("NOTIFY_HANDLER_TIMEOUT_SECONDS", "25")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25*time.Second, cfg.Notification.HandlerTimeout())
}
