package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"ALARMS_HTTP_PORT",
	"ALARMS_STORE_DRIVER",
	"ALARMS_SQLITE_DSN",
	"ALARMS_REDIS_ADDR",
	"ALARMS_REDIS_PASSWORD",
	"ALARMS_REDIS_DB",
	"ALARMS_REDIS_KEY_PREFIX",
	"ALARMS_TIMEZONE",
	"ALARMS_DEBUG_LOG_CAPACITY",
	"ALARMS_DISPATCH_INTERVAL",
	"ALARMS_RECONCILE_ON_START",
	"ALARMS_RECONCILE_CRON",
	"ALARMS_TEST_TIMEOUT",
	"ALARMS_FIREBASE_CREDENTIALS",
	"ALARMS_FCM_TOPIC",
	"ALARMS_LOG_LEVEL",
	"ALARMS_LOG_FORMAT",
	"ALARMS_CONFIG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.HTTPPort)
		assert.Equal(t, DriverSQLite, cfg.StoreDriver)
		assert.Equal(t, "file:care-alarms.db?_pragma=busy_timeout(5000)", cfg.SQLiteDSN)
		assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
		require.NotNil(t, cfg.Location)
		assert.Equal(t, "America/Sao_Paulo", cfg.Location.String())
		assert.Equal(t, 100, cfg.DebugLogCapacity)
		assert.Equal(t, 30*time.Second, cfg.DispatchInterval)
		assert.True(t, cfg.ReconcileOnStart)
		assert.Empty(t, cfg.ReconcileCron)
		assert.Equal(t, 5*time.Second, cfg.TestNotificationTimeout)
		assert.Equal(t, "care-alarms", cfg.FCMTopic)
		assert.Equal(t, "care-alarms:", cfg.Redis.KeyPrefix)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("parses overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ALARMS_HTTP_PORT", "9090")
		t.Setenv("ALARMS_STORE_DRIVER", "REDIS")
		t.Setenv("ALARMS_REDIS_ADDR", "localhost:6379")
		t.Setenv("ALARMS_REDIS_DB", "3")
		t.Setenv("ALARMS_TIMEZONE", "UTC")
		t.Setenv("ALARMS_DISPATCH_INTERVAL", "5s")
		t.Setenv("ALARMS_RECONCILE_ON_START", "false")
		t.Setenv("ALARMS_RECONCILE_CRON", "0 3 * * *")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.HTTPPort)
		assert.Equal(t, DriverRedis, cfg.StoreDriver)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
		assert.Equal(t, 3, cfg.Redis.DB)
		assert.Equal(t, time.UTC, cfg.Location)
		assert.Equal(t, 5*time.Second, cfg.DispatchInterval)
		assert.False(t, cfg.ReconcileOnStart)
		assert.Equal(t, "0 3 * * *", cfg.ReconcileCron)
	})

	t.Run("errors when redis address is missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ALARMS_STORE_DRIVER", "redis")

		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, "missing required configuration: ALARMS_REDIS_ADDR", err.Error())
	})

	t.Run("reports invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ALARMS_HTTP_PORT", "abc")
		t.Setenv("ALARMS_TIMEZONE", "Mars/Olympus")
		t.Setenv("ALARMS_DEBUG_LOG_CAPACITY", "0")
		t.Setenv("ALARMS_DISPATCH_INTERVAL", "-1s")

		_, err := Load()
		require.Error(t, err)
		assert.Equal(t,
			"invalid configuration values: ALARMS_HTTP_PORT, ALARMS_TIMEZONE, ALARMS_DEBUG_LOG_CAPACITY, ALARMS_DISPATCH_INTERVAL",
			err.Error())
	})

	t.Run("rejects unknown store driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ALARMS_STORE_DRIVER", "postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ALARMS_STORE_DRIVER")
	})

	t.Run("reads config file with environment precedence", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "alarms.yaml")
		content := "http_port: 7070\nstore_driver: memory\nfcm_topic: family\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		t.Setenv("ALARMS_CONFIG_FILE", path)
		t.Setenv("ALARMS_FCM_TOPIC", "override")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 7070, cfg.HTTPPort)
		assert.Equal(t, DriverMemory, cfg.StoreDriver)
		assert.Equal(t, "override", cfg.FCMTopic)
	})
}
