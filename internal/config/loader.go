package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

const envPrefix = "ALARMS"

// Store drivers accepted by StoreDriver.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config captures environment driven configuration values for the alarm service.
type Config struct {
	HTTPPort    int
	StoreDriver string
	SQLiteDSN   string
	Redis       RedisConfig

	Timezone string
	Location *time.Location

	DebugLogCapacity        int
	DispatchInterval        time.Duration
	ReconcileOnStart        bool
	ReconcileCron           string
	TestNotificationTimeout time.Duration

	FirebaseCredentials string
	FCMTopic            string

	LogLevel  string
	LogFormat string
}

// RedisConfig holds connection options for the redis store driver.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Load parses configuration values from the process environment and, when
// ALARMS_CONFIG_FILE is set, from that file. Environment values win.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if file := strings.TrimSpace(v.GetString("config_file")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	cfg := Config{
		StoreDriver: strings.ToLower(strings.TrimSpace(v.GetString("store_driver"))),
		SQLiteDSN:   strings.TrimSpace(v.GetString("sqlite_dsn")),
		Redis: RedisConfig{
			Addr:      strings.TrimSpace(v.GetString("redis_addr")),
			Password:  v.GetString("redis_password"),
			KeyPrefix: v.GetString("redis_key_prefix"),
		},
		Timezone:            strings.TrimSpace(v.GetString("timezone")),
		ReconcileCron:       strings.TrimSpace(v.GetString("reconcile_cron")),
		FirebaseCredentials: strings.TrimSpace(v.GetString("firebase_credentials")),
		FCMTopic:            strings.TrimSpace(v.GetString("fcm_topic")),
		LogLevel:            strings.TrimSpace(v.GetString("log_level")),
		LogFormat:           strings.TrimSpace(v.GetString("log_format")),
	}

	if port, ok := positiveInt(v, "http_port"); ok {
		cfg.HTTPPort = port
	} else {
		invalid = append(invalid, envName("http_port"))
	}

	switch cfg.StoreDriver {
	case DriverSQLite:
		if cfg.SQLiteDSN == "" {
			missing = append(missing, envName("sqlite_dsn"))
		}
	case DriverRedis:
		if cfg.Redis.Addr == "" {
			missing = append(missing, envName("redis_addr"))
		}
	case DriverMemory:
	default:
		invalid = append(invalid, envName("store_driver"))
	}

	if db, err := strconv.Atoi(strings.TrimSpace(v.GetString("redis_db"))); err != nil || db < 0 {
		invalid = append(invalid, envName("redis_db"))
	} else {
		cfg.Redis.DB = db
	}

	if loc, err := time.LoadLocation(cfg.Timezone); err != nil || cfg.Timezone == "" {
		invalid = append(invalid, envName("timezone"))
	} else {
		cfg.Location = loc
	}

	if capacity, ok := positiveInt(v, "debug_log_capacity"); ok {
		cfg.DebugLogCapacity = capacity
	} else {
		invalid = append(invalid, envName("debug_log_capacity"))
	}

	if interval, ok := positiveDuration(v, "dispatch_interval"); ok {
		cfg.DispatchInterval = interval
	} else {
		invalid = append(invalid, envName("dispatch_interval"))
	}

	if timeout, ok := positiveDuration(v, "test_timeout"); ok {
		cfg.TestNotificationTimeout = timeout
	} else {
		invalid = append(invalid, envName("test_timeout"))
	}

	if onStart, err := strconv.ParseBool(strings.TrimSpace(v.GetString("reconcile_on_start"))); err != nil {
		invalid = append(invalid, envName("reconcile_on_start"))
	} else {
		cfg.ReconcileOnStart = onStart
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "8080")
	v.SetDefault("store_driver", DriverSQLite)
	v.SetDefault("sqlite_dsn", "file:care-alarms.db?_pragma=busy_timeout(5000)")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", "0")
	v.SetDefault("redis_key_prefix", "care-alarms:")
	v.SetDefault("timezone", "America/Sao_Paulo")
	v.SetDefault("debug_log_capacity", "100")
	v.SetDefault("dispatch_interval", "30s")
	v.SetDefault("reconcile_on_start", "true")
	v.SetDefault("reconcile_cron", "")
	v.SetDefault("test_timeout", "5s")
	v.SetDefault("firebase_credentials", "")
	v.SetDefault("fcm_topic", "care-alarms")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("config_file", "")
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}

func positiveInt(v *viper.Viper, key string) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

func positiveDuration(v *viper.Viper, key string) (time.Duration, bool) {
	value, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
