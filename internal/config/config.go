package config

import "time"

// Default configuration values.
const (
	defaultServiceName  = "engagement-metrics"
	defaultServicePort  = 8094
	defaultVersion      = "0.1.0"
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"

	defaultStoreBackend = "redis"
	defaultRedisAddress = "localhost:6379"
	defaultBadgerPath   = "./data/engagement"

	defaultMaxRequestsPerMinute = 120
	defaultWindowSeconds        = 60

	defaultHourlyWindowH  = 24
	defaultDailyWindowD   = 30
	defaultActiveUserTTLH = 1
	defaultEventTTLD      = 7
	defaultSeenUserTTLH   = 48
)

// Supported state store backends.
const (
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    int    `env:"ENGAGEMENT_PORT" yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"       yaml:"debug"`
}

// StoreConfig selects and configures the durable state store backend.
type StoreConfig struct {
	Backend string       `env:"STORE_BACKEND" yaml:"backend"`
	Redis   RedisConfig  `yaml:"redis"`
	Badger  BadgerConfig `yaml:"badger"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// BadgerConfig holds the embedded store configuration. InMemory keeps the
// store off disk entirely; Path is ignored in that mode.
type BadgerConfig struct {
	Path     string `env:"BADGER_PATH"      yaml:"path"`
	InMemory bool   `env:"BADGER_IN_MEMORY" yaml:"in_memory"`
}

// AuthConfig holds authentication configuration. Destructive endpoints are
// open when the secret is empty.
type AuthConfig struct {
	JWTSecret string `env:"ENGAGEMENT_JWT_SECRET" yaml:"jwt_secret"`
}

// RateLimitConfig holds write rate limiting configuration.
type RateLimitConfig struct {
	Enabled              bool `yaml:"enabled"`
	MaxRequestsPerMinute int  `yaml:"max_requests_per_minute"`
	WindowSeconds        int  `yaml:"window_seconds"`
}

// RetentionConfig holds the rolling-window and expiry settings of the
// engagement actors.
type RetentionConfig struct {
	HourlyWindow  time.Duration `yaml:"hourly_window"`
	DailyWindow   time.Duration `yaml:"daily_window"`
	ActiveUserTTL time.Duration `yaml:"active_user_ttl"`
	EventTTL      time.Duration `yaml:"event_ttl"`
	SeenUserTTL   time.Duration `yaml:"seen_user_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setStoreDefaults(&cfg.Store)
	setRateLimitDefaults(&cfg.RateLimit)
	setRetentionDefaults(&cfg.Retention)
	setLoggingDefaults(&cfg.Logging)
}

// setServiceDefaults applies default values to ServiceConfig.
func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
}

// setStoreDefaults applies default values to StoreConfig.
func setStoreDefaults(st *StoreConfig) {
	if st.Backend == "" {
		st.Backend = defaultStoreBackend
	}
	if st.Redis.Address == "" {
		st.Redis.Address = defaultRedisAddress
	}
	if st.Badger.Path == "" {
		st.Badger.Path = defaultBadgerPath
	}
}

// setRateLimitDefaults applies default values to RateLimitConfig.
func setRateLimitDefaults(rl *RateLimitConfig) {
	if rl.MaxRequestsPerMinute == 0 {
		rl.MaxRequestsPerMinute = defaultMaxRequestsPerMinute
	}
	if rl.WindowSeconds == 0 {
		rl.WindowSeconds = defaultWindowSeconds
	}
}

// setRetentionDefaults applies default values to RetentionConfig.
func setRetentionDefaults(rt *RetentionConfig) {
	if rt.HourlyWindow == 0 {
		rt.HourlyWindow = defaultHourlyWindowH * time.Hour
	}
	if rt.DailyWindow == 0 {
		rt.DailyWindow = defaultDailyWindowD * 24 * time.Hour
	}
	if rt.ActiveUserTTL == 0 {
		rt.ActiveUserTTL = defaultActiveUserTTLH * time.Hour
	}
	if rt.EventTTL == 0 {
		rt.EventTTL = defaultEventTTLD * 24 * time.Hour
	}
	if rt.SeenUserTTL == 0 {
		rt.SeenUserTTL = defaultSeenUserTTLH * time.Hour
	}
}

// setLoggingDefaults applies default values to LoggingConfig.
func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}
