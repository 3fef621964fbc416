// Package config centralizes all application configuration into typed structs.
//
// Go Learning Note — Configuration Management:
// Defaults live in NewDefaultConfig as plain struct literals, so tests and
// tools can build a Config without touching the filesystem. Load layers an
// optional YAML file and DRIVERFEED_* environment variables on top using
// viper, then validates the result with go-playground/validator struct tags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the top-level configuration container.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Feed    FeedConfig    `mapstructure:"feed" validate:"required"`
	Geo     GeoConfig     `mapstructure:"geo" validate:"required"`
	Store   StoreConfig   `mapstructure:"store" validate:"required"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging" validate:"required"`
}

// ServerConfig holds HTTP server settings.
//
// Go Learning Note — time.Duration:
// Go uses time.Duration (an int64 of nanoseconds) instead of raw integers for
// timeouts and intervals. viper decodes strings such as "30s" or "5m" into a
// Duration field, so config files stay readable.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// FeedConfig controls how the active-driver set is computed and delivered.
type FeedConfig struct {
	FreshnessWindow time.Duration `mapstructure:"freshness_window" validate:"gt=0"` // Max post age to count as active
	SnapshotTimeout time.Duration `mapstructure:"snapshot_timeout" validate:"gt=0"` // Upper bound on one snapshot fetch
	PushInterval    time.Duration `mapstructure:"push_interval" validate:"gt=0"`    // WebSocket snapshot cadence
	PollInterval    time.Duration `mapstructure:"poll_interval" validate:"gt=0"`    // Recommended client poll cadence
}

// GeoConfig holds the parameters for derived distance/ETA values.
type GeoConfig struct {
	AverageSpeedKmH float64 `mapstructure:"average_speed_kmh" validate:"gt=0"`
}

// StoreConfig selects the post store backend.
type StoreConfig struct {
	Driver      string `mapstructure:"driver" validate:"oneof=memory postgres"`
	PostgresDSN string `mapstructure:"postgres_dsn" validate:"required_if=Driver postgres"`
	MaxConns    int32  `mapstructure:"max_conns" validate:"gte=0"`
	SeedFile    string `mapstructure:"seed_file"`
}

// CacheConfig enables the shared Redis snapshot cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" validate:"gte=0"`
	TTL           time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Enabled reports whether a Redis address was configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// NewDefaultConfig returns a Config populated with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Feed: FeedConfig{
			FreshnessWindow: 30 * time.Minute,
			SnapshotTimeout: 5 * time.Second,
			PushInterval:    30 * time.Second,
			PollInterval:    30 * time.Second,
		},
		Geo: GeoConfig{
			AverageSpeedKmH: 40,
		},
		Store: StoreConfig{
			Driver:   "memory",
			MaxConns: 10,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from path (if non-empty) and the environment.
// Environment variables use the DRIVERFEED_ prefix with "." replaced by "_",
// e.g. DRIVERFEED_FEED_FRESHNESS_WINDOW=15m.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, NewDefaultConfig())

	v.SetEnvPrefix("DRIVERFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags on cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setDefaults registers every field so AutomaticEnv can override keys that
// never appear in a config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("feed.freshness_window", d.Feed.FreshnessWindow)
	v.SetDefault("feed.snapshot_timeout", d.Feed.SnapshotTimeout)
	v.SetDefault("feed.push_interval", d.Feed.PushInterval)
	v.SetDefault("feed.poll_interval", d.Feed.PollInterval)

	v.SetDefault("geo.average_speed_kmh", d.Geo.AverageSpeedKmH)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.postgres_dsn", d.Store.PostgresDSN)
	v.SetDefault("store.max_conns", d.Store.MaxConns)
	v.SetDefault("store.seed_file", d.Store.SeedFile)

	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
