// Package config loads process configuration from MEDPLANT_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	rlmodels "medplant/internal/ratelimit/models"
)

const envPrefix = "MEDPLANT"

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects Postgres. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxPoolConns int32  `mapstructure:"max_pool_conns"`
}

// RedisConfig enables the shared rate window store and the audit queue.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type AuthConfig struct {
	JWTSigningKey string   `mapstructure:"jwt_signing_key"`
	Issuer        string   `mapstructure:"issuer"`
	AdminRoles    []string `mapstructure:"admin_roles"`
	BcryptCost    int      `mapstructure:"bcrypt_cost"`
	// AdminToken guards /admin endpoints. Empty disables them.
	AdminToken string        `mapstructure:"admin_token"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type RateLimitConfig struct {
	Rules rlmodels.Rules `mapstructure:"rules"`
	// SweepSchedule is a cron spec with seconds for evicting idle windows.
	SweepSchedule string `mapstructure:"sweep_schedule"`
	// Redis failures before windows fall back to process memory.
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

type AuditConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	AsyncBuffer       int           `mapstructure:"async_buffer"`
	WorkerConcurrency int           `mapstructure:"worker_concurrency"`
	BreakerThreshold  int           `mapstructure:"breaker_threshold"`
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	rules := rlmodels.DefaultRules()

	v.SetDefault("env", "development")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_pool_conns", 10)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("auth.jwt_signing_key", "")
	v.SetDefault("auth.issuer", "medplant")
	v.SetDefault("auth.admin_roles", []string{"admin"})
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.admin_token", "")
	v.SetDefault("auth.token_ttl", 8*time.Hour)
	v.SetDefault("ratelimit.rules.create.limit", rules.Create.Limit)
	v.SetDefault("ratelimit.rules.create.window", rules.Create.Window)
	v.SetDefault("ratelimit.rules.edit.limit", rules.Edit.Limit)
	v.SetDefault("ratelimit.rules.edit.window", rules.Edit.Window)
	v.SetDefault("ratelimit.rules.delete.limit", rules.Delete.Limit)
	v.SetDefault("ratelimit.rules.delete.window", rules.Delete.Window)
	v.SetDefault("ratelimit.sweep_schedule", "0 * * * * *")
	v.SetDefault("ratelimit.breaker_threshold", 3)
	v.SetDefault("ratelimit.breaker_cooldown", 10*time.Second)
	v.SetDefault("audit.timeout", 2*time.Second)
	v.SetDefault("audit.async_buffer", 256)
	v.SetDefault("audit.worker_concurrency", 4)
	v.SetDefault("audit.breaker_threshold", 5)
	v.SetDefault("audit.breaker_cooldown", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration. path may be empty to use defaults and env only.
// Environment variables override file values, e.g. MEDPLANT_SERVER_ADDR.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSigningKey == "" {
		if !c.IsDev() {
			return errors.New("auth.jwt_signing_key is required outside development")
		}
		c.Auth.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if c.Audit.Timeout <= 0 {
		return errors.New("audit.timeout must be positive")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// UsesPostgres reports whether repositories and the audit sink are durable.
func (c *Config) UsesPostgres() bool {
	return c.Database.URL != ""
}

func (c *Config) UsesRedis() bool {
	return c.Redis.URL != ""
}
