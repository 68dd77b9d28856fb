package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorageBadger   = "badger"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	StorageBackend string `toml:"storage_backend"`
	BadgerDir      string `toml:"badger_dir"`
	MemoryCacheMB  int    `toml:"memory_cache_mb"`
	// redis (storage backend and chat rate limiting)
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// postgres
	PostgresHost string `toml:"postgres_host"`
	PostgresPort string `toml:"postgres_port"`
	PostgresDB   string `toml:"postgres_db"`
	// remote text generation
	TextGenBaseURL          string   `toml:"textgen_base_url"`
	TextGenTimeout          Duration `toml:"textgen_timeout"`
	TextGenFailureThreshold uint32   `toml:"textgen_failure_threshold"`
	TextGenOpenTimeout      Duration `toml:"textgen_open_timeout"`
	// chat requests per minute and user, 0 disables the limit
	ChatRateLimitPerMin int `toml:"chat_rate_limit_per_min"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// cors
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Duration is a time.Duration decoded from strings like "20s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageBadger, StorageRedis, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend: [%s]", c.StorageBackend)
	}
	if c.Port <= 0 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.StorageBackend == StorageRedis && c.RedisHost == "" {
		return fmt.Errorf("redis storage backend needs redis_host")
	}
	if c.StorageBackend == StoragePostgres && (c.PostgresHost == "" || c.PostgresDB == "") {
		return fmt.Errorf("postgres storage backend needs postgres_host and postgres_db")
	}
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the validated config of env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env [%s] in [%s]", env, path)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid [%s] config: %w", env, err)
	}

	return cfg, nil
}
