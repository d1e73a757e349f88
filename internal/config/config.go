package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Fetcher  FetcherConfig  `mapstructure:"fetcher"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

const (
	EngineBrowser = "browser"
	EngineHTTP    = "http"
)

// FetcherConfig holds page fetching configuration shared by both engines
type FetcherConfig struct {
	Engine                string   `mapstructure:"engine"`
	BaseURL               string   `mapstructure:"base_url"`
	Timeout               int      `mapstructure:"timeout"`
	MaxRetries            int      `mapstructure:"max_retries"`
	MaxWorkers            int      `mapstructure:"max_workers"`
	MaxRequestsPerSecond  int      `mapstructure:"max_requests_per_second"`
	MinContentLength      int      `mapstructure:"min_content_length"`
	CircuitBreakerMinutes int      `mapstructure:"circuit_breaker_minutes"`
	UserAgent             string   `mapstructure:"user_agent"`
	Proxies               []string `mapstructure:"proxies"`
}

// BrowserConfig holds headless browser configuration
type BrowserConfig struct {
	Headless      bool   `mapstructure:"headless"`
	NoSandbox     bool   `mapstructure:"no_sandbox"`
	Bin           string `mapstructure:"bin"`
	MaxPages      int    `mapstructure:"max_pages"`
	ActionTimeout int    `mapstructure:"action_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// Stored records younger than this are served without a fetch; 0 disables
	MaxAgeMinutes int `mapstructure:"max_age_minutes"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
	MaxTaskRetry  int    `mapstructure:"max_task_retry"`
}

// CacheConfig controls the record cache. It lives in Redis when Redis is
// enabled and in process memory otherwise.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLMinutes int  `mapstructure:"ttl_minutes"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Addr returns the listen address, or "" when metrics are disabled.
func (m MetricsConfig) Addr() string {
	if !m.Enabled {
		return ""
	}
	return fmt.Sprintf(":%d", m.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from an optional config.yaml with environment
// variable overrides (FETCHER_ENGINE, REDIS_HOST, ...).
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug("config.yaml not found, using defaults and environment")
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Fetcher.Engine {
	case EngineBrowser, EngineHTTP:
	default:
		return fmt.Errorf("unknown fetcher engine %q, expected %q or %q", c.Fetcher.Engine, EngineBrowser, EngineHTTP)
	}
	if c.Fetcher.MaxWorkers < 1 {
		return fmt.Errorf("fetcher.max_workers must be positive, got %d", c.Fetcher.MaxWorkers)
	}
	if c.Cache.Enabled && c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache.ttl_minutes must be positive, got %d", c.Cache.TTLMinutes)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("fetcher.engine", EngineBrowser)
	viper.SetDefault("fetcher.base_url", "https://www.partselect.com")
	viper.SetDefault("fetcher.timeout", 60)
	viper.SetDefault("fetcher.max_retries", 2)
	viper.SetDefault("fetcher.max_workers", 2)
	viper.SetDefault("fetcher.max_requests_per_second", 1)
	viper.SetDefault("fetcher.min_content_length", 1000)
	viper.SetDefault("fetcher.circuit_breaker_minutes", 30)
	viper.SetDefault("fetcher.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36")
	viper.SetDefault("fetcher.proxies", []string{})

	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.no_sandbox", true)
	viper.SetDefault("browser.bin", "")
	viper.SetDefault("browser.max_pages", 2)
	viper.SetDefault("browser.action_timeout", 10)

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "partselect")
	viper.SetDefault("database.user", "partselect_user")
	viper.SetDefault("database.password", "partselect_pass")
	viper.SetDefault("database.max_age_minutes", 1440)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.consumer_group", "partselect_consumer")
	viper.SetDefault("redis.min_idle_time", 120)
	viper.SetDefault("redis.max_task_retry", 3)

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl_minutes", 30)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.port", 9090)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// ConfigureLogging applies level and format to the standard logrus logger.
// Logs always go to stderr; stdout is reserved for records and the MCP protocol.
func ConfigureLogging(cfg LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}
	return nil
}
