package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Analytics     AnalyticsConfig     `mapstructure:"analytics"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	InstanceID    string              `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
	RateLimit       RateLimit     `mapstructure:"rate_limit"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// RateLimit applies per client IP to the credential endpoints.
type RateLimit struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type AuthConfig struct {
	AccessSecret   string        `mapstructure:"access_secret"`
	RefreshSecret  string        `mapstructure:"refresh_secret"`
	AccessTTL      time.Duration `mapstructure:"access_ttl"`
	RefreshTTL     time.Duration `mapstructure:"refresh_ttl"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	CookieDomain   string        `mapstructure:"cookie_domain"`
	ConfirmBaseURL string        `mapstructure:"confirm_base_url"`
	Issuer         string        `mapstructure:"issuer"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SSLMode         string        `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          string        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

// CacheConfig controls the Redis summary cache and the breaker guarding it.
type CacheConfig struct {
	Enabled                 bool          `mapstructure:"enabled"`
	SummaryTTL              time.Duration `mapstructure:"summary_ttl"`
	CircuitBreakerThreshold int           `mapstructure:"circuit_breaker_threshold"`
	CircuitBreakerTimeout   time.Duration `mapstructure:"circuit_breaker_timeout"`
}

type WorkerConfig struct {
	TokenCleanupInterval time.Duration `mapstructure:"token_cleanup_interval"`
	ReconcileInterval    time.Duration `mapstructure:"reconcile_interval"`
	IdempotencyTTL       time.Duration `mapstructure:"idempotency_ttl"`
	LockTTL              time.Duration `mapstructure:"lock_ttl"`
	MaxRetries           int           `mapstructure:"max_retries"`
	RetryDelay           time.Duration `mapstructure:"retry_delay"`
}

type AnalyticsConfig struct {
	Timezone       string `mapstructure:"timezone"`
	HistoryMonths  int    `mapstructure:"history_months"`
	MaxListResults int    `mapstructure:"max_list_results"`
}

// Location resolves Timezone, falling back to UTC when unset.
func (c *AnalyticsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	// .env is optional and never overrides the real environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables: FINANCE_AUTH_ACCESS_SECRET -> auth.access_secret
	v.SetEnvPrefix("FINANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read from config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/finance")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// IsProduction reports whether ENV selects the production profile.
func IsProduction() bool {
	env := os.Getenv("ENV")
	return env == "production" || env == "prod"
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive"))
	}
	if c.Redis.Port <= 0 {
		errs = append(errs, fmt.Errorf("redis.port must be positive"))
	}
	if c.Auth.AccessTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.access_ttl must be positive"))
	}
	if c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		errs = append(errs, fmt.Errorf("auth.refresh_ttl must be longer than auth.access_ttl"))
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between 4 and 31"))
	}
	if c.Worker.LockTTL <= 0 {
		errs = append(errs, fmt.Errorf("worker.lock_ttl must be positive"))
	}
	if _, err := c.Analytics.Location(); err != nil {
		errs = append(errs, fmt.Errorf("analytics.timezone: %w", err))
	}

	// Production environment checks
	if IsProduction() {
		if c.Database.Password == "" {
			errs = append(errs, fmt.Errorf("database.password required in production"))
		}
		if c.Auth.AccessSecret == "" {
			errs = append(errs, fmt.Errorf("auth.access_secret required in production"))
		}
		if c.Auth.RefreshSecret == "" {
			errs = append(errs, fmt.Errorf("auth.refresh_secret required in production"))
		}
		if !c.Auth.CookieSecure {
			errs = append(errs, fmt.Errorf("auth.cookie_secure required in production"))
		}
	}

	// Secret length validation
	if c.Auth.AccessSecret != "" && len(c.Auth.AccessSecret) < 32 {
		errs = append(errs, fmt.Errorf("auth.access_secret must be at least 32 characters"))
	}
	if c.Auth.RefreshSecret != "" && len(c.Auth.RefreshSecret) < 32 {
		errs = append(errs, fmt.Errorf("auth.refresh_secret must be at least 32 characters"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cors.allow_credentials", true)
	v.SetDefault("server.rate_limit.requests", 10)
	v.SetDefault("server.rate_limit.window", "1m")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "finance")
	v.SetDefault("database.database", "finance")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", "1s")

	// Auth defaults
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.refresh_ttl", "720h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.confirm_base_url", "http://localhost:8080/api/v1/auth/confirm")
	v.SetDefault("auth.issuer", "finance")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.summary_ttl", "5m")
	v.SetDefault("cache.circuit_breaker_threshold", 5)
	v.SetDefault("cache.circuit_breaker_timeout", "30s")

	// Worker defaults
	v.SetDefault("worker.token_cleanup_interval", "1h")
	v.SetDefault("worker.reconcile_interval", "15m")
	v.SetDefault("worker.idempotency_ttl", "24h")
	v.SetDefault("worker.lock_ttl", "5m")
	v.SetDefault("worker.max_retries", 3)
	v.SetDefault("worker.retry_delay", "1s")

	// Analytics defaults
	v.SetDefault("analytics.timezone", "UTC")
	v.SetDefault("analytics.history_months", 6)
	v.SetDefault("analytics.max_list_results", 500)

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", false)

	// Instance ID
	v.SetDefault("instance_id", "finance-1")
}

func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DatabaseURL is the URL form golang-migrate expects.
func (c *DatabaseConfig) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
