// Package config provides configuration management for the exotic wager optimizer.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app" validate:"required"`
	Optimization OptimizationConfig `mapstructure:"optimization" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database"`
	API          APIConfig          `mapstructure:"api" validate:"required"`
	Provider     ProviderConfig     `mapstructure:"provider"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Publisher    PublisherConfig    `mapstructure:"publisher"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Retention    RetentionConfig    `mapstructure:"retention"`
	Secrets      SecretsConfig      `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// OptimizationConfig holds the optimizer parameters
type OptimizationConfig struct {
	ModelWeight               float64 `mapstructure:"model_weight" validate:"gte=0,lte=1"`
	MarketWeight              float64 `mapstructure:"market_weight" validate:"gte=0,lte=1"`
	MinProbabilityThreshold   float64 `mapstructure:"min_probability_threshold" validate:"gte=0,lt=1"`
	MaxExactaCombinations     int     `mapstructure:"max_exacta_combinations" validate:"required,gt=0"`
	MaxTrifectaCombinations   int     `mapstructure:"max_trifecta_combinations" validate:"required,gt=0"`
	MaxSuperfectaCombinations int     `mapstructure:"max_superfecta_combinations" validate:"required,gt=0"`
	MinEVThreshold            float64 `mapstructure:"min_ev_threshold" validate:"gte=0"`
	MaxKellyFraction          float64 `mapstructure:"max_kelly_fraction" validate:"required,gt=0,lte=1"`
	Bankroll                  float64 `mapstructure:"bankroll" validate:"required,gt=0"`
	SignalHistorySize         int     `mapstructure:"signal_history_size" validate:"required,gt=0"`
	MaxDailyExposure          float64 `mapstructure:"max_daily_exposure" validate:"gte=0"`
	MaxPerBetExposure         float64 `mapstructure:"max_per_bet_exposure" validate:"gte=0"`
	UseEnvironmentPreset      bool    `mapstructure:"use_environment_preset"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
}

// APIConfig represents HTTP API server configuration
type APIConfig struct {
	Host                string   `mapstructure:"host"`
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
}

// ProviderConfig configures the upstream win-probability provider
type ProviderConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	URL            string  `mapstructure:"url" validate:"omitempty,url"`
	ModelVersion   string  `mapstructure:"model_version"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts  int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// CacheConfig configures the provider probability cache
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"gte=0"`
	MaxSize    int `mapstructure:"max_size" validate:"gte=0"`
}

// PublisherConfig configures where signals are published
type PublisherConfig struct {
	Sinks         []string `mapstructure:"sinks" validate:"publishers"`
	RedisAddr     string   `mapstructure:"redis_addr"`
	RedisPassword string   `mapstructure:"redis_password"`
	RedisDB       int      `mapstructure:"redis_db" validate:"gte=0"`
	RedisChannel  string   `mapstructure:"redis_channel"`
	KafkaBrokers  []string `mapstructure:"kafka_brokers"`
	KafkaTopic    string   `mapstructure:"kafka_topic"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RetentionConfig configures the purge of persisted signals
type RetentionConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Schedule    string `mapstructure:"schedule"`
	MaxAgeHours int    `mapstructure:"max_age_hours" validate:"gte=0"`
}

// SecretsConfig points at an AWS Secrets Manager secret to overlay
type SecretsConfig struct {
	AWSRegion  string `mapstructure:"aws_region"`
	SecretName string `mapstructure:"secret_name"`
}

// GetDatabaseDSN returns the PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN returns the PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		sslMode,
	)
}

// Addr returns the API listen address
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// ReadTimeout returns the server read timeout
func (a APIConfig) ReadTimeout() time.Duration {
	return time.Duration(a.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout
func (a APIConfig) WriteTimeout() time.Duration {
	return time.Duration(a.WriteTimeoutSeconds) * time.Second
}

// Timeout returns the provider request timeout
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// TTL returns the cache entry lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MaxAge returns how long persisted signals are kept
func (r RetentionConfig) MaxAge() time.Duration {
	return time.Duration(r.MaxAgeHours) * time.Hour
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsTesting checks if the application is running in testing mode
func (c *Config) IsTesting() bool {
	return c.App.Environment == "testing"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// ApplyEnvironmentPreset adjusts optimizer thresholds for the running environment
// when the preset is enabled.
func ApplyEnvironmentPreset(cfg *Config) {
	if !cfg.Optimization.UseEnvironmentPreset {
		return
	}
	switch cfg.App.Environment {
	case "development":
		cfg.Optimization.MinEVThreshold = 0.03
	case "testing":
		cfg.Optimization.MinEVThreshold = 0.01
	case "production":
		cfg.Optimization.MinEVThreshold = 0.08
		cfg.Optimization.MaxKellyFraction = 0.15
	}
}
