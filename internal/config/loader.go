// Package config provides configuration management for the exotic wager optimizer.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "config/config.yaml"
	envPrefix         = "EXOTIC"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()

	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for every optional
// field. A missing file is not an error.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// ReloadFromEnv reloads the configuration from the path named by EXOTIC_CONFIG_PATH
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := LoadWithDefaults(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "exotic-optimizer")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("optimization.model_weight", 0.7)
	v.SetDefault("optimization.market_weight", 0.3)
	v.SetDefault("optimization.min_probability_threshold", 0.001)
	v.SetDefault("optimization.max_exacta_combinations", 20)
	v.SetDefault("optimization.max_trifecta_combinations", 15)
	v.SetDefault("optimization.max_superfecta_combinations", 10)
	v.SetDefault("optimization.min_ev_threshold", 0.05)
	v.SetDefault("optimization.max_kelly_fraction", 0.25)
	v.SetDefault("optimization.bankroll", 1000.0)
	v.SetDefault("optimization.signal_history_size", 1000)
	v.SetDefault("optimization.max_daily_exposure", 1000.0)
	v.SetDefault("optimization.max_per_bet_exposure", 100.0)
	v.SetDefault("optimization.use_environment_preset", false)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "exotic_betting")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 5001)
	v.SetDefault("api.read_timeout_seconds", 15)
	v.SetDefault("api.write_timeout_seconds", 30)
	v.SetDefault("api.allowed_origins", []string{"*"})

	v.SetDefault("provider.enabled", false)
	v.SetDefault("provider.url", "")
	v.SetDefault("provider.model_version", "latest")
	v.SetDefault("provider.timeout_seconds", 5)
	v.SetDefault("provider.retry_attempts", 3)
	v.SetDefault("provider.rate_limit", 10.0)

	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.max_size", 10000)

	v.SetDefault("publisher.sinks", []string{})
	v.SetDefault("publisher.redis_addr", "localhost:6379")
	v.SetDefault("publisher.redis_password", "")
	v.SetDefault("publisher.redis_db", 0)
	v.SetDefault("publisher.redis_channel", "exotic_signals")
	v.SetDefault("publisher.kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("publisher.kafka_topic", "exotic-signals")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("retention.enabled", false)
	v.SetDefault("retention.schedule", "0 3 * * *")
	v.SetDefault("retention.max_age_hours", 24*30)

	v.SetDefault("secrets.aws_region", "")
	v.SetDefault("secrets.secret_name", "")
}
