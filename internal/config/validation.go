// Package config provides configuration management for the exotic wager optimizer.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

const weightSumTolerance = 0.001

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("publishers", validatePublishers)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "testing", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validatePublishers(fl validator.FieldLevel) bool {
	sinks, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, s := range sinks {
		switch s {
		case "redis", "kafka", "none":
		default:
			return false
		}
	}
	return true
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	opt := cfg.Optimization
	if math.Abs(opt.ModelWeight+opt.MarketWeight-1) > weightSumTolerance {
		return fmt.Errorf("model_weight and market_weight must sum to 1.0, got %.4f", opt.ModelWeight+opt.MarketWeight)
	}

	if opt.MaxPerBetExposure > 0 && opt.MaxDailyExposure > 0 && opt.MaxPerBetExposure > opt.MaxDailyExposure {
		return fmt.Errorf("max_per_bet_exposure cannot exceed max_daily_exposure")
	}

	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when the database is enabled")
		}
		if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
	}

	if cfg.Provider.Enabled && cfg.Provider.URL == "" {
		return fmt.Errorf("provider url is required when the provider is enabled")
	}

	for _, sink := range cfg.Publisher.Sinks {
		switch sink {
		case "redis":
			if cfg.Publisher.RedisAddr == "" || cfg.Publisher.RedisChannel == "" {
				return fmt.Errorf("redis publisher requires redis_addr and redis_channel")
			}
		case "kafka":
			if len(cfg.Publisher.KafkaBrokers) == 0 || cfg.Publisher.KafkaTopic == "" {
				return fmt.Errorf("kafka publisher requires kafka_brokers and kafka_topic")
			}
		}
	}

	if cfg.Retention.Enabled {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			return fmt.Errorf("invalid retention schedule %q: %w", cfg.Retention.Schedule, err)
		}
		if cfg.Retention.MaxAgeHours <= 0 {
			return fmt.Errorf("retention max_age_hours must be positive")
		}
	}

	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, testing, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "publishers":
			errMsg += fmt.Sprintf("- Field '%s' must only contain: redis, kafka, none\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
