package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/slavakukuyev/dispatch-engine/internal/domain"
)

// Config represents the dispatch engine's application configuration, loaded
// entirely from environment variables.
type Config struct {
	// Environment and logging
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`

	// Simulator client
	SimulatorBaseURL string        `env:"SIMULATOR_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	SimulatorTimeout time.Duration `env:"SIMULATOR_TIMEOUT" envDefault:"5s"`

	// Dispatch tuning
	TickDelaySeconds     float64 `env:"TICK_DELAY_SECONDS" envDefault:"0.2"`
	ReassignAfterTicks   int64   `env:"REASSIGN_AFTER_TICKS" envDefault:"4"`
	TargetLoadFactor     float64 `env:"TARGET_LOAD_FACTOR" envDefault:"0.8"`
	HeavyCars            string  `env:"HEAVY_CARS" envDefault:"3"`
	HeavyActivationRatio float64 `env:"HEAVY_ACTIVATION_RATIO" envDefault:"0.7"`

	// Circuit breaker settings. These are parsed and validated only:
	// simclient.New builds its breaker with fixed values (5 failures, 10s
	// reset, 2 half-open probes) and does not read these fields.
	CircuitBreakerMaxFailures   int           `env:"CIRCUIT_BREAKER_MAX_FAILURES" envDefault:"5"`
	CircuitBreakerResetTimeout  time.Duration `env:"CIRCUIT_BREAKER_RESET_TIMEOUT" envDefault:"10s"`
	CircuitBreakerHalfOpenLimit int           `env:"CIRCUIT_BREAKER_HALF_OPEN_LIMIT" envDefault:"2"`

	// Observability
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsPath    string `env:"METRICS_PATH" envDefault:"/metrics"`
	HealthEnabled  bool   `env:"HEALTH_ENABLED" envDefault:"true"`
	HealthPath     string `env:"HEALTH_PATH" envDefault:"/health"`
	Port           int    `env:"PORT" envDefault:"6660"`
}

// InitConfig initializes the configuration from environment variables,
// applies per-environment defaults, and validates the result.
func InitConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	applyEnvironmentDefaults(&cfg)

	if err := validateConfiguration(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// TickDelay converts TickDelaySeconds into a time.Duration for the engine's
// between-tick sleep.
func (c *Config) TickDelay() time.Duration {
	return time.Duration(c.TickDelaySeconds * float64(time.Second))
}

// HeavyCarSet parses the comma-separated HeavyCars field into the set the
// engine gates heavy-car activation on.
func (c *Config) HeavyCarSet() map[string]struct{} {
	out := make(map[string]struct{})
	for _, id := range strings.Split(c.HeavyCars, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}

func applyEnvironmentDefaults(cfg *Config) {
	switch cfg.Environment {
	case "development", "dev":
		applyDevelopmentDefaults(cfg)
	case "testing", "test":
		applyTestingDefaults(cfg)
	case "production", "prod":
		applyProductionDefaults(cfg)
	default:
		// Keep current defaults for unknown environments.
	}
}

func applyDevelopmentDefaults(cfg *Config) {
	if cfg.LogLevel == "INFO" {
		cfg.LogLevel = "DEBUG"
	}
}

func applyTestingDefaults(cfg *Config) {
	cfg.LogLevel = "WARN"
	cfg.TickDelaySeconds = 0.001
	cfg.SimulatorTimeout = 500 * time.Millisecond
	cfg.CircuitBreakerMaxFailures = 1
	cfg.CircuitBreakerResetTimeout = 1 * time.Second
	cfg.MetricsEnabled = false
}

func applyProductionDefaults(cfg *Config) {
	cfg.LogLevel = "WARN"
	cfg.SimulatorTimeout = 10 * time.Second
	cfg.CircuitBreakerMaxFailures = 3
	cfg.CircuitBreakerResetTimeout = 15 * time.Second
}

// validateConfiguration performs field-level validation, mirroring the
// teacher's validate-after-parse style.
func validateConfiguration(cfg *Config) error {
	if cfg.SimulatorBaseURL == "" {
		return domain.NewValidationError("simulator base url must not be empty", nil)
	}

	if cfg.TickDelaySeconds <= 0 {
		return domain.NewValidationError("tick delay seconds must be positive", nil).
			WithContext("tick_delay_seconds", cfg.TickDelaySeconds)
	}

	if cfg.ReassignAfterTicks <= 0 {
		return domain.NewValidationError("reassign after ticks must be positive", nil).
			WithContext("reassign_after_ticks", cfg.ReassignAfterTicks)
	}

	if cfg.TargetLoadFactor <= 0 || cfg.TargetLoadFactor > 1 {
		return domain.NewValidationError("target load factor must be in (0, 1]", nil).
			WithContext("target_load_factor", cfg.TargetLoadFactor)
	}

	if cfg.HeavyActivationRatio < 0 || cfg.HeavyActivationRatio > 1 {
		return domain.NewValidationError("heavy activation ratio must be in [0, 1]", nil).
			WithContext("heavy_activation_ratio", cfg.HeavyActivationRatio)
	}

	if cfg.CircuitBreakerMaxFailures <= 0 {
		return domain.NewValidationError("circuit breaker max failures must be positive", nil).
			WithContext("max_failures", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.CircuitBreakerResetTimeout <= 0 {
		return domain.NewValidationError("circuit breaker reset timeout must be positive", nil).
			WithContext("reset_timeout", cfg.CircuitBreakerResetTimeout)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return domain.NewValidationError("port must be between 1 and 65535", nil).
			WithContext("port", cfg.Port)
	}

	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsTesting returns true if running in testing environment.
func (c *Config) IsTesting() bool {
	return c.Environment == "testing" || c.Environment == "test"
}
