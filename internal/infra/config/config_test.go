package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_DefaultValues(t *testing.T) {
	cleanupEnv := clearEnvVars()
	defer cleanupEnv()

	cfg, err := InitConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "DEBUG", cfg.LogLevel) // development default: INFO bumped to DEBUG
	assert.Equal(t, "http://127.0.0.1:8000", cfg.SimulatorBaseURL)
	assert.Equal(t, 0.2, cfg.TickDelaySeconds)
	assert.Equal(t, int64(4), cfg.ReassignAfterTicks)
	assert.Equal(t, 0.8, cfg.TargetLoadFactor)
	assert.Equal(t, "3", cfg.HeavyCars)
	assert.Equal(t, 0.7, cfg.HeavyActivationRatio)
	assert.Equal(t, 6660, cfg.Port)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	assert.Equal(t, "/health", cfg.HealthPath)
}

func TestInitConfig_EnvironmentVariables(t *testing.T) {
	cleanupEnv := clearEnvVars()
	defer cleanupEnv()

	envVars := map[string]string{
		"ENV":                    "production",
		"SIMULATOR_BASE_URL":     "http://sim:9000",
		"TICK_DELAY_SECONDS":     "0.5",
		"REASSIGN_AFTER_TICKS":   "6",
		"TARGET_LOAD_FACTOR":     "0.9",
		"HEAVY_CARS":             "3,4",
		"HEAVY_ACTIVATION_RATIO": "0.5",
		"PORT":                   "8080",
	}
	for key, value := range envVars {
		require.NoError(t, os.Setenv(key, value))
	}

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "WARN", cfg.LogLevel) // overridden by production defaults
	assert.Equal(t, "http://sim:9000", cfg.SimulatorBaseURL)
	assert.Equal(t, 0.5, cfg.TickDelaySeconds)
	assert.Equal(t, int64(6), cfg.ReassignAfterTicks)
	assert.Equal(t, 0.9, cfg.TargetLoadFactor)
	assert.Equal(t, map[string]struct{}{"3": {}, "4": {}}, cfg.HeavyCarSet())
	assert.Equal(t, 0.5, cfg.HeavyActivationRatio)
	assert.Equal(t, 8080, cfg.Port)
}

func TestEnvironmentDefaults_Testing(t *testing.T) {
	cleanupEnv := clearEnvVars()
	defer cleanupEnv()
	require.NoError(t, os.Setenv("ENV", "testing"))

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.LogLevel)
	assert.Equal(t, 0.001, cfg.TickDelaySeconds)
	assert.Equal(t, 500*time.Millisecond, cfg.SimulatorTimeout)
	assert.False(t, cfg.MetricsEnabled)
}

func TestEnvironmentDefaults_Production(t *testing.T) {
	cleanupEnv := clearEnvVars()
	defer cleanupEnv()
	require.NoError(t, os.Setenv("ENV", "production"))

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.SimulatorTimeout)
	assert.Equal(t, 3, cfg.CircuitBreakerMaxFailures)
}

func TestTickDelay_ConvertsSecondsToDuration(t *testing.T) {
	cfg := Config{TickDelaySeconds: 0.25}
	assert.Equal(t, 250*time.Millisecond, cfg.TickDelay())
}

func TestHeavyCarSet_ParsesCommaSeparatedIDsAndTrimsSpace(t *testing.T) {
	cfg := Config{HeavyCars: "3, 4 ,5"}
	assert.Equal(t, map[string]struct{}{"3": {}, "4": {}, "5": {}}, cfg.HeavyCarSet())
}

func TestHeavyCarSet_EmptyStringYieldsEmptySet(t *testing.T) {
	cfg := Config{HeavyCars: ""}
	assert.Empty(t, cfg.HeavyCarSet())
}

func TestConfigValidation_RejectsNonPositiveTickDelay(t *testing.T) {
	cleanupEnv := clearEnvVars()
	defer cleanupEnv()
	require.NoError(t, os.Setenv("TICK_DELAY_SECONDS", "0"))

	_, err := InitConfig()
	assert.Error(t, err)
}

func TestConfigValidation_RejectsOutOfRangeTargetLoadFactor(t *testing.T) {
	cleanupEnv := clearEnvVars()
	defer cleanupEnv()
	require.NoError(t, os.Setenv("TARGET_LOAD_FACTOR", "1.5"))

	_, err := InitConfig()
	assert.Error(t, err)
}

func TestConfigValidation_RejectsInvalidPort(t *testing.T) {
	cleanupEnv := clearEnvVars()
	defer cleanupEnv()
	require.NoError(t, os.Setenv("PORT", "70000"))

	_, err := InitConfig()
	assert.Error(t, err)
}

func TestConfig_EnvironmentMethods(t *testing.T) {
	cfg := Config{Environment: "production"}
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsTesting())

	cfg = Config{Environment: "development"}
	assert.True(t, cfg.IsDevelopment())

	cfg = Config{Environment: "testing"}
	assert.True(t, cfg.IsTesting())
}

func clearEnvVars() func() {
	envVars := []string{
		"ENV", "LOG_LEVEL", "SIMULATOR_BASE_URL", "SIMULATOR_TIMEOUT",
		"TICK_DELAY_SECONDS", "REASSIGN_AFTER_TICKS", "TARGET_LOAD_FACTOR",
		"HEAVY_CARS", "HEAVY_ACTIVATION_RATIO",
		"CIRCUIT_BREAKER_MAX_FAILURES", "CIRCUIT_BREAKER_RESET_TIMEOUT",
		"CIRCUIT_BREAKER_HALF_OPEN_LIMIT",
		"METRICS_ENABLED", "METRICS_PATH", "HEALTH_ENABLED", "HEALTH_PATH", "PORT",
	}

	originalValues := make(map[string]string)
	for _, envVar := range envVars {
		originalValues[envVar] = os.Getenv(envVar)
		if err := os.Unsetenv(envVar); err != nil {
			fmt.Printf("failed to unset environment variable %s: %v\n", envVar, err)
		}
	}

	return func() {
		for _, envVar := range envVars {
			if originalValue, exists := originalValues[envVar]; exists && originalValue != "" {
				os.Setenv(envVar, originalValue)
			} else {
				os.Unsetenv(envVar)
			}
		}
	}
}
