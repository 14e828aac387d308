package config

import (
	"os"
	"strconv"
	"strings"

	"goqvalue/domain/fdr"
	"goqvalue/internal"
	"goqvalue/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Estimator EstimatorSettings
	Batch     BatchConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// DatabaseConfig holds database connection settings. An empty URL keeps
// runs in memory.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether runs are persisted to PostgreSQL
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// EstimatorSettings holds the estimator defaults applied to every request
type EstimatorSettings struct {
	Pi0Method    string
	SmoothDF     float64
	SmoothLogPi0 bool
	LambdaMin    float64
	LambdaMax    float64
	LambdaStep   float64
	Transform    string
	Adjust       float64
}

// BatchConfig bounds concurrent batch work
type BatchConfig struct {
	Concurrency int
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:  loadDatabaseConfig(),
		Server:    loadServerConfig(),
		Estimator: loadEstimatorSettings(),
		Batch:     loadBatchConfig(),
		Profiling: loadProfilingConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadEstimatorSettings() EstimatorSettings {
	def := fdr.DefaultEstimatorConfig()
	return EstimatorSettings{
		Pi0Method:    getEnvOrDefault("PI0_METHOD", string(def.Pi0Method)),
		SmoothDF:     getEnvFloatOrDefault("SMOOTH_DF", def.SmoothDF),
		SmoothLogPi0: getEnvBoolOrDefault("SMOOTH_LOG_PI0", false),
		LambdaMin:    getEnvFloatOrDefault("LAMBDA_MIN", 0.05),
		LambdaMax:    getEnvFloatOrDefault("LAMBDA_MAX", 0.95),
		LambdaStep:   getEnvFloatOrDefault("LAMBDA_STEP", 0.05),
		Transform:    getEnvOrDefault("LFDR_TRANSFORM", string(def.Transform)),
		Adjust:       getEnvFloatOrDefault("LFDR_ADJUST", def.Adjust),
	}
}

func loadBatchConfig() BatchConfig {
	return BatchConfig{Concurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 4)}
}

func loadProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

// Validate checks value ranges that the estimators would otherwise reject per request
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if _, ok := internal.ParseLogLevel(c.LogLevel); !ok {
		return errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG, TRACE")
	}
	if _, err := fdr.ParsePi0Method(c.Estimator.Pi0Method); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if _, err := fdr.ParseTransform(c.Estimator.Transform); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	e := c.Estimator
	if !(e.LambdaMin >= 0 && e.LambdaMax < 1 && e.LambdaMin <= e.LambdaMax) {
		return errors.ConfigInvalid("LAMBDA_MIN and LAMBDA_MAX must satisfy 0 <= min <= max < 1")
	}
	if e.LambdaMin < e.LambdaMax && !(e.LambdaStep > 0) {
		return errors.ConfigInvalid("LAMBDA_STEP must be positive")
	}
	if n := len(c.EstimatorConfig().Lambda); n > 1 && n < 4 {
		return errors.ConfigInvalid("lambda grid needs a single value or at least 4 values")
	}
	if !(e.SmoothDF > 1) {
		return errors.ConfigInvalid("SMOOTH_DF must be greater than 1")
	}
	if !(e.Adjust > 0) {
		return errors.ConfigInvalid("LFDR_ADJUST must be positive")
	}
	if c.Batch.Concurrency < 1 {
		return errors.ConfigInvalid("BATCH_CONCURRENCY must be at least 1")
	}
	return nil
}

// EstimatorConfig converts the settings into the estimator configuration
// used when a request does not supply its own
func (c *Config) EstimatorConfig() fdr.EstimatorConfig {
	cfg := fdr.DefaultEstimatorConfig()
	if m, err := fdr.ParsePi0Method(c.Estimator.Pi0Method); err == nil {
		cfg.Pi0Method = m
	}
	if t, err := fdr.ParseTransform(c.Estimator.Transform); err == nil {
		cfg.Transform = t
	}
	cfg.SmoothDF = c.Estimator.SmoothDF
	cfg.SmoothLogPi0 = fdr.Bool(c.Estimator.SmoothLogPi0)
	cfg.Adjust = c.Estimator.Adjust
	cfg.Lambda = fdr.LambdaGrid(c.Estimator.LambdaMin, c.Estimator.LambdaMax, c.Estimator.LambdaStep)
	return cfg
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
