// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (match list cache; optional)
	RedisURL string `koanf:"redis_url"`

	// Scoring calibration file (optional JSON overriding overall weights)
	CalibrationPath string `koanf:"calibration_path"`

	// Engine tuning
	MatchBatchSize        int `koanf:"match_batch_size"`
	MatchParallelism      int `koanf:"match_parallelism"`
	RefreshTimeoutSeconds int `koanf:"refresh_timeout_seconds"`
	PersistTopN           int `koanf:"persist_top_n"`
	MatchCacheTTLSeconds  int `koanf:"match_cache_ttl_seconds"`
	RecentHireWindowDays  int `koanf:"recent_hire_window_days"`

	// Diversity re-ranking
	MaxFromSameTimezone  int  `koanf:"max_from_same_timezone"`
	BoostNewContributors bool `koanf:"boost_new_contributors"`
	PenalizeRecentHires  bool `koanf:"penalize_recent_hires"`

	// Tracing
	TracingEnabled   bool    `koanf:"tracing_enabled"`
	OTLPEndpoint     string  `koanf:"otlp_endpoint"`
	TraceSampleRatio float64 `koanf:"trace_sample_ratio"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required")
	ErrInvalidPort         = errors.New("PORT must be a valid integer")
	ErrInvalidSampleRatio  = errors.New("TRACE_SAMPLE_RATIO must be between 0 and 1")
	ErrInvalidParallelism  = errors.New("MATCH_PARALLELISM must be positive")
	ErrInvalidBatchSize    = errors.New("MATCH_BATCH_SIZE must be positive")
	ErrMissingOTLPEndpoint = errors.New("OTLP_ENDPOINT is required when tracing is enabled")
)

// Default values for non-secret configuration.
const (
	DefaultPort                  = 8080
	DefaultEnv                   = "development"
	DefaultMatchBatchSize        = 100
	DefaultMatchParallelism      = 8
	DefaultRefreshTimeoutSeconds = 30
	DefaultPersistTopN           = 50
	DefaultMatchCacheTTLSeconds  = 600
	DefaultRecentHireWindowDays  = 30
	DefaultMaxFromSameTimezone   = 0 // no cap
	DefaultTraceSampleRatio      = 0.1
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Try MATCH_PORT first, then PORT for compatibility with platform defaults
	port, portErr := getEnvIntOrDefaultMulti([]string{"MATCH_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	batchSize, err := getEnvIntOrDefault("MATCH_BATCH_SIZE", k.Int("match_batch_size"), DefaultMatchBatchSize)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	parallelism, err := getEnvIntOrDefault("MATCH_PARALLELISM", k.Int("match_parallelism"), DefaultMatchParallelism)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	refreshTimeout, err := getEnvIntOrDefault("REFRESH_TIMEOUT_SECONDS", k.Int("refresh_timeout_seconds"), DefaultRefreshTimeoutSeconds)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	persistTopN, err := getEnvIntOrDefault("PERSIST_TOP_N", k.Int("persist_top_n"), DefaultPersistTopN)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	cacheTTL, err := getEnvIntOrDefault("MATCH_CACHE_TTL_SECONDS", k.Int("match_cache_ttl_seconds"), DefaultMatchCacheTTLSeconds)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	hireWindow, err := getEnvIntOrDefault("RECENT_HIRE_WINDOW_DAYS", k.Int("recent_hire_window_days"), DefaultRecentHireWindowDays)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	maxSameTZ, err := getEnvIntOrDefault("MAX_FROM_SAME_TIMEZONE", k.Int("max_from_same_timezone"), DefaultMaxFromSameTimezone)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	sampleRatio, ratioErr := getEnvFloatOrDefault("TRACE_SAMPLE_RATIO", k.Float64("trace_sample_ratio"), DefaultTraceSampleRatio)
	if ratioErr != nil {
		loadErrs = append(loadErrs, ratioErr)
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                  port,
		Env:                   getEnvOrDefaultMulti([]string{"MATCH_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:           getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:              getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		CalibrationPath:       getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		MatchBatchSize:        batchSize,
		MatchParallelism:      parallelism,
		RefreshTimeoutSeconds: refreshTimeout,
		PersistTopN:           persistTopN,
		MatchCacheTTLSeconds:  cacheTTL,
		RecentHireWindowDays:  hireWindow,
		MaxFromSameTimezone:   maxSameTZ,
		BoostNewContributors:  getEnvBoolOrKoanf("BOOST_NEW_CONTRIBUTORS", k, "boost_new_contributors", false),
		PenalizeRecentHires:   getEnvBoolOrKoanf("PENALIZE_RECENT_HIRES", k, "penalize_recent_hires", false),
		TracingEnabled:        getEnvBoolOrKoanf("TRACING_ENABLED", k, "tracing_enabled", false),
		OTLPEndpoint:          getEnvOrKoanf("OTLP_ENDPOINT", k, "otlp_endpoint"),
		TraceSampleRatio:      sampleRatio,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvBoolOrKoanf returns the environment variable as bool if set, otherwise
// the koanf value, or default. Env values follow true/1/yes/on, false/0/no/off.
func getEnvBoolOrKoanf(envKey string, k *koanf.Koanf, koanfKey string, defaultVal bool) bool {
	result := defaultVal
	if k.Exists(koanfKey) {
		result = k.Bool(koanfKey)
	}
	if val := os.Getenv(envKey); val != "" {
		// Env var takes precedence over file config
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			result = true
		case "false", "0", "no", "off":
			result = false
		}
	}
	return result
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
// Note: a zero value from a YAML file falls back to the default.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as a float.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.MatchBatchSize <= 0 {
		errs = append(errs, ErrInvalidBatchSize)
	}
	if c.MatchParallelism <= 0 {
		errs = append(errs, ErrInvalidParallelism)
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, ErrInvalidSampleRatio)
	}
	if c.TracingEnabled && c.OTLPEndpoint == "" {
		errs = append(errs, ErrMissingOTLPEndpoint)
	}

	return errs
}

// IsProduction reports whether the server runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                    fmt.Sprintf("%d", c.Port),
		"env":                     c.Env,
		"database_url":            maskConnURL(c.DatabaseURL),
		"redis_url":               maskConnURL(c.RedisURL),
		"calibration_path":        orNotSet(c.CalibrationPath),
		"match_batch_size":        fmt.Sprintf("%d", c.MatchBatchSize),
		"match_parallelism":       fmt.Sprintf("%d", c.MatchParallelism),
		"refresh_timeout_seconds": fmt.Sprintf("%d", c.RefreshTimeoutSeconds),
		"persist_top_n":           fmt.Sprintf("%d", c.PersistTopN),
		"match_cache_ttl_seconds": fmt.Sprintf("%d", c.MatchCacheTTLSeconds),
		"recent_hire_window_days": fmt.Sprintf("%d", c.RecentHireWindowDays),
		"max_from_same_timezone":  fmt.Sprintf("%d", c.MaxFromSameTimezone),
		"boost_new_contributors":  fmt.Sprintf("%t", c.BoostNewContributors),
		"penalize_recent_hires":   fmt.Sprintf("%t", c.PenalizeRecentHires),
		"tracing_enabled":         fmt.Sprintf("%t", c.TracingEnabled),
		"otlp_endpoint":           orNotSet(c.OTLPEndpoint),
		"trace_sample_ratio":      fmt.Sprintf("%g", c.TraceSampleRatio),
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskConnURL masks the password in a connection URL.
// Supports postgres://, postgresql://, and redis:// schemes.
func maskConnURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
