package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"sheetview/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Loading   LoadingConfig
	Parsing   ParsingConfig
	Uploads   UploadConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// DatabaseConfig holds the optional load-history database
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database is configured
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// LoadingConfig bounds source acquisition
type LoadingConfig struct {
	MaxUploadMB  int
	FetchTimeout time.Duration
	AllowedHosts []string
	// AllowPrivateNetworks lets URL loads reach loopback and internal addresses
	AllowPrivateNetworks bool
}

// MaxBytes returns the upload limit in bytes
func (c LoadingConfig) MaxBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// ParsingConfig holds decoder charsets
type ParsingConfig struct {
	CSVFallbackCharset string
	XLSCharset         string
}

// UploadConfig controls retention of uploaded originals
type UploadConfig struct {
	Dir string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Loading: LoadingConfig{
			MaxUploadMB:          getEnvIntOrDefault("MAX_UPLOAD_MB", 100),
			FetchTimeout:         getEnvDurationOrDefault("FETCH_TIMEOUT", 30*time.Second),
			AllowedHosts:         getEnvListOrDefault("URL_ALLOWED_HOSTS", nil),
			AllowPrivateNetworks: getEnvBoolOrDefault("URL_ALLOW_PRIVATE_NETWORKS", false),
		},
		Parsing: ParsingConfig{
			CSVFallbackCharset: getEnvOrDefault("CSV_FALLBACK_CHARSET", "windows-1252"),
			XLSCharset:         getEnvOrDefault("XLS_CHARSET", "utf-8"),
		},
		Uploads: UploadConfig{Dir: os.Getenv("UPLOAD_DIR")},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	if config.Loading.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Loading.FetchTimeout <= 0 {
		return errors.ConfigInvalid("FETCH_TIMEOUT must be positive")
	}
	return nil
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("45s") or plain seconds
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma-separated value, dropping blanks
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
