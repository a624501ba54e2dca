// Package config provides configuration management for dashfetch using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultManifestTimeout       = 10 * time.Second
	defaultSegmentTimeout        = 30 * time.Second
	defaultRetryAttempts         = 3
	defaultRetryDelay            = 1 * time.Second
	defaultRetryMaxDelay         = 30 * time.Second
	defaultBackoffMultiplier     = 2.0
	defaultCircuitThreshold      = 5
	defaultCircuitTimeout        = 30 * time.Second
	defaultMaxHTTPErrors         = 10
	defaultSleepBetweenRequests  = 0
	defaultMaxResponseBodyBytes  = 512 * 1024 * 1024 // 512MB
	defaultVerbosity             = 1
)

// Config holds all configuration for the application.
type Config struct {
	Fetch   FetchConfig   `mapstructure:"fetch"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Muxer   MuxerConfig   `mapstructure:"muxer"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// QualityPreference selects Representation bandwidth within an AdaptationSet.
type QualityPreference string

const (
	QualityLowest  QualityPreference = "lowest"
	QualityHighest QualityPreference = "highest"
)

// FetchConfig holds the DASH fetch engine's selection and behavior knobs,
// corresponding directly to the core's configuration table.
type FetchConfig struct {
	QualityPreference     QualityPreference `mapstructure:"quality_preference"`
	LanguagePreference    string            `mapstructure:"language_preference"`
	FetchAudio            bool              `mapstructure:"fetch_audio"`
	FetchVideo            bool              `mapstructure:"fetch_video"`
	KeepAudio             bool              `mapstructure:"keep_audio"`
	KeepVideo             bool              `mapstructure:"keep_video"`
	ContentTypeChecks     bool              `mapstructure:"content_type_checks"`
	SleepBetweenRequests  int               `mapstructure:"sleep_between_requests"`
	Verbosity             int               `mapstructure:"verbosity"`
	RecordMetainformation bool              `mapstructure:"record_metainformation"`
	MaxHTTPErrors         int               `mapstructure:"max_http_errors"`
	// MaxResponseSize bounds a single manifest/segment response body.
	// Supports human-readable values like "512MB", "2GB", or raw byte counts.
	MaxResponseSize ByteSize `mapstructure:"max_response_size"`
}

// HTTPConfig holds the resilient HTTP client's tuning knobs.
type HTTPConfig struct {
	ManifestTimeout   Duration `mapstructure:"manifest_timeout"`
	SegmentTimeout    Duration `mapstructure:"segment_timeout"`
	RetryAttempts     int      `mapstructure:"retry_attempts"`
	RetryDelay        Duration `mapstructure:"retry_delay"`
	RetryMaxDelay     Duration `mapstructure:"retry_max_delay"`
	BackoffMultiplier float64  `mapstructure:"backoff_multiplier"`
	CircuitThreshold  int      `mapstructure:"circuit_threshold"`
	CircuitTimeout    Duration `mapstructure:"circuit_timeout"`
	UserAgent         string   `mapstructure:"user_agent"`
}

// MuxerConfig holds the external muxer invocation's configuration.
type MuxerConfig struct {
	BinaryPath string `mapstructure:"binary_path"` // empty = auto-detect on PATH
	Name       string `mapstructure:"name"`        // binary name; invoked with ffmpeg-style arguments
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with DASHFETCH_ and use underscores for nesting.
// Example: DASHFETCH_FETCH_QUALITY_PREFERENCE=highest.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dashfetch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/dashfetch")
		v.AddConfigPath("/etc/dashfetch")
	}

	v.SetEnvPrefix("DASHFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("fetch.quality_preference", string(QualityHighest))
	v.SetDefault("fetch.language_preference", "")
	v.SetDefault("fetch.fetch_audio", true)
	v.SetDefault("fetch.fetch_video", true)
	v.SetDefault("fetch.keep_audio", false)
	v.SetDefault("fetch.keep_video", false)
	v.SetDefault("fetch.content_type_checks", true)
	v.SetDefault("fetch.sleep_between_requests", defaultSleepBetweenRequests)
	v.SetDefault("fetch.verbosity", defaultVerbosity)
	v.SetDefault("fetch.record_metainformation", false)
	v.SetDefault("fetch.max_http_errors", defaultMaxHTTPErrors)
	v.SetDefault("fetch.max_response_size", defaultMaxResponseBodyBytes)

	v.SetDefault("http.manifest_timeout", defaultManifestTimeout)
	v.SetDefault("http.segment_timeout", defaultSegmentTimeout)
	v.SetDefault("http.retry_attempts", defaultRetryAttempts)
	v.SetDefault("http.retry_delay", defaultRetryDelay)
	v.SetDefault("http.retry_max_delay", defaultRetryMaxDelay)
	v.SetDefault("http.backoff_multiplier", defaultBackoffMultiplier)
	v.SetDefault("http.circuit_threshold", defaultCircuitThreshold)
	v.SetDefault("http.circuit_timeout", defaultCircuitTimeout)
	v.SetDefault("http.user_agent", "dashfetch/1.0")

	v.SetDefault("muxer.binary_path", "")
	v.SetDefault("muxer.name", "ffmpeg")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Fetch.QualityPreference {
	case QualityLowest, QualityHighest:
	default:
		return fmt.Errorf("fetch.quality_preference must be one of: lowest, highest")
	}

	if c.Fetch.Verbosity < 0 || c.Fetch.Verbosity > 3 {
		return fmt.Errorf("fetch.verbosity must be between 0 and 3")
	}
	if c.Fetch.SleepBetweenRequests < 0 {
		return fmt.Errorf("fetch.sleep_between_requests must not be negative")
	}
	if !c.Fetch.FetchAudio && !c.Fetch.FetchVideo {
		return fmt.Errorf("at least one of fetch.fetch_audio or fetch.fetch_video must be true")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Muxer.Name == "" {
		return fmt.Errorf("muxer.name is required")
	}

	return nil
}
