// Package config loads restyler settings with Viper. Values come from
// defaults, an optional restyle.yaml file and RESTYLE_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/metrics"
)

// EnvPrefix is prepended to every environment override, e.g. RESTYLE_SEED.
const EnvPrefix = "RESTYLE"

const (
	defaultSaveDir            = "outputs"
	defaultSampleTokensPath   = "scripts/tokens/example_tokens.json"
	defaultBackend            = "fal"
	defaultSeed               = 12345
	defaultStrengthMultiplier = 1.0
	defaultServerPort         = 7860
	defaultShutdownTimeout    = 10 * time.Second
	defaultMaxUploadBytes     = 20 << 20
)

// Config holds all restyler settings.
type Config struct {
	SaveDir            string  `mapstructure:"save_dir"`
	SampleTokensPath   string  `mapstructure:"sample_tokens_path"`
	Backend            string  `mapstructure:"backend"`
	Seed               int64   `mapstructure:"seed"`
	StrengthMultiplier float64 `mapstructure:"strength_multiplier"`
	SeedJitter         bool    `mapstructure:"seed_jitter"`
	LogLevel           string  `mapstructure:"log_level"`

	Metrics MetricsConfig `mapstructure:"metrics"`
	Server  ServerConfig  `mapstructure:"server"`
	FAL     FALConfig     `mapstructure:"fal"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
}

// MetricsConfig controls CloudWatch EMF output.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ServerConfig holds HTTP server settings for restyle-web.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// FALConfig mirrors backend.FALConfig. Zero values fall back to the backend defaults.
type FALConfig struct {
	QueueURL          string        `mapstructure:"queue_url"`
	StorageURL        string        `mapstructure:"storage_url"`
	Model             string        `mapstructure:"model"`
	NumInferenceSteps int           `mapstructure:"num_inference_steps"`
	GuidanceScale     float64       `mapstructure:"guidance_scale"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	DownloadTimeout   time.Duration `mapstructure:"download_timeout"`
}

// GeminiConfig selects the Gemini image model.
type GeminiConfig struct {
	Model string `mapstructure:"model"`
}

// Load reads configuration from configPath (or the default search path when
// empty) and the environment. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("restyle")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.ui-restyler")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
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

// SetDefaults registers every key so environment overrides are picked up
// by Unmarshal even when no config file exists.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("save_dir", defaultSaveDir)
	v.SetDefault("sample_tokens_path", defaultSampleTokensPath)
	v.SetDefault("backend", defaultBackend)
	v.SetDefault("seed", defaultSeed)
	v.SetDefault("strength_multiplier", defaultStrengthMultiplier)
	v.SetDefault("seed_jitter", true)
	v.SetDefault("log_level", "info")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", metrics.DefaultNamespace)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.max_upload_bytes", defaultMaxUploadBytes)

	v.SetDefault("fal.queue_url", backend.DefaultFALQueueURL)
	v.SetDefault("fal.storage_url", backend.DefaultFALStorageURL)
	v.SetDefault("fal.model", backend.DefaultFALModel)
	v.SetDefault("fal.num_inference_steps", backend.DefaultNumInferenceSteps)
	v.SetDefault("fal.guidance_scale", backend.DefaultGuidanceScale)
	v.SetDefault("fal.poll_interval", backend.DefaultPollInterval)
	v.SetDefault("fal.download_timeout", backend.DefaultDownloadTimeout)

	v.SetDefault("gemini.model", backend.DefaultGeminiModel)
}

// Validate checks the configuration for errors and normalizes the backend
// name to its canonical variant.
func (c *Config) Validate() error {
	if c.SaveDir == "" {
		return fmt.Errorf("save_dir is required")
	}

	variant, err := backend.ParseVariant(c.Backend)
	if err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	c.Backend = string(variant)

	if c.StrengthMultiplier < 0 || math.IsNaN(c.StrengthMultiplier) || math.IsInf(c.StrengthMultiplier, 0) {
		return fmt.Errorf("strength_multiplier must be a finite non-negative number")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}

	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}
	if c.Server.MaxUploadBytes < 1 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}

	if c.FAL.NumInferenceSteps < 1 {
		return fmt.Errorf("fal.num_inference_steps must be at least 1")
	}
	if c.FAL.GuidanceScale <= 0 {
		return fmt.Errorf("fal.guidance_scale must be positive")
	}

	return nil
}

// Variant returns the validated backend variant.
func (c *Config) Variant() backend.Variant {
	return backend.Variant(c.Backend)
}

// BackendOptions maps the file and environment settings onto backend options.
func (c *Config) BackendOptions() backend.Options {
	return backend.Options{
		FAL: backend.FALConfig{
			QueueURL:          c.FAL.QueueURL,
			StorageURL:        c.FAL.StorageURL,
			Model:             c.FAL.Model,
			NumInferenceSteps: c.FAL.NumInferenceSteps,
			GuidanceScale:     c.FAL.GuidanceScale,
			PollInterval:      c.FAL.PollInterval,
			DownloadTimeout:   c.FAL.DownloadTimeout,
		},
		Gemini: backend.GeminiConfig{Model: c.Gemini.Model},
	}
}

// MetricsEmitter returns an EMF emitter on stdout, or nil when metrics are disabled.
func (c *Config) MetricsEmitter() *metrics.Emitter {
	if !c.Metrics.Enabled {
		return nil
	}
	return metrics.NewEmitter(c.Metrics.Namespace, nil)
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
