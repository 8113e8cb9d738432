// Package config provides unified configuration loading for the extraction engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the extraction engine.
type Config struct {
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ExtractionConfig holds per-page extraction settings.
type ExtractionConfig struct {
	// EnableRecognitionFallback triggers recognition-from-image when the
	// directly extracted text is below MinTextLength.
	EnableRecognitionFallback bool `yaml:"enable_recognition_fallback"`
	ExtractTables             bool `yaml:"extract_tables"`
	// MinTextLength is the minimal-text threshold in alphanumeric characters.
	MinTextLength int `yaml:"min_text_length"`
	// QualityThreshold excludes candidates scoring below it from the final
	// output. Range 0-10.
	QualityThreshold float64 `yaml:"quality_threshold"`
	// RecognitionLanguage is the language hint passed to the recognizer.
	RecognitionLanguage string `yaml:"recognition_language"`
}

// PipelineConfig holds worker pool settings.
type PipelineConfig struct {
	Parallel   bool `yaml:"parallel"`
	MaxWorkers int  `yaml:"max_workers"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Driver     string        `yaml:"driver"` // memory, redis or sqlite
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
	SQLite     SQLiteConfig  `yaml:"sqlite"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			EnableRecognitionFallback: false,
			ExtractTables:             true,
			MinTextLength:             32,
			QualityThreshold:          0,
			RecognitionLanguage:       "eng",
		},
		Pipeline: PipelineConfig{
			Parallel:   true,
			MaxWorkers: 8,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Driver:     "memory",
			TTL:        30 * time.Minute,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
			SQLite: SQLiteConfig{
				Path: "/tmp/extraction-engine-cache.db",
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Extraction.QualityThreshold < 0 || c.Extraction.QualityThreshold > 10 {
		return fmt.Errorf("quality_threshold must be between 0 and 10, got %g", c.Extraction.QualityThreshold)
	}

	if c.Extraction.MinTextLength < 0 {
		return fmt.Errorf("min_text_length must not be negative")
	}

	if c.Pipeline.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1, got %d", c.Pipeline.MaxWorkers)
	}

	switch c.Cache.Driver {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	return nil
}

// Fingerprint returns a deterministic string of the options that influence
// pipeline output. It is folded into cache keys so results computed under a
// different configuration are never served.
func (c *Config) Fingerprint() string {
	return fmt.Sprintf("ocr=%t;tables=%t;mintext=%d;threshold=%.4f",
		c.Extraction.EnableRecognitionFallback,
		c.Extraction.ExtractTables,
		c.Extraction.MinTextLength,
		c.Extraction.QualityThreshold,
	)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EXTRACTION_RECOGNITION_FALLBACK"); v != "" {
		cfg.Extraction.EnableRecognitionFallback = v == "true"
	}

	if v := os.Getenv("EXTRACTION_TABLES"); v != "" {
		cfg.Extraction.ExtractTables = v == "true"
	}

	if v := os.Getenv("EXTRACTION_QUALITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Extraction.QualityThreshold = f
		}
	}

	if v := os.Getenv("PIPELINE_PARALLEL"); v != "" {
		cfg.Pipeline.Parallel = v == "true"
	}

	if v := os.Getenv("PIPELINE_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.MaxWorkers = n
		}
	}

	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = v == "true"
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("CACHE_SQLITE_PATH"); v != "" {
		cfg.Cache.Driver = "sqlite"
		cfg.Cache.SQLite.Path = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
