// Package config holds the pipeline configuration: prompt budgets, cache
// TTLs, the visual context service endpoint and logging switches. Values
// come from defaults, then an optional YAML file, then environment
// overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all standforge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Prompt pipeline settings
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Visual context service
	Visual VisualConfig `yaml:"visual"`

	// Analysis result caching
	Cache CacheConfig `yaml:"cache"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// PipelineConfig configures the prompt construction pipeline.
type PipelineConfig struct {
	// Hard character budget for the final prompt.
	MaxPromptLength int `yaml:"max_prompt_length"`

	// Compression level override: conservative, moderate, aggressive.
	// Empty means follow the quality assessor's recommendation.
	CompressionLevel string `yaml:"compression_level"`

	// Keep creative styling sections competitive during compression.
	PreserveCreativeContext bool `yaml:"preserve_creative_context"`
}

// VisualConfig configures the visual context service integration.
type VisualConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// CacheConfig configures dimensional analysis memoization.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	TTL     string `yaml:"ttl"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "standforge",
		Version: "1.0.0",

		Pipeline: PipelineConfig{
			MaxPromptLength:         4500,
			PreserveCreativeContext: true,
		},

		Visual: VisualConfig{
			Enabled: true,
			BaseURL: "http://localhost:8090",
			Timeout: "30s",
		},

		Cache: CacheConfig{
			Enabled: true,
			TTL:     "5m",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Pipeline.MaxPromptLength <= 0 {
		return fmt.Errorf("pipeline.max_prompt_length must be positive, got %d", c.Pipeline.MaxPromptLength)
	}
	switch c.Pipeline.CompressionLevel {
	case "", "conservative", "moderate", "aggressive":
	default:
		return fmt.Errorf("pipeline.compression_level %q is not one of conservative, moderate, aggressive", c.Pipeline.CompressionLevel)
	}
	if _, err := c.VisualTimeout(); err != nil {
		return fmt.Errorf("visual.timeout: %w", err)
	}
	if _, err := c.CacheTTL(); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	return nil
}

// VisualTimeout parses the visual service timeout, defaulting to 30s.
func (c *Config) VisualTimeout() (time.Duration, error) {
	if c.Visual.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(c.Visual.Timeout)
}

// CacheTTL parses the cache TTL, defaulting to 5m.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(c.Cache.TTL)
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("STANDFORGE_VISUAL_URL"); url != "" {
		c.Visual.BaseURL = url
		c.Visual.Enabled = true
	}
	if level := os.Getenv("STANDFORGE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if level := os.Getenv("STANDFORGE_COMPRESSION_LEVEL"); level != "" {
		c.Pipeline.CompressionLevel = level
	}
}
