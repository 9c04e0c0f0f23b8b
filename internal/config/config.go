// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"firestige.xyz/ethframe/internal/core"
)

// Config represents the top-level configuration.
// Maps to the `ethframe:` root key in YAML.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Decoder   DecoderConfig   `mapstructure:"decoder"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Output    OutputConfig    `mapstructure:"output"`
	Reporters ReportersConfig `mapstructure:"reporters"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ─── Decoder ───

// DecoderConfig configures the frame decoder.
type DecoderConfig struct {
	CopyPayload bool `mapstructure:"copy_payload"`
}

// ─── Filter ───

// FilterConfig selects frames before decoding.
type FilterConfig struct {
	TaggedOnly bool `mapstructure:"tagged_only"`
	VLANID     int  `mapstructure:"vlan_id"` // -1 = any
}

// ─── Pipeline ───

// PipelineConfig controls the decode loop.
type PipelineConfig struct {
	StopOnError bool            `mapstructure:"stop_on_error"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig caps frames accepted per source MAC within a window.
type RateLimitConfig struct {
	MaxFramesPerSource int    `mapstructure:"max_frames_per_source"` // 0 = disabled
	Window             string `mapstructure:"window"`                // e.g. "10s"
}

// ─── Output ───

// OutputConfig selects the console rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"` // json / yaml / text
}

// ─── Reporters ───

// ReportersConfig holds optional reporter connections.
type ReportersConfig struct {
	Kafka KafkaReporterConfig `mapstructure:"kafka"`
}

// KafkaReporterConfig configures the Kafka reporter.
type KafkaReporterConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	BatchSize    int      `mapstructure:"batch_size"`
	BatchTimeout string   `mapstructure:"batch_timeout"`
	Compression  string   `mapstructure:"compression"` // none | gzip | snappy | lz4
	MaxAttempts  int      `mapstructure:"max_attempts"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`  // debug / info / warn / error
	Format  string           `mapstructure:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `ethframe: ...`.
type configRoot struct {
	Ethframe Config `mapstructure:"ethframe"`
}

// Load loads configuration from file. An empty path yields defaults plus
// environment overrides (e.g. ETHFRAME_LOG_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `ethframe.` key prefix maps to `ETHFRAME_` in env vars via the key replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Ethframe

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without consulting a file.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults are static; only a bad environment override can get here.
		panic(err)
	}
	return cfg
}

// setDefaults sets default values for configuration.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("ethframe.log.level", "info")
	v.SetDefault("ethframe.log.format", "text")
	v.SetDefault("ethframe.log.outputs.file.enabled", false)
	v.SetDefault("ethframe.log.outputs.file.path", "/var/log/ethframe/ethframe.log")
	v.SetDefault("ethframe.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("ethframe.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("ethframe.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("ethframe.log.outputs.file.rotation.compress", true)

	// Decoder defaults
	v.SetDefault("ethframe.decoder.copy_payload", false)

	// Filter defaults
	v.SetDefault("ethframe.filter.tagged_only", false)
	v.SetDefault("ethframe.filter.vlan_id", -1)

	// Pipeline defaults
	v.SetDefault("ethframe.pipeline.stop_on_error", false)
	v.SetDefault("ethframe.pipeline.rate_limit.max_frames_per_source", 0)
	v.SetDefault("ethframe.pipeline.rate_limit.window", "10s")

	// Output defaults
	v.SetDefault("ethframe.output.format", "json")

	// Reporter defaults
	v.SetDefault("ethframe.reporters.kafka.enabled", false)
	v.SetDefault("ethframe.reporters.kafka.topic", "ethframe-frames")
	v.SetDefault("ethframe.reporters.kafka.batch_size", 100)
	v.SetDefault("ethframe.reporters.kafka.batch_timeout", "100ms")
	v.SetDefault("ethframe.reporters.kafka.compression", "snappy")
	v.SetDefault("ethframe.reporters.kafka.max_attempts", 3)

	// Metrics defaults
	v.SetDefault("ethframe.metrics.enabled", false)
	v.SetDefault("ethframe.metrics.listen", ":9091")
	v.SetDefault("ethframe.metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *Config) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: invalid log level: %s (must be debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("%w: invalid log format: %s (must be json/text)", core.ErrConfigInvalid, cfg.Log.Format)
	}

	// ── Output ──
	switch cfg.Output.Format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("%w: invalid output format: %s (must be json/yaml/text)", core.ErrConfigInvalid, cfg.Output.Format)
	}

	// ── Filter ──
	if cfg.Filter.VLANID < -1 || cfg.Filter.VLANID > 4095 {
		return fmt.Errorf("%w: filter.vlan_id %d out of range (-1..4095)", core.ErrConfigInvalid, cfg.Filter.VLANID)
	}

	// ── Rate limit ──
	if cfg.Pipeline.RateLimit.MaxFramesPerSource < 0 {
		return fmt.Errorf("%w: pipeline.rate_limit.max_frames_per_source must be >= 0", core.ErrConfigInvalid)
	}
	if _, err := cfg.Pipeline.RateLimit.WindowDuration(); err != nil {
		return fmt.Errorf("%w: pipeline.rate_limit.window: %v", core.ErrConfigInvalid, err)
	}

	// ── Kafka reporter ──
	if k := cfg.Reporters.Kafka; k.Enabled {
		if len(k.Brokers) == 0 {
			return fmt.Errorf("%w: reporters.kafka.brokers is required when reporters.kafka.enabled=true", core.ErrConfigInvalid)
		}
		if k.Topic == "" {
			return fmt.Errorf("%w: reporters.kafka.topic is required when reporters.kafka.enabled=true", core.ErrConfigInvalid)
		}
		switch k.Compression {
		case "", "none", "gzip", "snappy", "lz4":
		default:
			return fmt.Errorf("%w: invalid reporters.kafka.compression: %s", core.ErrConfigInvalid, k.Compression)
		}
		if _, err := time.ParseDuration(k.BatchTimeout); err != nil {
			return fmt.Errorf("%w: reporters.kafka.batch_timeout: %v", core.ErrConfigInvalid, err)
		}
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		return fmt.Errorf("%w: metrics.listen is required when metrics.enabled=true", core.ErrConfigInvalid)
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	return nil
}

// WindowDuration parses the rate limit window.
func (c RateLimitConfig) WindowDuration() (time.Duration, error) {
	if c.Window == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Window)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("window must be positive, got %s", c.Window)
	}
	return d, nil
}
