package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Oiflow  OiflowConfig  `yaml:"oiflow"`
	History HistoryConfig `yaml:"history"`
	Storage StorageConfig `yaml:"storage"`
	Live    LiveConfig    `yaml:"live"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

type OiflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type HistoryConfig struct {
	// StartDate is the first archive day to consider, in YYYYMMDD form.
	StartDate string `yaml:"start_date"`
	// Prefix is the object-store namespace holding the daily archives.
	Prefix string `yaml:"prefix"`
	// InstrumentCeiling bounds how many distinct instruments one day's
	// extraction will account before it stops reading the stream.
	InstrumentCeiling int           `yaml:"instrument_ceiling"`
	FetchRatePerSec   float64       `yaml:"fetch_rate_per_sec"`
	OutputPath        string        `yaml:"output_path"`
	OverridesPath     string        `yaml:"overrides_path"`
	Parquet           ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	RequesterPays   bool   `yaml:"requester_pays"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LiveConfig struct {
	URL        string `yaml:"url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Timeout exposes the request timeout as a duration.
func (c LiveConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

type MetricsConfig struct {
	CloudWatch bool   `yaml:"cloudwatch"`
	Namespace  string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		History: HistoryConfig{
			StartDate:         "20230520",
			Prefix:            "asset_ctxs/",
			InstrumentCeiling: 250,
			FetchRatePerSec:   5,
			OutputPath:        "public/oi_history.json",
		},
		Live: LiveConfig{
			URL:        "https://api.hyperliquid.xyz/info",
			TimeoutSec: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Credentials and bucket come from the environment when present. The
	// archive bucket allows anonymous reads, so empty credentials are not an
	// error here.
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.Storage.S3.Region = strings.TrimSpace(v)
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		config.Storage.S3.Bucket = strings.TrimSpace(v)
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Oiflow.Name == "" {
		return fmt.Errorf("oiflow.name is required")
	}

	if cfg.Oiflow.Version == "" {
		return fmt.Errorf("oiflow.version is required")
	}

	if _, err := time.Parse("20060102", cfg.History.StartDate); err != nil {
		return fmt.Errorf("history.start_date '%s' is not YYYYMMDD", cfg.History.StartDate)
	}

	if cfg.History.Prefix == "" {
		return fmt.Errorf("history.prefix is required")
	}

	if cfg.History.InstrumentCeiling < 1 {
		return fmt.Errorf("history.instrument_ceiling must be greater than 0")
	}

	if cfg.History.FetchRatePerSec < 0 {
		return fmt.Errorf("history.fetch_rate_per_sec must not be negative")
	}

	if cfg.History.OutputPath == "" {
		return fmt.Errorf("history.output_path is required")
	}

	if cfg.History.Parquet.Enabled && cfg.History.Parquet.Path == "" {
		return fmt.Errorf("history.parquet.path is required when parquet output is enabled")
	}

	if cfg.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required")
	}
	if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
		return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
	}
	if cfg.Storage.S3.Region == "" {
		return fmt.Errorf("storage.s3.region is required")
	}

	if cfg.Live.URL == "" {
		return fmt.Errorf("live.url is required")
	}
	if cfg.Live.TimeoutSec <= 0 {
		return fmt.Errorf("live.timeout_sec must be greater than 0")
	}

	if cfg.Metrics.CloudWatch && cfg.Metrics.Namespace == "" {
		return fmt.Errorf("metrics.namespace is required when cloudwatch metrics are enabled")
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
