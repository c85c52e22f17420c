// Package config loads service configuration with layered precedence:
// built-in defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "UNDERTOW_CONFIG"

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"undertow.yaml",
	"undertow.yml",
	"/etc/undertow/config.yaml",
}

// envPrefix namespaces environment overrides: UNDERTOW_CATALOG_BASE_URL maps
// to catalog.base_url.
const envPrefix = "UNDERTOW_"

type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type CatalogConfig struct {
	BaseURL      string        `koanf:"base_url"`
	TokenURL     string        `koanf:"token_url"`
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	Timeout      time.Duration `koanf:"timeout"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type CacheConfig struct {
	MemoryTTL time.Duration `koanf:"memory_ttl"`
	StoreTTL  time.Duration `koanf:"store_ttl"`
}

type PipelineConfig struct {
	MinPoolSize         int                 `koanf:"min_pool_size"`
	SampleSize          int                 `koanf:"sample_size"`
	OptionCount         int                 `koanf:"option_count"`
	BucketQuota         int                 `koanf:"bucket_quota"`
	Tolerance           float64             `koanf:"tolerance"`
	Weights             domain.ScoreWeights `koanf:"weights"`
	SimilarityThreshold float64             `koanf:"similarity_threshold"`
	ConvergenceRound    int                 `koanf:"convergence_round"`
	BatchSize           int                 `koanf:"batch_size"`
	BatchWorkers        int                 `koanf:"batch_workers"`
}

type PrepConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	SyncWait      time.Duration `koanf:"sync_wait"`
	RunTimeout    time.Duration `koanf:"run_timeout"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

type HealingConfig struct {
	Workers     int           `koanf:"workers"`
	QueueSize   int           `koanf:"queue_size"`
	TaskTimeout time.Duration `koanf:"task_timeout"`
}

type LoggingConfig struct {
	Mode string `koanf:"mode"`
}

// Config is the full service configuration tree.
type Config struct {
	Server   ServerConfig         `koanf:"server"`
	Catalog  CatalogConfig        `koanf:"catalog"`
	Store    StoreConfig          `koanf:"store"`
	Cache    CacheConfig          `koanf:"cache"`
	Pipeline PipelineConfig       `koanf:"pipeline"`
	Gravity  domain.GravityConfig `koanf:"gravity"`
	Prep     PrepConfig           `koanf:"prep"`
	Healing  HealingConfig        `koanf:"healing"`
	Logging  LoggingConfig        `koanf:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Catalog: CatalogConfig{
			BaseURL:      "https://api.spotify.com/v1",
			TokenURL:     "https://accounts.spotify.com/api/token",
			MaxRetries:   3,
			RetryBackoff: 500 * time.Millisecond,
			Timeout:      10 * time.Second,
		},
		Store: StoreConfig{
			Path: "undertow.db",
		},
		Cache: CacheConfig{
			MemoryTTL: 10 * time.Minute,
			StoreTTL:  24 * time.Hour,
		},
		Pipeline: PipelineConfig{
			MinPoolSize:         100,
			SampleSize:          40,
			OptionCount:         9,
			BucketQuota:         3,
			Tolerance:           0.05,
			Weights:             domain.DefaultScoreWeights(),
			SimilarityThreshold: 0.5,
			ConvergenceRound:    8,
			BatchSize:           20,
			BatchWorkers:        4,
		},
		Gravity: domain.DefaultGravityConfig(),
		Prep: PrepConfig{
			TTL:           5 * time.Minute,
			SyncWait:      10 * time.Second,
			RunTimeout:    60 * time.Second,
			SweepInterval: 30 * time.Second,
		},
		Healing: HealingConfig{
			Workers:     2,
			QueueSize:   256,
			TaskTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Mode: "dev",
		},
	}
}

// Load assembles the configuration: defaults, then the config file if one
// exists, then environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Pipeline.MinPoolSize <= 0 {
		return fmt.Errorf("pipeline.min_pool_size must be positive, got %d", c.Pipeline.MinPoolSize)
	}
	if c.Pipeline.OptionCount <= 0 {
		return fmt.Errorf("pipeline.option_count must be positive, got %d", c.Pipeline.OptionCount)
	}
	if c.Pipeline.BucketQuota <= 0 {
		return fmt.Errorf("pipeline.bucket_quota must be positive, got %d", c.Pipeline.BucketQuota)
	}
	if c.Pipeline.Tolerance < 0 {
		return fmt.Errorf("pipeline.tolerance must not be negative, got %f", c.Pipeline.Tolerance)
	}
	if c.Pipeline.BatchSize <= 0 || c.Pipeline.BatchWorkers <= 0 {
		return fmt.Errorf("pipeline batch settings must be positive")
	}
	if c.Gravity.Min >= c.Gravity.Max {
		return fmt.Errorf("gravity.min %f must be below gravity.max %f", c.Gravity.Min, c.Gravity.Max)
	}
	if c.Gravity.Initial < c.Gravity.Min || c.Gravity.Initial > c.Gravity.Max {
		return fmt.Errorf("gravity.initial %f outside [%f, %f]", c.Gravity.Initial, c.Gravity.Min, c.Gravity.Max)
	}
	if c.Prep.TTL <= 0 || c.Prep.SyncWait <= 0 || c.Prep.RunTimeout <= 0 {
		return fmt.Errorf("prep durations must be positive")
	}
	if c.Prep.RunTimeout < c.Prep.SyncWait {
		return fmt.Errorf("prep.run_timeout %s must not be below prep.sync_wait %s", c.Prep.RunTimeout, c.Prep.SyncWait)
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
