// Package config loads gotlui CLI settings from flags, environment
// variables (GOTLUI_*) and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// GOTLUI_STORE_KIND=redis sets store.kind.
const EnvPrefix = "GOTLUI"

// Config is the full CLI configuration.
type Config struct {
	TargetLang string `mapstructure:"target_lang"`
	SourceLang string `mapstructure:"source_lang"`

	Provider   ProviderConfig   `mapstructure:"provider"`
	Store      StoreConfig      `mapstructure:"store"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
	Log        LogConfig        `mapstructure:"log"`
}

// ProviderConfig selects and configures the translation service.
type ProviderConfig struct {
	Kind       string        `mapstructure:"kind"` // openai, http or catalog
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CatalogDir string        `mapstructure:"catalog_dir"`
}

// StoreConfig selects the persistent key-value backend.
type StoreConfig struct {
	Kind       string `mapstructure:"kind"` // sqlite, redis or memory
	Path       string `mapstructure:"path"`
	RedisURL   string `mapstructure:"redis_url"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	QuotaBytes int64  `mapstructure:"quota_bytes"`
}

// CacheConfig tunes the translation cache.
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	EvictCount int           `mapstructure:"evict_count"`
}

// DispatchConfig tunes batching.
type DispatchConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	Debounce       time.Duration `mapstructure:"debounce"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	WaitTimeout    time.Duration `mapstructure:"wait_timeout"`
}

// ResilienceConfig tunes the wrappers around the translation service.
type ResilienceConfig struct {
	Retries         int `mapstructure:"retries"`
	RateLimit       int `mapstructure:"rate_limit"` // requests per minute, 0 disables
	BreakerFailures int `mapstructure:"breaker_failures"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// New returns a viper instance with every default registered and
// environment overrides enabled.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("target_lang", "ar")
	v.SetDefault("source_lang", "en")

	v.SetDefault("provider.kind", "openai")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "gpt-4o-mini")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.timeout", 10*time.Second)
	v.SetDefault("provider.catalog_dir", "locales")

	v.SetDefault("store.kind", "sqlite")
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.key_prefix", "gotlui:")
	v.SetDefault("store.quota_bytes", 5<<20)

	v.SetDefault("cache.ttl", 720*time.Hour)
	v.SetDefault("cache.evict_count", 100)

	v.SetDefault("dispatch.batch_size", 20)
	v.SetDefault("dispatch.debounce", 500*time.Millisecond)
	v.SetDefault("dispatch.request_timeout", 5*time.Second)
	v.SetDefault("dispatch.wait_timeout", 6*time.Second)

	v.SetDefault("resilience.retries", 2)
	v.SetDefault("resilience.rate_limit", 120)
	v.SetDefault("resilience.breaker_failures", 5)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// ReadFile loads cfgFile, or searches $HOME and the working directory for
// .gotlui.yaml when cfgFile is empty. A missing default file is not an
// error; it returns the path used, or "".
func ReadFile(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".gotlui")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerations and numeric ranges.
func (c *Config) Validate() error {
	if c.TargetLang == "" {
		return errors.New("target_lang is required")
	}
	switch c.Provider.Kind {
	case "openai", "http", "catalog":
	default:
		return fmt.Errorf("provider.kind %q: want openai, http or catalog", c.Provider.Kind)
	}
	if c.Provider.Kind == "http" && c.Provider.BaseURL == "" {
		return errors.New("provider.base_url is required for the http provider")
	}
	switch c.Store.Kind {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("store.kind %q: want sqlite, redis or memory", c.Store.Kind)
	}
	if c.Dispatch.BatchSize <= 0 {
		return fmt.Errorf("dispatch.batch_size must be positive, got %d", c.Dispatch.BatchSize)
	}
	if c.Resilience.Retries < 0 {
		return fmt.Errorf("resilience.retries must not be negative, got %d", c.Resilience.Retries)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// NewLogger builds the slog logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return level, nil
}

func defaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "gotlui.db"
	}
	return filepath.Join(dir, "gotlui", "cache.db")
}
