// Package config provides configuration loading and structs for the outfitter server and worker.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/outfitter/internal/ranking"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool                  `yaml:"debug"`
	Server   ServerConfig          `yaml:"server"`
	Storage  StorageConfig         `yaml:"storage"`
	KV       KVConfig              `yaml:"kv"`
	Matching MatchingConfig        `yaml:"matching"`
	Ranking  ranking.RankingConfig `yaml:"ranking"`
	LLM      LLMConfig             `yaml:"llm"`
	Queue    QueueConfig           `yaml:"queue"`
	Watch    WatchConfig           `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// StorageConfig selects and configures the record blob store.
type StorageConfig struct {
	Backend         string `yaml:"backend"`
	DatabasePath    string `yaml:"database_path"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	PublicBaseURL   string `yaml:"public_base_url"`
	// CacheSize is the number of parsed records kept in memory.
	CacheSize int64 `yaml:"cache_size"`
}

// KVConfig selects and configures the key-value store holding the index and sessions.
type KVConfig struct {
	Backend  string        `yaml:"backend"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MatchingConfig holds candidate finding and selection settings.
type MatchingConfig struct {
	MinScore           float64       `yaml:"min_score"`
	MaxCandidates      int           `yaml:"max_candidates"`
	PoolSize           int           `yaml:"pool_size"`
	RecencyMax         int           `yaml:"recency_max"`
	RecencyLookback    int           `yaml:"recency_lookback"`
	RecencyTTL         time.Duration `yaml:"recency_ttl"`
	WidenCount         int           `yaml:"widen_count"`
	MinPoolAfterFilter int           `yaml:"min_pool_after_filter"`
	// Season overrides ranking.season when set.
	Season string `yaml:"season"`
	// Compose turns the chosen record into a persona reply by default.
	Compose bool `yaml:"compose"`
}

// LLMConfig holds the vision and text generation settings.
type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	VisionModel string        `yaml:"vision_model"`
	TextModel   string        `yaml:"text_model"`
	Timeout     time.Duration `yaml:"timeout"`
	// Mock answers every call with canned output, for offline runs.
	Mock bool `yaml:"mock"`
}

// QueueConfig holds the background task queue settings.
type QueueConfig struct {
	Enabled     bool   `yaml:"enabled"`
	RedisAddr   string `yaml:"redis_addr"`
	Concurrency int    `yaml:"concurrency"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets from the environment.
func ApplyEnv(cfg *Config) {
	for _, o := range []struct {
		env string
		dst *string
	}{
		{"GOOGLE_API_KEY", &cfg.LLM.APIKey},
		{"R2_ACCOUNT_ID", &cfg.Storage.AccountID},
		{"R2_ACCESS_KEY_ID", &cfg.Storage.AccessKeyID},
		{"R2_ACCESS_KEY_SECRET", &cfg.Storage.AccessKeySecret},
		{"R2_BUCKET_NAME", &cfg.Storage.Bucket},
		{"REDIS_PASSWORD", &cfg.KV.Password},
	} {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendMemory:
	case BackendS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the %s backend", BackendS3)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.KV.Backend {
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown kv backend %q", c.KV.Backend)
	}
	switch c.Ranking.Season {
	case ranking.SeasonWarm, ranking.SeasonCold, ranking.SeasonAuto:
	default:
		return fmt.Errorf("unknown season %q", c.Ranking.Season)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
