// Package config provides configuration loading and structs for the Pulse server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "5s" parse naturally.
type Duration time.Duration

// UnmarshalYAML parses a duration string or a bare number of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Cache     CacheConfig     `yaml:"cache"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the post database and the inverted index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexPath    string `yaml:"index_path"`
}

// RetrievalConfig holds candidate retrieval settings.
type RetrievalConfig struct {
	// OverFetchFactor multiplies the requested page size when querying the
	// index store, so the re-ranker sees more than one page of candidates.
	OverFetchFactor int `yaml:"over_fetch_factor"`
	// MaxCandidates caps how many hits one request may pull from the store.
	MaxCandidates int `yaml:"max_candidates"`
	// PageSizeMax bounds RankingRequest.PageSize.
	PageSizeMax int `yaml:"page_size_max"`
	// Retries is the retry budget for transient store failures.
	Retries int `yaml:"retries"`
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase Duration `yaml:"backoff_base"`
	// BackoffCap bounds a single retry delay.
	BackoffCap Duration `yaml:"backoff_cap"`
	// Timeout bounds one search call against the index store.
	Timeout Duration `yaml:"timeout"`
}

// RankingConfig holds feature weighting and normalization settings.
type RankingConfig struct {
	// Weights are the default per-feature multipliers, overridable per request.
	Weights map[string]float64 `yaml:"weights"`
	// Engagement counter weights feeding the saturating combination.
	LikeWeight  float64 `yaml:"like_weight"`
	ShareWeight float64 `yaml:"share_weight"`
	ReplyWeight float64 `yaml:"reply_weight"`
	ViewWeight  float64 `yaml:"view_weight"`
	// EngagementPivot is the weighted counter sum that maps to 0.5.
	EngagementPivot float64 `yaml:"engagement_pivot"`
	// RecencyHalfLife controls exponential decay of the recency feature.
	RecencyHalfLife Duration `yaml:"recency_half_life"`
	// RecencyCutoff zeroes recency for posts older than this.
	RecencyCutoff Duration `yaml:"recency_cutoff"`
	// Concurrency bounds parallel feature extraction per request.
	Concurrency int `yaml:"concurrency"`
}

// SentimentConfig selects and tunes the pluggable sentiment scorer.
type SentimentConfig struct {
	// Mode is "lexicon", "onnx", or "off".
	Mode      string   `yaml:"mode"`
	ModelPath string   `yaml:"model_path"`
	MaxTokens int      `yaml:"max_tokens"`
	Timeout   Duration `yaml:"timeout"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Enabled bool     `yaml:"enabled"`
	TTL     Duration `yaml:"ttl"`
	// Backend is "memory" or "redis".
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// WatchConfig holds spool directory watch settings for file-based ingest.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	cfg.Sentiment.ModelPath = expandPath(cfg.Sentiment.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
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

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
