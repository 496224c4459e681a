package config

import (
	"time"

	"github.com/arbelos/pulse/internal/models"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/pulse/data/db/posts.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/pulse/data/indices/posts"
	}

	if cfg.Retrieval.OverFetchFactor == 0 {
		cfg.Retrieval.OverFetchFactor = 5
	}
	if cfg.Retrieval.MaxCandidates == 0 {
		cfg.Retrieval.MaxCandidates = 1000
	}
	if cfg.Retrieval.PageSizeMax == 0 {
		cfg.Retrieval.PageSizeMax = 100
	}
	if cfg.Retrieval.Retries == 0 {
		cfg.Retrieval.Retries = 3
	}
	if cfg.Retrieval.BackoffBase == 0 {
		cfg.Retrieval.BackoffBase = Duration(200 * time.Millisecond)
	}
	if cfg.Retrieval.BackoffCap == 0 {
		cfg.Retrieval.BackoffCap = Duration(3 * time.Second)
	}
	if cfg.Retrieval.Timeout == 0 {
		cfg.Retrieval.Timeout = Duration(5 * time.Second)
	}

	if cfg.Ranking.Weights == nil {
		cfg.Ranking.Weights = map[string]float64{
			models.FeatureRelevance:  0.4,
			models.FeatureEngagement: 0.3,
			models.FeatureSentiment:  0.2,
			models.FeatureRecency:    0.1,
		}
	}
	if cfg.Ranking.LikeWeight == 0 {
		cfg.Ranking.LikeWeight = 1
	}
	if cfg.Ranking.ShareWeight == 0 {
		cfg.Ranking.ShareWeight = 3
	}
	if cfg.Ranking.ReplyWeight == 0 {
		cfg.Ranking.ReplyWeight = 2
	}
	if cfg.Ranking.ViewWeight == 0 {
		cfg.Ranking.ViewWeight = 0.05
	}
	if cfg.Ranking.EngagementPivot == 0 {
		cfg.Ranking.EngagementPivot = 1000
	}
	if cfg.Ranking.RecencyHalfLife == 0 {
		cfg.Ranking.RecencyHalfLife = Duration(48 * time.Hour)
	}
	if cfg.Ranking.RecencyCutoff == 0 {
		cfg.Ranking.RecencyCutoff = Duration(720 * time.Hour)
	}
	if cfg.Ranking.Concurrency == 0 {
		cfg.Ranking.Concurrency = 8
	}

	if cfg.Sentiment.Mode == "" {
		cfg.Sentiment.Mode = "lexicon"
	}
	if cfg.Sentiment.MaxTokens == 0 {
		cfg.Sentiment.MaxTokens = 256
	}
	if cfg.Sentiment.Timeout == 0 {
		cfg.Sentiment.Timeout = Duration(2 * time.Second)
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = Duration(5 * time.Minute)
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = "localhost:6379"
	}
}
