package ranking

import (
	"testing"

	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/models"
)

func rankingConfig() *config.RankingConfig {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return &cfg.Ranking
}

func TestEngagementExtractor(t *testing.T) {
	e := NewEngagementExtractor(rankingConfig())

	t.Run("zero counters score zero", func(t *testing.T) {
		if got := e.Extract(&models.Post{}); got != 0 {
			t.Errorf("score = %v, want 0", got)
		}
	})

	t.Run("shares weigh more than likes", func(t *testing.T) {
		likes := e.Extract(&models.Post{Engagement: models.Engagement{Likes: 10}})
		shares := e.Extract(&models.Post{Engagement: models.Engagement{Shares: 10}})
		if shares <= likes {
			t.Errorf("shares %v not greater than likes %v", shares, likes)
		}
	})

	t.Run("monotonic in counters", func(t *testing.T) {
		low := e.Extract(&models.Post{Engagement: models.Engagement{Likes: 10, Shares: 5, Replies: 5}})
		high := e.Extract(&models.Post{Engagement: models.Engagement{Likes: 100, Shares: 5, Replies: 5}})
		if high <= low {
			t.Errorf("more likes %v not greater than fewer %v", high, low)
		}
	})

	t.Run("viral outlier stays bounded", func(t *testing.T) {
		got := e.Extract(&models.Post{Engagement: models.Engagement{
			Likes: 10_000_000, Shares: 5_000_000, Replies: 1_000_000, Views: 500_000_000,
		}})
		if got >= 1 {
			t.Errorf("score = %v, want < 1", got)
		}
		modest := e.Extract(&models.Post{Engagement: models.Engagement{Likes: 50}})
		if modest <= 0 {
			t.Errorf("modest post score = %v, want positive despite outlier scale", modest)
		}
	})
}
