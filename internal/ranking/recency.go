package ranking

import (
	"math"
	"time"

	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/models"
)

// RecencyExtractor scores post age with exponential half-life decay. Posts
// older than the cutoff score exactly 0 instead of decaying forever.
type RecencyExtractor struct {
	halfLife time.Duration
	cutoff   time.Duration
	now      func() time.Time
}

// NewRecencyExtractor creates a RecencyExtractor from config.
func NewRecencyExtractor(cfg *config.RankingConfig) *RecencyExtractor {
	return &RecencyExtractor{
		halfLife: cfg.RecencyHalfLife.Std(),
		cutoff:   cfg.RecencyCutoff.Std(),
		now:      time.Now,
	}
}

// Name returns the feature name.
func (e *RecencyExtractor) Name() string { return models.FeatureRecency }

// Extract returns the recency score in [0, 1]. A post created now scores 1;
// one half-life later it scores 0.5. Clock-skewed future timestamps score 1.
func (e *RecencyExtractor) Extract(post *models.Post) float64 {
	age := e.now().Sub(post.CreatedAt)
	if age <= 0 {
		return 1
	}
	if e.cutoff > 0 && age > e.cutoff {
		return 0
	}
	if e.halfLife <= 0 {
		return 0
	}
	return math.Pow(0.5, float64(age)/float64(e.halfLife))
}
