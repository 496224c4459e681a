package ranking

import (
	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/models"
	"github.com/arbelos/pulse/pkg/utils"
)

// EngagementExtractor folds raw engagement counters into one weighted sum and
// squashes it into [0, 1] with logarithmic saturation, so a single viral post
// does not flatten everything else on the page.
type EngagementExtractor struct {
	likeWeight  float64
	shareWeight float64
	replyWeight float64
	viewWeight  float64
	pivot       float64
}

// NewEngagementExtractor creates an EngagementExtractor from config.
func NewEngagementExtractor(cfg *config.RankingConfig) *EngagementExtractor {
	return &EngagementExtractor{
		likeWeight:  cfg.LikeWeight,
		shareWeight: cfg.ShareWeight,
		replyWeight: cfg.ReplyWeight,
		viewWeight:  cfg.ViewWeight,
		pivot:       cfg.EngagementPivot,
	}
}

// Name returns the feature name.
func (e *EngagementExtractor) Name() string { return models.FeatureEngagement }

// Extract returns the engagement score in [0, 1). All-zero counters score 0.
func (e *EngagementExtractor) Extract(post *models.Post) float64 {
	eng := post.Engagement
	sum := e.likeWeight*float64(eng.Likes) +
		e.shareWeight*float64(eng.Shares) +
		e.replyWeight*float64(eng.Replies) +
		e.viewWeight*float64(eng.Views)
	return utils.LogSaturate(sum, e.pivot)
}
