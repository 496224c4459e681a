package ranking

import (
	"context"

	"go.uber.org/zap"

	"github.com/arbelos/pulse/internal/models"
	"github.com/arbelos/pulse/internal/sentiment"
	"github.com/arbelos/pulse/pkg/utils"
)

// SentimentExtractor maps post sentiment into [0, 1]. A precomputed score on
// the post wins; otherwise the pluggable scorer runs over the text. Scorer
// failures degrade to the neutral midpoint rather than failing the pipeline,
// sentiment being one weighted signal among four.
type SentimentExtractor struct {
	scorer sentiment.Scorer
	logger *zap.Logger
}

// NewSentimentExtractor creates a SentimentExtractor. A nil scorer means every
// post without a precomputed score gets the neutral default.
func NewSentimentExtractor(scorer sentiment.Scorer, logger *zap.Logger) *SentimentExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SentimentExtractor{scorer: scorer, logger: logger}
}

// Name returns the feature name.
func (e *SentimentExtractor) Name() string { return models.FeatureSentiment }

// Extract returns the sentiment feature in [0, 1].
func (e *SentimentExtractor) Extract(ctx context.Context, post *models.Post) float64 {
	if post.Sentiment != nil {
		return fromPolarity(*post.Sentiment)
	}
	if e.scorer == nil {
		return sentiment.Neutral
	}
	score, err := e.scorer.Score(ctx, post.Text)
	if err != nil {
		e.logger.Debug("sentiment scorer failed, using neutral default",
			zap.String("post_id", post.ID),
			zap.Error(err))
		return sentiment.Neutral
	}
	return fromPolarity(score)
}

// fromPolarity maps a [-1, 1] polarity to the [0, 1] feature range.
func fromPolarity(s float64) float64 {
	return utils.Clamp01((s + 1) / 2)
}
