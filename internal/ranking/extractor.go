package ranking

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/models"
	"github.com/arbelos/pulse/internal/sentiment"
)

// Extractor computes the full feature vector for each candidate. Candidates
// are independent, so extraction fans out across a bounded worker group; the
// bound mainly protects a model-backed sentiment scorer from unbounded fan-out.
type Extractor struct {
	relevance   *RelevanceExtractor
	engagement  *EngagementExtractor
	recency     *RecencyExtractor
	sentiment   *SentimentExtractor
	concurrency int
}

// NewExtractor creates an Extractor from config and an optional sentiment scorer.
func NewExtractor(cfg *config.RankingConfig, scorer sentiment.Scorer, logger *zap.Logger) *Extractor {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Extractor{
		relevance:   NewRelevanceExtractor(),
		engagement:  NewEngagementExtractor(cfg),
		recency:     NewRecencyExtractor(cfg),
		sentiment:   NewSentimentExtractor(scorer, logger),
		concurrency: concurrency,
	}
}

// Extract computes one feature vector per candidate, positionally aligned with
// the input slice regardless of worker completion order. It fails only on
// context cancellation; individual feature degradation never fails a request.
func (e *Extractor) Extract(ctx context.Context, req *models.RankingRequest, candidates []*models.Candidate) ([]models.FeatureVector, error) {
	vectors := make([]models.FeatureVector, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vectors[i] = e.extractOne(gctx, req, cand.Post)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *Extractor) extractOne(ctx context.Context, req *models.RankingRequest, post *models.Post) models.FeatureVector {
	return models.FeatureVector{
		models.FeatureRelevance:  e.relevance.Extract(post, req.Terms),
		models.FeatureEngagement: e.engagement.Extract(post),
		models.FeatureSentiment:  e.sentiment.Extract(ctx, post),
		models.FeatureRecency:    e.recency.Extract(post),
	}
}
