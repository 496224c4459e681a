// Package search wires the ranking pipeline together: query building,
// candidate retrieval, feature extraction, scoring, and ranking.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arbelos/pulse/internal/cache"
	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/index"
	"github.com/arbelos/pulse/internal/models"
	"github.com/arbelos/pulse/internal/query"
	"github.com/arbelos/pulse/internal/ranking"
	"github.com/arbelos/pulse/internal/retrieve"
	"github.com/arbelos/pulse/internal/sentiment"
	"github.com/arbelos/pulse/internal/storage"
)

// Engine runs the full ranking pipeline for one request.
type Engine struct {
	store          index.Store
	builder        *query.Builder
	retriever      *retrieve.Retriever
	extractor      *ranking.Extractor
	defaultWeights map[string]float64
	cache          *cache.ResultCache // nil when caching is disabled
	logger         *zap.Logger
}

// NewEngine creates an engine over the given stores and sentiment scorer.
// resultCache may be nil to disable memoization.
func NewEngine(
	store index.Store,
	st storage.Storage,
	scorer sentiment.Scorer,
	cfg *config.Config,
	resultCache *cache.ResultCache,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:          store,
		builder:        query.NewBuilder(&cfg.Retrieval),
		retriever:      retrieve.NewRetriever(store, st, &cfg.Retrieval, retrieve.WithLogger(logger)),
		extractor:      ranking.NewExtractor(&cfg.Ranking, scorer, logger),
		defaultWeights: cfg.Ranking.Weights,
		cache:          resultCache,
		logger:         logger,
	}
}

// Rank executes the pipeline for req and returns the requested result page.
// With caching enabled, equal requests against an unchanged index reuse the
// memoized response, and concurrent equal requests share one computation.
func (e *Engine) Rank(ctx context.Context, req *models.RankingRequest) (*models.RankedResponse, error) {
	start := time.Now()

	// Weight overrides are validated before any retrieval work; a typo in a
	// feature name must fail fast, not after a full index round trip.
	weights, err := ranking.ResolveWeights(e.defaultWeights, req.Weights)
	if err != nil {
		return nil, err
	}
	q, err := e.builder.Build(req)
	if err != nil {
		return nil, err
	}
	n := req.Normalized()
	generation := e.store.Generation()

	compute := func(ctx context.Context) (*models.RankedResponse, error) {
		candidates, err := e.retriever.Retrieve(ctx, q)
		if err != nil {
			return nil, err
		}
		vectors, err := e.extractor.Extract(ctx, n, candidates)
		if err != nil {
			return nil, err
		}
		scored := ranking.ScoreAll(candidates, vectors, weights)
		resp := ranking.Rank(scored, n.Offset, n.PageSize)
		resp.Generation = generation
		resp.QueryTime = time.Since(start).Milliseconds()
		return resp, nil
	}

	if e.cache == nil {
		return compute(ctx)
	}

	fingerprint := req.Fingerprint()
	resp, cached, err := e.cache.GetOrCompute(ctx, cache.Key(fingerprint, generation), compute)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("ranking request served",
		zap.String("fingerprint", fingerprint),
		zap.Uint64("generation", generation),
		zap.Bool("cached", cached),
		zap.Int("total", resp.Total),
	)
	return resp, nil
}

// Status reports index size and the current generation marker.
func (e *Engine) Status() (docs uint64, generation uint64, err error) {
	docs, err = e.store.DocCount()
	if err != nil {
		return 0, 0, err
	}
	return docs, e.store.Generation(), nil
}
