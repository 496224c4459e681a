// Package retrieve executes index queries and maps raw hits into candidates.
package retrieve

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/index"
	"github.com/arbelos/pulse/internal/models"
	"github.com/arbelos/pulse/internal/storage"
)

// Retriever pulls candidates from the index store with a bounded retry
// budget, deduplicates hits, and hydrates full posts from storage.
type Retriever struct {
	store       index.Store
	storage     storage.Storage
	retries     int
	backoffBase time.Duration
	backoffCap  time.Duration
	timeout     time.Duration
	logger      *zap.Logger // optional; when set, logs skipped hits and retries
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLogger sets a logger for debug output (retries, skipped hits).
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a Retriever over the given store and storage.
func NewRetriever(store index.Store, st storage.Storage, cfg *config.RetrievalConfig, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		store:       store,
		storage:     st,
		retries:     cfg.Retries,
		backoffBase: cfg.BackoffBase.Std(),
		backoffCap:  cfg.BackoffCap.Std(),
		timeout:     cfg.Timeout.Std(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve executes q against the index store and returns deduplicated
// candidates with 1-based retrieval ranks in arrival order.
//
// Transient store failures are retried with exponential backoff up to the
// configured budget, then surface as RetrievalUnavailable. A malformed
// response surfaces as ContractViolation immediately: version skew does not
// heal on retry. Caller cancellation propagates to the in-flight search.
func (r *Retriever) Retrieve(ctx context.Context, q *index.Query) ([]*models.Candidate, error) {
	hits, err := r.searchWithRetry(ctx, q)
	if err != nil {
		return nil, err
	}

	// Dedup by ID, first occurrence wins. Index stores may return the same
	// document twice under relaxed consistency.
	deduped := make([]index.Hit, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		if hit.ID == "" {
			return nil, &models.ContractViolationError{Detail: "hit with empty document id"}
		}
		if math.IsNaN(hit.Score) || math.IsInf(hit.Score, 0) {
			return nil, &models.ContractViolationError{Detail: "hit with non-finite score: " + hit.ID}
		}
		if _, ok := seen[hit.ID]; ok {
			continue
		}
		seen[hit.ID] = struct{}{}
		deduped = append(deduped, hit)
	}

	ids := make([]string, len(deduped))
	for i, hit := range deduped {
		ids[i] = hit.ID
	}
	posts, err := r.storage.GetPosts(ctx, ids)
	if err != nil {
		return nil, &models.RetrievalUnavailableError{Attempts: 1, Err: err}
	}

	candidates := make([]*models.Candidate, 0, len(deduped))
	for _, hit := range deduped {
		post, ok := posts[hit.ID]
		if !ok {
			// Index/storage skew: the index knows a post storage no longer
			// holds. Skip it rather than failing the request.
			if r.logger != nil {
				r.logger.Warn("indexed post missing from storage", zap.String("id", hit.ID))
			}
			continue
		}
		candidates = append(candidates, &models.Candidate{
			Post:          post,
			RetrievalRank: len(candidates) + 1,
			StoreScore:    hit.Score,
		})
	}
	return candidates, nil
}

func (r *Retriever) searchWithRetry(ctx context.Context, q *index.Query) ([]index.Hit, error) {
	var lastErr error
	attempts := r.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		searchCtx := ctx
		var cancel context.CancelFunc
		if r.timeout > 0 {
			searchCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		hits, err := r.store.Search(searchCtx, q)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return hits, nil
		}
		if models.IsContractViolation(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			// Caller cancelled; do not burn the retry budget.
			return nil, ctx.Err()
		}
		lastErr = err
		if attempt < attempts-1 {
			delay := r.backoffDelay(attempt)
			if r.logger != nil {
				r.logger.Debug("index search retry",
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay),
					zap.Error(err),
				)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, &models.RetrievalUnavailableError{Attempts: attempts, Err: lastErr}
}

func (r *Retriever) backoffDelay(attempt int) time.Duration {
	delay := r.backoffBase << uint(attempt)
	if r.backoffCap > 0 && delay > r.backoffCap {
		delay = r.backoffCap
	}
	return delay
}
