// Package index defines the inverted-index store contract and its Bleve implementation.
package index

import (
	"context"
	"time"

	"github.com/arbelos/pulse/internal/models"
)

// Query is the structured query the ranking core sends to an index store:
// match clauses, filter clauses, and pagination.
type Query struct {
	// Terms are normalized match terms; any term may match (OR semantics),
	// the store's own relevance ordering rewards fuller matches.
	Terms []string
	// Phrase adds a boosted phrase clause over the terms in order.
	Phrase bool
	// Since/Until filter the post timestamp as a half-open interval.
	Since *time.Time
	Until *time.Time
	// Author and Lang are exact-match filter clauses when non-empty.
	Author string
	Lang   string
	// From and Size are the store-side pagination window.
	From int
	Size int
}

// Hit is one raw result from the index store, in store relevance order.
type Hit struct {
	ID    string
	Score float64
}

// Store is the capability the ranking core needs from an index store: any
// engine implementing ranked search over match+filter queries suffices.
type Store interface {
	// Search executes the query and returns hits in the store's relevance order.
	Search(ctx context.Context, q *Query) ([]Hit, error)
	// Index adds or replaces a post in the index and bumps the generation.
	Index(ctx context.Context, post *models.Post) error
	// Delete removes a post from the index and bumps the generation.
	Delete(ctx context.Context, id string) error
	// Generation returns the current index generation marker. It changes on
	// every mutation, so cached rankings keyed by it go stale on reindex.
	Generation() uint64
	// DocCount returns the number of indexed posts.
	DocCount() (uint64, error)
	Close() error
}
