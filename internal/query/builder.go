// Package query translates ranking requests into index store queries.
package query

import (
	"github.com/arbelos/pulse/internal/config"
	"github.com/arbelos/pulse/internal/index"
	"github.com/arbelos/pulse/internal/models"
)

// Builder builds index queries from ranking requests. It is a pure
// transformation; all I/O belongs to the retriever.
type Builder struct {
	overFetchFactor int
	maxCandidates   int
	pageSizeMax     int
}

// NewBuilder creates a Builder from retrieval configuration.
func NewBuilder(cfg *config.RetrievalConfig) *Builder {
	return &Builder{
		overFetchFactor: cfg.OverFetchFactor,
		maxCandidates:   cfg.MaxCandidates,
		pageSizeMax:     cfg.PageSizeMax,
	}
}

// Build normalizes the request and produces the index query. The store window
// always starts at zero: the core re-ranks the whole over-fetch window and
// pages over its own ordering, not the store's.
//
// Fails with InvalidRequest when normalization leaves no terms and no filter
// constrains the candidate set, and with CapExceeded when the requested page
// would need candidates past the configured cap.
func (b *Builder) Build(req *models.RankingRequest) (*index.Query, error) {
	if err := req.Validate(b.pageSizeMax); err != nil {
		return nil, err
	}
	n := req.Normalized()

	if len(n.Terms) == 0 && !n.HasFilter() {
		return nil, &models.InvalidRequestError{
			Field:  "terms",
			Reason: "no query terms and no filters; the query must constrain candidates",
		}
	}

	need := n.Offset + n.PageSize
	if need > b.maxCandidates {
		return nil, &models.CapExceededError{Requested: need, Cap: b.maxCandidates}
	}

	fetch := n.PageSize * b.overFetchFactor
	if fetch < need {
		fetch = need
	}
	if fetch > b.maxCandidates {
		fetch = b.maxCandidates
	}

	return &index.Query{
		Terms:  n.Terms,
		Phrase: n.Phrase,
		Since:  n.Since,
		Until:  n.Until,
		Author: n.Author,
		Lang:   n.Lang,
		From:   0,
		Size:   fetch,
	}, nil
}
