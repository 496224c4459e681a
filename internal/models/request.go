package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// DefaultPageSize is used when a request does not set PageSize.
const DefaultPageSize = 10

// RankingRequest describes one ranking call: topic terms, optional filters,
// paging, and per-request weight overrides. Requests are constructed per call
// and never mutated after validation.
type RankingRequest struct {
	// Terms are the topic query terms. All terms contribute to relevance;
	// order matters only when Phrase is set.
	Terms []string `json:"terms"`
	// Phrase requests phrase matching over the terms in order.
	Phrase bool `json:"phrase,omitempty"`
	// Since/Until bound the post timestamp as a half-open interval
	// [Since, Until). Nil means unbounded on that side.
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`
	// Author and Lang restrict candidates to exact matches when non-empty.
	Author string `json:"author,omitempty"`
	Lang   string `json:"lang,omitempty"`
	// PageSize is the number of results per page; defaults to DefaultPageSize.
	PageSize int `json:"page_size,omitempty"`
	// Offset is the zero-based offset into the fully ranked list.
	Offset int `json:"offset,omitempty"`
	// Weights overrides default feature weights by name. Absent entries use
	// the configured defaults; unknown names are rejected.
	Weights map[string]float64 `json:"weights,omitempty"`
}

// Normalized returns a copy of the request with terms case-folded, trimmed,
// empties dropped, and duplicates removed (first occurrence kept). Author and
// Lang are trimmed. The receiver is not modified.
func (r *RankingRequest) Normalized() *RankingRequest {
	n := *r
	n.Terms = NormalizeTerms(r.Terms)
	n.Author = strings.TrimSpace(r.Author)
	n.Lang = strings.ToLower(strings.TrimSpace(r.Lang))
	if n.PageSize == 0 {
		n.PageSize = DefaultPageSize
	}
	return &n
}

// NormalizeTerms case-folds and trims terms, dropping empty strings and
// duplicates while preserving first-occurrence order.
func NormalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// HasFilter reports whether the request constrains candidates by anything
// other than terms.
func (r *RankingRequest) HasFilter() bool {
	return r.Since != nil || r.Until != nil || r.Author != "" || r.Lang != ""
}

// Validate checks request fields against the configured page size ceiling and
// applies the page size default. Term/cap validation belongs to the query
// builder, weight validation to the scorer.
func (r *RankingRequest) Validate(pageSizeMax int) error {
	if r.PageSize == 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize < 0 {
		return &InvalidRequestError{Field: "page_size", Reason: "must be positive"}
	}
	if pageSizeMax > 0 && r.PageSize > pageSizeMax {
		return &InvalidRequestError{Field: "page_size", Reason: "exceeds configured maximum"}
	}
	if r.Offset < 0 {
		return &InvalidRequestError{Field: "offset", Reason: "must be non-negative"}
	}
	if r.Since != nil && r.Until != nil && !r.Since.Before(*r.Until) {
		return &InvalidRequestError{Field: "since", Reason: "time window is empty"}
	}
	return nil
}

// Fingerprint returns a deterministic hex digest of the normalized request,
// used as the cache key component. Two requests that normalize identically
// share a fingerprint.
func (r *RankingRequest) Fingerprint() string {
	b, err := json.Marshal(r.Normalized())
	if err != nil {
		// Marshal of this struct cannot fail; keep a stable fallback anyway.
		b = []byte(strings.Join(r.Terms, " "))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
