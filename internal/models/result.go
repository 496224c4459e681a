package models

// Feature names for the ranking signal vector.
const (
	FeatureRelevance  = "relevance"
	FeatureEngagement = "engagement"
	FeatureSentiment  = "sentiment"
	FeatureRecency    = "recency"
)

// FeatureOrder is the stable feature order used for score breakdowns, so
// diagnostics reproduce byte-identically across runs.
var FeatureOrder = []string{FeatureRelevance, FeatureEngagement, FeatureSentiment, FeatureRecency}

// Candidate couples a post with its retrieval position from the index store.
// The retrieval rank is a tie-break signal only, never the primary score.
type Candidate struct {
	Post *Post `json:"post"`
	// RetrievalRank is the 1-based arrival order from the index store.
	RetrievalRank int `json:"retrieval_rank"`
	// StoreScore is the index store's own relevance score for the hit.
	StoreScore float64 `json:"store_score"`
}

// FeatureVector maps feature names to normalized values in [0, 1]. Every
// feature in FeatureOrder is present for every candidate that reaches scoring.
type FeatureVector map[string]float64

// FeatureContribution records one feature's part of a composite score.
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Weight       float64 `json:"weight"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// ScoredResult is a candidate with its feature vector, composite score, and
// per-feature breakdown in FeatureOrder.
type ScoredResult struct {
	Post          *Post                 `json:"post"`
	Score         float64               `json:"score"`
	Features      FeatureVector         `json:"features"`
	Breakdown     []FeatureContribution `json:"breakdown"`
	RetrievalRank int                   `json:"retrieval_rank"`
	// Rank is the final 1-based position, set by the ranker.
	Rank int `json:"rank"`
}

// RankedResponse is the ordered page of scored results for one request.
type RankedResponse struct {
	Results []*ScoredResult `json:"results"`
	// Total is the number of candidates considered after deduplication.
	Total    int `json:"total"`
	Offset   int `json:"offset"`
	PageSize int `json:"page_size"`
	// Generation is the index generation the ranking was computed against.
	Generation uint64 `json:"generation"`
	QueryTime  int64  `json:"query_time_ms"`
}
