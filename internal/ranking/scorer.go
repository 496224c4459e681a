package ranking

import "github.com/arbelos/pulse/internal/models"

// Score combines a candidate's feature vector into a composite score with a
// per-feature breakdown. The composite is the plain weighted sum, so with
// weights summing to 1 and features in [0, 1] it stays in [0, 1]. The
// breakdown follows models.FeatureOrder so diagnostics reproduce exactly.
func Score(cand *models.Candidate, features models.FeatureVector, weights map[string]float64) *models.ScoredResult {
	breakdown := make([]models.FeatureContribution, 0, len(models.FeatureOrder))
	total := 0.0
	for _, f := range models.FeatureOrder {
		w := weights[f]
		v := features[f]
		c := w * v
		total += c
		breakdown = append(breakdown, models.FeatureContribution{
			Feature:      f,
			Weight:       w,
			Value:        v,
			Contribution: c,
		})
	}
	return &models.ScoredResult{
		Post:          cand.Post,
		Score:         total,
		Features:      features,
		Breakdown:     breakdown,
		RetrievalRank: cand.RetrievalRank,
	}
}

// ScoreAll scores every candidate against its positionally aligned feature vector.
func ScoreAll(candidates []*models.Candidate, vectors []models.FeatureVector, weights map[string]float64) []*models.ScoredResult {
	results := make([]*models.ScoredResult, 0, len(candidates))
	for i, cand := range candidates {
		results = append(results, Score(cand, vectors[i], weights))
	}
	return results
}
