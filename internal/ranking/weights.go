// Package ranking turns retrieved candidates into a scored, deterministically
// ordered result page: feature extraction, weighted composition, and ranking.
package ranking

import (
	"fmt"

	"github.com/arbelos/pulse/internal/models"
)

// ResolveWeights merges per-request weight overrides over the configured
// defaults. Unknown feature names and negative multipliers are rejected with
// InvalidRequest so typos fail fast instead of silently dropping a signal.
func ResolveWeights(defaults, overrides map[string]float64) (map[string]float64, error) {
	known := make(map[string]struct{}, len(models.FeatureOrder))
	for _, f := range models.FeatureOrder {
		known[f] = struct{}{}
	}

	resolved := make(map[string]float64, len(models.FeatureOrder))
	for f, w := range defaults {
		if _, ok := known[f]; ok {
			resolved[f] = w
		}
	}
	for f, w := range overrides {
		if _, ok := known[f]; !ok {
			return nil, &models.InvalidRequestError{
				Field:  "weights",
				Reason: fmt.Sprintf("unknown feature %q", f),
			}
		}
		if w < 0 {
			return nil, &models.InvalidRequestError{
				Field:  "weights",
				Reason: fmt.Sprintf("weight for %q must be non-negative", f),
			}
		}
		resolved[f] = w
	}
	return resolved, nil
}
