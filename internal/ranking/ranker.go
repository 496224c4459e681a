package ranking

import (
	"sort"

	"github.com/arbelos/pulse/internal/models"
)

// Rank orders scored results and slices out the requested page. The order is
// a total order: composite score descending, then store retrieval rank
// ascending, then post ID ascending. Identical inputs always produce
// identical output.
//
// An offset past the end of the list yields an empty page with the correct
// total, not an error.
func Rank(results []*models.ScoredResult, offset, pageSize int) *models.RankedResponse {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].RetrievalRank != results[j].RetrievalRank {
			return results[i].RetrievalRank < results[j].RetrievalRank
		}
		return results[i].Post.ID < results[j].Post.ID
	})
	for i, r := range results {
		r.Rank = i + 1
	}

	total := len(results)
	page := []*models.ScoredResult{}
	if offset < total {
		end := offset + pageSize
		if end > total {
			end = total
		}
		page = results[offset:end]
	}

	return &models.RankedResponse{
		Results:  page,
		Total:    total,
		Offset:   offset,
		PageSize: pageSize,
	}
}
