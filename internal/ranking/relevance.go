package ranking

import (
	"strings"
	"unicode"

	"github.com/arbelos/pulse/internal/models"
	"github.com/arbelos/pulse/pkg/utils"
)

// freqPivot is the total term occurrence count that maps the frequency bonus
// to its midpoint. Kept small: a handful of repeats should already count.
const freqPivot = 10

// RelevanceExtractor scores term overlap between the request terms and the
// post text plus tag set. Coverage of distinct terms dominates; repeated
// occurrences add a log-compressed bonus so term-stuffed posts cannot run away.
type RelevanceExtractor struct{}

// NewRelevanceExtractor creates a RelevanceExtractor.
func NewRelevanceExtractor() *RelevanceExtractor {
	return &RelevanceExtractor{}
}

// Name returns the feature name.
func (e *RelevanceExtractor) Name() string { return models.FeatureRelevance }

// Extract returns the relevance score in [0, 1]. Posts sharing no term with
// the request score exactly 0; a request without terms scores every post 0.
func (e *RelevanceExtractor) Extract(post *models.Post, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}

	counts := tokenCounts(post)
	matched := 0
	occurrences := 0
	for _, t := range terms {
		if n, ok := counts[t]; ok {
			matched++
			occurrences += n
		}
	}
	if matched == 0 {
		return 0
	}

	coverage := float64(matched) / float64(len(terms))
	bonus := utils.LogSaturate(float64(occurrences), freqPivot)
	return utils.Clamp01(coverage * (0.5 + 0.5*bonus))
}

// tokenCounts counts normalized tokens in the post body and tags.
func tokenCounts(post *models.Post) map[string]int {
	counts := make(map[string]int)
	for _, tok := range tokenizeText(post.Text) {
		counts[tok]++
	}
	for _, tag := range post.Tags {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
		if tag != "" {
			counts[tag]++
		}
	}
	return counts
}

func tokenizeText(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
