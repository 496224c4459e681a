package sentiment

import (
	"context"
	"strings"
	"unicode"
)

// valence maps words to sentiment strength in [-5, 5], AFINN style. Small by
// design: the lexicon scorer is the cheap default; model-backed scoring is
// the onnx variant.
var valence = map[string]float64{
	"amazing": 4, "awesome": 4, "brilliant": 4, "excellent": 3, "fantastic": 4,
	"great": 3, "love": 3, "loved": 3, "loves": 3, "wonderful": 4,
	"good": 3, "happy": 3, "joy": 3, "best": 3, "win": 4, "winning": 4, "won": 3,
	"beautiful": 3, "success": 2, "successful": 3, "hope": 2, "hopeful": 2,
	"excited": 3, "exciting": 3, "glad": 3, "proud": 2, "thanks": 2, "thank": 2,
	"nice": 3, "like": 2, "likes": 2, "liked": 2, "support": 2, "supports": 2,
	"strong": 2, "better": 2, "improve": 2, "improved": 2, "fun": 4, "cool": 1,
	"safe": 1, "fair": 2, "calm": 2, "clean": 2, "free": 1, "kind": 2,

	"awful": -3, "bad": -3, "terrible": -3, "horrible": -3, "worst": -3,
	"hate": -3, "hated": -3, "hates": -3, "angry": -3, "sad": -2, "cry": -1,
	"lose": -3, "losing": -3, "lost": -3, "fail": -2, "failed": -2, "failure": -2,
	"fraud": -4, "scam": -2, "lie": -2, "lies": -2, "liar": -3, "fake": -3,
	"corrupt": -3, "corruption": -3, "crisis": -3, "disaster": -2, "chaos": -2,
	"fear": -2, "scared": -2, "worried": -3, "worry": -3, "wrong": -2,
	"violence": -3, "violent": -3, "attack": -1, "war": -2, "death": -2,
	"broken": -1, "dirty": -2, "unfair": -2, "weak": -2, "poor": -2,
	"disgusting": -3, "pathetic": -2, "stupid": -2, "ridiculous": -3,
}

// LexiconScorer scores sentiment as the average valence of known words,
// normalized to [-1, 1]. Text with no known words scores 0.
type LexiconScorer struct{}

// NewLexiconScorer creates a lexicon-based sentiment scorer.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{}
}

// Score returns the normalized average valence of matched words.
func (s *LexiconScorer) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var sum float64
	var matched int
	for _, word := range tokenize(text) {
		if v, ok := valence[word]; ok {
			sum += v
			matched++
		}
	}
	if matched == 0 {
		return 0, nil
	}
	score := sum / (float64(matched) * 5)
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score, nil
}

// Close is a no-op for the lexicon scorer.
func (s *LexiconScorer) Close() error { return nil }

// tokenize lowercases text and splits on anything that is not a letter or
// digit, so "Great!" and "great" score the same.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
