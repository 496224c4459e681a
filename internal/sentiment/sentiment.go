// Package sentiment provides pluggable sentiment scoring over post text.
package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/arbelos/pulse/internal/config"
)

// Neutral is the degraded sentiment feature value used when no scorer is
// configured or a scorer fails: the midpoint of the [0,1] feature range.
const Neutral = 0.5

// Scorer scores text sentiment in [-1, 1]. Implementations must be safe for
// concurrent use; the extraction stage fans out across candidates.
type Scorer interface {
	// Score returns the sentiment of text: -1 most negative, 1 most positive.
	Score(ctx context.Context, text string) (float64, error)
	Close() error
}

// New creates the scorer selected by cfg.Mode, wrapped with the configured
// timeout. Mode "off" returns nil: callers treat a nil scorer as always
// degrading to the neutral default.
func New(cfg *config.SentimentConfig) (Scorer, error) {
	var s Scorer
	switch cfg.Mode {
	case "off":
		return nil, nil
	case "lexicon":
		s = NewLexiconScorer()
	case "onnx":
		onnx, err := NewONNXScorer(cfg.ModelPath, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		s = onnx
	default:
		return nil, fmt.Errorf("unknown sentiment mode: %q", cfg.Mode)
	}
	if d := cfg.Timeout.Std(); d > 0 {
		s = WithTimeout(s, d)
	}
	return s, nil
}

// WithTimeout wraps a scorer so each Score call gets its own deadline. A
// model-backed scorer may block on I/O; the pipeline treats it like any other
// suspending call.
func WithTimeout(s Scorer, d time.Duration) Scorer {
	return &timeoutScorer{inner: s, timeout: d}
}

type timeoutScorer struct {
	inner   Scorer
	timeout time.Duration
}

func (t *timeoutScorer) Score(ctx context.Context, text string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		score float64
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		score, err := t.inner.Score(ctx, text)
		ch <- result{score, err}
	}()
	select {
	case r := <-ch:
		return r.score, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (t *timeoutScorer) Close() error { return t.inner.Close() }
